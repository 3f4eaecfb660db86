package config

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile              = ".env"
	defaultPort                 = "8080"
	defaultReadTimeout          = 15 * time.Second
	defaultWriteTimeout         = 60 * time.Second
	defaultIdleTimeout          = 120 * time.Second
	defaultPublicBaseURL        = "https://storage.googleapis.com"
	defaultGeminiTextModel      = "gemini-2.5-flash"
	defaultGeminiImageModel     = "gemini-2.5-flash-image"
	defaultGeminiTimeout        = 90 * time.Second
	defaultImageStagger         = 100 * time.Millisecond
	defaultFallbackImage        = "/assets/images/default-premium-product.jpg"
	defaultTaskTimeout          = 5 * time.Minute
	defaultDailyLimit           = 100
	defaultRateLimitBackend     = "firestore"
	defaultPublicPerMinute      = 30
	defaultRateLimitTxAttempts  = 3
	defaultRateLimitTxTimeout   = 3 * time.Second
	defaultFirestoreDialTimeout = 10 * time.Second
	defaultRoleClaim            = "role"
	defaultVerifyTimeout        = 5 * time.Second
	defaultJWKSTimeout          = 5 * time.Second
	defaultHealthCheckTimeout   = 2 * time.Second
	defaultLeadsBaseURL         = "https://email-sender-53995941986.asia-northeast3.run.app"
	defaultHTTPClientTimeout    = 15 * time.Second
	defaultMailRegion           = "us-east-1"
	defaultSalesAddress         = "sales@irunica.com"
	defaultTrendsCacheTTL       = time.Hour
	defaultBrandsProjectID      = "irunica-brand"
	defaultBrandsCacheTTL       = time.Hour
	defaultRetentionWindow      = 90 * 24 * time.Hour
	defaultSecurityEnvironment  = "local"
	defaultOIDCJWKSURL          = "https://www.googleapis.com/oauth2/v3/certs"
	defaultSecurityIssuer       = "https://accounts.google.com"
	defaultSecurityIAPIssuer    = "https://cloud.google.com/iap"
	defaultIdempotencyHeader    = "Idempotency-Key"
	defaultIdempotencyTTL       = 24 * time.Hour
	defaultIdempotencyInterval  = time.Hour
	defaultIdempotencyBatchSize = 200
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server      ServerConfig
	Firebase    FirebaseConfig
	Firestore   FirestoreConfig
	Storage     StorageConfig
	Gemini      GeminiConfig
	Generation  GenerationConfig
	RateLimits  RateLimitConfig
	Leads       LeadsConfig
	Pipeline    PipelineConfig
	Mail        MailConfig
	Events      EventsConfig
	Trends      TrendsConfig
	Brands      BrandsConfig
	Retention   RetentionConfig
	Security    SecurityConfig
	Idempotency IdempotencyConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// HealthCheckTimeout applies to readiness checks that do not set their own.
	HealthCheckTimeout time.Duration
}

// FirebaseConfig stores Firebase project settings.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
	DialTimeout  time.Duration
}

// StorageConfig names the bucket generated images are persisted to.
type StorageConfig struct {
	AssetsBucket  string
	PublicBaseURL string
}

// GeminiConfig holds generative model credentials and model names.
type GeminiConfig struct {
	APIKey     string
	TextModel  string
	ImageModel string
	Timeout    time.Duration
}

// GenerationConfig tunes the per-lead asset pipeline.
type GenerationConfig struct {
	ImageStagger  time.Duration
	FallbackImage string
	TaskTimeout   time.Duration
}

// RateLimitConfig controls generation quotas and public endpoint throttling.
type RateLimitConfig struct {
	DailyLimit      int
	Backend         string
	RedisAddr       string
	RedisPassword   string
	PublicPerMinute int
	// TxAttempts and TxTimeout bound the Firestore counter transaction; a slow check fails open.
	TxAttempts int
	TxTimeout  time.Duration
}

// LeadsConfig points at the lead records backend.
type LeadsConfig struct {
	BaseURL string
	Timeout time.Duration
}

// PipelineConfig points at the batch pipeline the dashboard controls.
type PipelineConfig struct {
	BaseURL string
	Timeout time.Duration
}

// MailConfig configures outbound notification e-mail.
type MailConfig struct {
	Region       string
	Sender       string
	SalesAddress string
	AdminAddress string
}

// EventsConfig names the optional Pub/Sub topic for asset lifecycle events.
type EventsConfig struct {
	Topic string
}

// TrendsConfig locates the trend analysis data project.
type TrendsConfig struct {
	ProjectID string
	CacheTTL  time.Duration
}

// BrandsConfig locates the partner brand catalogue, which lives in its own project.
type BrandsConfig struct {
	ProjectID string
	CacheTTL  time.Duration
}

// RetentionConfig bounds how long cached lead assets are kept.
type RetentionConfig struct {
	Window time.Duration
}

// SecurityConfig groups authentication settings.
type SecurityConfig struct {
	Environment         string
	OIDC                OIDCConfig
	DashboardRoles      []string
	RoleClaim           string
	VerificationTimeout time.Duration
}

// OIDCConfig controls Google-signed token verification.
type OIDCConfig struct {
	JWKSURL     string
	JWKSTimeout time.Duration
	Audience    string
	Audiences   map[string]string
	Issuers     []string
}

// IdempotencyConfig controls idempotency middleware behaviour.
type IdempotencyConfig struct {
	Header           string
	TTL              time.Duration
	CleanupInterval  time.Duration
	CleanupBatchSize int
}

// SecretResolver resolves references to external secrets (e.g. Secret Manager URIs).
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts ordinary functions to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

// ResolveSecret resolves the secret using the wrapped function.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// SecretError describes failures while resolving a secret reference.
type SecretError struct {
	Ref string
	Err error
}

// Error implements the error interface.
func (e *SecretError) Error() string {
	return fmt.Sprintf("secret resolution failed for ref %q: %v", e.Ref, e.Err)
}

// Unwrap exposes the underlying error.
func (e *SecretError) Unwrap() error { return e.Err }

// MissingSecretsError indicates that one or more required secrets failed to resolve.
type MissingSecretsError struct {
	names []string
}

// Error implements the error interface.
func (e *MissingSecretsError) Error() string {
	if e == nil || len(e.names) == 0 {
		return "missing required secrets"
	}
	return fmt.Sprintf("missing required secrets [%s]", strings.Join(e.RedactedNames(), ", "))
}

// RedactedNames returns hashed secret identifiers safe for logging.
func (e *MissingSecretsError) RedactedNames() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.names))
	for _, name := range e.names {
		out = append(out, redactSecretName(name))
	}
	sort.Strings(out)
	return out
}

// Names returns the underlying secret identifiers.
func (e *MissingSecretsError) Names() []string {
	if e == nil {
		return nil
	}
	out := make([]string, len(e.names))
	copy(out, e.names)
	sort.Strings(out)
	return out
}

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile         string
	envMap          map[string]string
	useSystemEnv    bool
	secret          SecretResolver
	requiredSecrets []string
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map. Values in the map take precedence over the system environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// WithSecretResolver sets the resolver used for sm:// and secret:// references.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) {
		o.secret = resolver
	}
}

// WithRequiredSecrets marks config fields (e.g. "Gemini.APIKey") that must resolve to a non-empty value.
func WithRequiredSecrets(names ...string) Option {
	return func(o *loaderOptions) {
		o.requiredSecrets = append(o.requiredSecrets, names...)
	}
}

// EnvironmentValues returns the effective environment after applying Load's precedence rules
// (dotenv < OS env < explicit map), so callers can build dependencies such as the secret fetcher first.
func EnvironmentValues(opts ...Option) (map[string]string, error) {
	options := newLoaderOptions(opts)

	values, err := loadDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = make(map[string]string)
	}
	if options.useSystemEnv {
		for _, entry := range os.Environ() {
			key, value, ok := strings.Cut(entry, "=")
			if !ok || strings.TrimSpace(key) == "" {
				continue
			}
			values[strings.TrimSpace(key)] = value
		}
	}
	for key, value := range options.envMap {
		values[key] = value
	}
	return values, nil
}

// Load assembles the application configuration from defaults, .env overrides, environment variables,
// and secret manager lookups.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := newLoaderOptions(opts)

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if value, ok := options.envMap[key]; ok {
			return value, true
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		value, ok := dotEnvValues[key]
		return value, ok
	}

	cfg := Config{
		Server: ServerConfig{
			Port:               stringWithDefault(lookup, "API_SERVER_PORT", defaultPort),
			ReadTimeout:        durationWithDefault(lookup, "API_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:       durationWithDefault(lookup, "API_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:        durationWithDefault(lookup, "API_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			HealthCheckTimeout: durationWithDefault(lookup, "API_SERVER_HEALTH_CHECK_TIMEOUT", defaultHealthCheckTimeout),
		},
		Firebase: FirebaseConfig{
			ProjectID:       stringWithDefault(lookup, "API_FIREBASE_PROJECT_ID", ""),
			CredentialsFile: stringWithDefault(lookup, "API_FIREBASE_CREDENTIALS_FILE", ""),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "API_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "API_FIRESTORE_EMULATOR_HOST", ""),
			DialTimeout:  durationWithDefault(lookup, "API_FIRESTORE_DIAL_TIMEOUT", defaultFirestoreDialTimeout),
		},
		Storage: StorageConfig{
			AssetsBucket:  stringWithDefault(lookup, "API_STORAGE_ASSETS_BUCKET", ""),
			PublicBaseURL: strings.TrimRight(stringWithDefault(lookup, "API_STORAGE_PUBLIC_BASE_URL", defaultPublicBaseURL), "/"),
		},
		Gemini: GeminiConfig{
			APIKey:     stringWithDefault(lookup, "API_GEMINI_API_KEY", ""),
			TextModel:  stringWithDefault(lookup, "API_GEMINI_TEXT_MODEL", defaultGeminiTextModel),
			ImageModel: stringWithDefault(lookup, "API_GEMINI_IMAGE_MODEL", defaultGeminiImageModel),
			Timeout:    durationWithDefault(lookup, "API_GEMINI_TIMEOUT", defaultGeminiTimeout),
		},
		Generation: GenerationConfig{
			ImageStagger:  durationWithDefault(lookup, "API_GENERATION_IMAGE_STAGGER", defaultImageStagger),
			FallbackImage: stringWithDefault(lookup, "API_GENERATION_FALLBACK_IMAGE", defaultFallbackImage),
			TaskTimeout:   durationWithDefault(lookup, "API_GENERATION_TASK_TIMEOUT", defaultTaskTimeout),
		},
		RateLimits: RateLimitConfig{
			DailyLimit:      intWithDefault(lookup, "API_RATELIMIT_DAILY_LIMIT", defaultDailyLimit),
			Backend:         strings.ToLower(stringWithDefault(lookup, "API_RATELIMIT_BACKEND", defaultRateLimitBackend)),
			RedisAddr:       stringWithDefault(lookup, "API_REDIS_ADDR", ""),
			RedisPassword:   stringWithDefault(lookup, "API_REDIS_PASSWORD", ""),
			PublicPerMinute: intWithDefault(lookup, "API_RATELIMIT_PUBLIC_PER_MIN", defaultPublicPerMinute),
			TxAttempts:      intWithDefault(lookup, "API_RATELIMIT_TX_ATTEMPTS", defaultRateLimitTxAttempts),
			TxTimeout:       durationWithDefault(lookup, "API_RATELIMIT_TX_TIMEOUT", defaultRateLimitTxTimeout),
		},
		Leads: LeadsConfig{
			BaseURL: strings.TrimRight(stringWithDefault(lookup, "API_LEADS_BASE_URL", defaultLeadsBaseURL), "/"),
			Timeout: durationWithDefault(lookup, "API_LEADS_TIMEOUT", defaultHTTPClientTimeout),
		},
		Pipeline: PipelineConfig{
			BaseURL: strings.TrimRight(stringWithDefault(lookup, "API_PIPELINE_BASE_URL", ""), "/"),
			Timeout: durationWithDefault(lookup, "API_PIPELINE_TIMEOUT", defaultHTTPClientTimeout),
		},
		Mail: MailConfig{
			Region:       stringWithDefault(lookup, "API_MAIL_REGION", defaultMailRegion),
			Sender:       stringWithDefault(lookup, "API_MAIL_SENDER", ""),
			SalesAddress: stringWithDefault(lookup, "API_MAIL_SALES_ADDRESS", defaultSalesAddress),
			AdminAddress: stringWithDefault(lookup, "API_MAIL_ADMIN_ADDRESS", ""),
		},
		Events: EventsConfig{
			Topic: stringWithDefault(lookup, "API_EVENTS_TOPIC", ""),
		},
		Trends: TrendsConfig{
			ProjectID: stringWithDefault(lookup, "API_TRENDS_PROJECT_ID", ""),
			CacheTTL:  durationWithDefault(lookup, "API_TRENDS_CACHE_TTL", defaultTrendsCacheTTL),
		},
		Brands: BrandsConfig{
			ProjectID: stringWithDefault(lookup, "API_BRANDS_PROJECT_ID", defaultBrandsProjectID),
			CacheTTL:  durationWithDefault(lookup, "API_BRANDS_CACHE_TTL", defaultBrandsCacheTTL),
		},
		Retention: RetentionConfig{
			Window: durationWithDefault(lookup, "API_RETENTION_WINDOW", defaultRetentionWindow),
		},
		Security: SecurityConfig{
			Environment: strings.ToLower(stringWithDefault(lookup, "API_SECURITY_ENVIRONMENT", defaultSecurityEnvironment)),
			OIDC: OIDCConfig{
				JWKSURL:     stringWithDefault(lookup, "API_SECURITY_OIDC_JWKS_URL", defaultOIDCJWKSURL),
				JWKSTimeout: durationWithDefault(lookup, "API_SECURITY_OIDC_JWKS_TIMEOUT", defaultJWKSTimeout),
				Audience:    stringWithDefault(lookup, "API_SECURITY_OIDC_AUDIENCE", ""),
				Audiences:   mapWithDefault(lookup, "API_SECURITY_OIDC_AUDIENCES"),
				Issuers:     csvWithDefault(lookup, "API_SECURITY_OIDC_ISSUERS"),
			},
			DashboardRoles:      csvWithDefault(lookup, "API_SECURITY_DASHBOARD_ROLES"),
			RoleClaim:           stringWithDefault(lookup, "API_SECURITY_ROLE_CLAIM", defaultRoleClaim),
			VerificationTimeout: durationWithDefault(lookup, "API_SECURITY_VERIFY_TIMEOUT", defaultVerifyTimeout),
		},
		Idempotency: IdempotencyConfig{
			Header:           stringWithDefault(lookup, "API_IDEMPOTENCY_HEADER", defaultIdempotencyHeader),
			TTL:              durationWithDefault(lookup, "API_IDEMPOTENCY_TTL", defaultIdempotencyTTL),
			CleanupInterval:  durationWithDefault(lookup, "API_IDEMPOTENCY_CLEANUP_INTERVAL", defaultIdempotencyInterval),
			CleanupBatchSize: intWithDefault(lookup, "API_IDEMPOTENCY_CLEANUP_BATCH", defaultIdempotencyBatchSize),
		},
	}

	if cfg.Firestore.ProjectID == "" {
		cfg.Firestore.ProjectID = cfg.Firebase.ProjectID
	}
	if cfg.Trends.ProjectID == "" {
		cfg.Trends.ProjectID = cfg.Firestore.ProjectID
	}
	if cfg.Mail.AdminAddress == "" {
		cfg.Mail.AdminAddress = cfg.Mail.Sender
	}
	if len(cfg.Security.OIDC.Issuers) == 0 {
		cfg.Security.OIDC.Issuers = []string{defaultSecurityIssuer, defaultSecurityIAPIssuer}
	}
	if len(cfg.Security.DashboardRoles) == 0 {
		cfg.Security.DashboardRoles = []string{"staff", "admin"}
	}
	if cfg.Security.OIDC.Audience == "" {
		if audience, ok := cfg.Security.OIDC.Audiences[cfg.Security.Environment]; ok {
			cfg.Security.OIDC.Audience = audience
		}
	}

	resolved := make(map[string]string)
	secretFields := []struct {
		name  string
		field *string
	}{
		{"Gemini.APIKey", &cfg.Gemini.APIKey},
		{"RateLimits.RedisPassword", &cfg.RateLimits.RedisPassword},
	}
	for _, target := range secretFields {
		value, err := resolveSecret(ctx, *target.field, options.secret)
		if err != nil {
			return Config{}, err
		}
		*target.field = value
		resolved[target.name] = strings.TrimSpace(value)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	if missing := findMissingSecrets(options.requiredSecrets, resolved); missing != nil {
		return Config{}, missing
	}

	return cfg, nil
}

func newLoaderOptions(opts []Option) loaderOptions {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
		secret: SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
			return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
		}),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func resolveSecret(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	if value == "" || !isSecretReference(value) {
		return value, nil
	}
	normalized := normalizeSecretReference(value)
	if resolver == nil {
		return "", &SecretError{Ref: normalized, Err: errSecretResolverNotConfigured}
	}
	secret, err := resolver.ResolveSecret(ctx, normalized)
	if err != nil {
		return "", &SecretError{Ref: normalized, Err: err}
	}
	return secret, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.Firebase.ProjectID == "" {
		missing = append(missing, "Firebase.ProjectID")
	}
	if cfg.Firestore.ProjectID == "" {
		missing = append(missing, "Firestore.ProjectID")
	}
	if cfg.Storage.AssetsBucket == "" {
		missing = append(missing, "Storage.AssetsBucket")
	}
	if cfg.Gemini.TextModel == "" || cfg.Gemini.ImageModel == "" {
		missing = append(missing, "Gemini.Models")
	}
	if cfg.Generation.ImageStagger < 0 {
		missing = append(missing, "Generation.ImageStagger")
	}
	if cfg.Generation.TaskTimeout <= 0 {
		missing = append(missing, "Generation.TaskTimeout")
	}
	if cfg.RateLimits.DailyLimit <= 0 {
		missing = append(missing, "RateLimits.DailyLimit")
	}
	switch cfg.RateLimits.Backend {
	case "firestore":
	case "redis":
		if cfg.RateLimits.RedisAddr == "" {
			missing = append(missing, "RateLimits.RedisAddr")
		}
	default:
		missing = append(missing, "RateLimits.Backend")
	}
	if cfg.Leads.BaseURL == "" {
		missing = append(missing, "Leads.BaseURL")
	}
	if cfg.Retention.Window <= 0 {
		missing = append(missing, "Retention.Window")
	}
	if strings.TrimSpace(cfg.Idempotency.Header) == "" {
		missing = append(missing, "Idempotency.Header")
	}
	if cfg.Idempotency.TTL <= 0 {
		missing = append(missing, "Idempotency.TTL")
	}
	if cfg.Idempotency.CleanupBatchSize <= 0 {
		missing = append(missing, "Idempotency.CleanupBatchSize")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func findMissingSecrets(required []string, resolved map[string]string) *MissingSecretsError {
	var names []string
	seen := make(map[string]struct{})
	for _, name := range required {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		if resolved[trimmed] == "" {
			names = append(names, trimmed)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return &MissingSecretsError{names: names}
}

func isSecretReference(value string) bool {
	trimmed := strings.TrimSpace(value)
	return strings.HasPrefix(trimmed, "secret://") || strings.HasPrefix(trimmed, "sm://")
}

func normalizeSecretReference(value string) string {
	trimmed := strings.TrimSpace(value)
	if rest, ok := strings.CutPrefix(trimmed, "sm://"); ok {
		return "secret://" + rest
	}
	return trimmed
}

func redactSecretName(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:8])
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	values, err := godotenv.Read(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func mapWithDefault(lookup func(string) (string, bool), key string) map[string]string {
	values := make(map[string]string)
	raw, ok := lookup(key)
	if !ok {
		return values
	}
	for _, entry := range strings.Split(raw, ",") {
		name, value, found := strings.Cut(strings.TrimSpace(entry), "=")
		if !found {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		if name == "" || value == "" {
			continue
		}
		values[name] = value
	}
	return values
}
