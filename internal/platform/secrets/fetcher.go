package secrets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/joho/godotenv"
	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultFallbackPath = ".secrets.local"
	defaultCacheTTL     = 10 * time.Minute
	meterName           = "github.com/Teletobimy/landingpage-irunica/internal/platform/secrets"
)

// SecretManagerClient is the subset of the Secret Manager client used by Fetcher.
type SecretManagerClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// Fetcher resolves secret://name[?version=N&project=P] references against Secret Manager.
// Values are cached. A local dotenv file keyed by secret name serves as fallback when the API
// is unreachable or no project is configured.
type Fetcher struct {
	client     SecretManagerClient
	ownsClient bool
	projectID  string
	logger     *zap.Logger

	cache *gocache.Cache

	fallbackPath string
	fallbackOnce sync.Once
	fallback     map[string]string

	latency metric.Float64Histogram
}

type fetcherConfig struct {
	logger       *zap.Logger
	projectID    string
	fallbackPath string
	cacheTTL     time.Duration
	client       SecretManagerClient
	clientOpts   []option.ClientOption
}

// Option customises Fetcher construction.
type Option func(*fetcherConfig)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *fetcherConfig) { cfg.logger = logger }
}

// WithDefaultProject sets the project used when a reference does not name one.
func WithDefaultProject(projectID string) Option {
	return func(cfg *fetcherConfig) { cfg.projectID = strings.TrimSpace(projectID) }
}

// WithFallbackFile overrides the local fallback file. An empty path disables fallback.
func WithFallbackFile(path string) Option {
	return func(cfg *fetcherConfig) { cfg.fallbackPath = path }
}

// WithCacheTTL overrides how long resolved values are reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(cfg *fetcherConfig) {
		if ttl > 0 {
			cfg.cacheTTL = ttl
		}
	}
}

// WithSecretManagerClient injects a client instead of dialing one.
func WithSecretManagerClient(client SecretManagerClient) Option {
	return func(cfg *fetcherConfig) { cfg.client = client }
}

// WithClientOptions forwards options to the Secret Manager client.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(cfg *fetcherConfig) { cfg.clientOpts = append(cfg.clientOpts, opts...) }
}

// NewFetcher constructs a Fetcher. A Secret Manager client that cannot be created is
// logged and the fetcher serves fallback values only.
func NewFetcher(ctx context.Context, opts ...Option) (*Fetcher, error) {
	cfg := fetcherConfig{
		logger:       zap.NewNop(),
		fallbackPath: defaultFallbackPath,
		cacheTTL:     defaultCacheTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	f := &Fetcher{
		client:       cfg.client,
		projectID:    cfg.projectID,
		logger:       cfg.logger,
		cache:        gocache.New(cfg.cacheTTL, 2*cfg.cacheTTL),
		fallbackPath: strings.TrimSpace(cfg.fallbackPath),
	}

	latency, err := otel.GetMeterProvider().Meter(meterName).Float64Histogram("secrets.fetch.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency in milliseconds for secret resolution"),
	)
	if err != nil {
		cfg.logger.Warn("secrets: unable to register latency metric", zap.Error(err))
	} else {
		f.latency = latency
	}

	if f.client == nil {
		client, err := secretmanager.NewClient(ctx, cfg.clientOpts...)
		if err != nil {
			cfg.logger.Warn("secrets: secret manager client unavailable; using fallback file only", zap.Error(err))
		} else {
			f.client = client
			f.ownsClient = true
		}
	}
	return f, nil
}

// Close releases the Secret Manager client when the fetcher created it.
func (f *Fetcher) Close() error {
	if f.ownsClient && f.client != nil {
		return f.client.Close()
	}
	return nil
}

// Resolve returns the value behind ref.
func (f *Fetcher) Resolve(ctx context.Context, ref string) (string, error) {
	start := time.Now()
	parsed, err := parseReference(ref)
	if err != nil {
		return "", err
	}

	if value, ok := f.cache.Get(parsed.cacheKey()); ok {
		f.record(ctx, start, "cache")
		return value.(string), nil
	}

	projectID := parsed.Project
	if projectID == "" {
		projectID = f.projectID
	}
	if projectID != "" && f.client != nil {
		name := fmt.Sprintf("projects/%s/secrets/%s/versions/%s", projectID, parsed.Secret, parsed.Version)
		resp, err := f.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
		switch {
		case err == nil && resp.GetPayload() != nil:
			value := string(resp.GetPayload().GetData())
			f.cache.SetDefault(parsed.cacheKey(), value)
			f.record(ctx, start, "remote")
			return value, nil
		case err == nil:
			return "", fmt.Errorf("secrets: empty payload for %s", parsed.Secret)
		case !fallbackEligible(err):
			f.record(ctx, start, "error")
			return "", fmt.Errorf("secrets: fetch %s: %w", parsed.Secret, err)
		}
		f.logger.Debug("secrets: falling back to local file", zap.String("secret", parsed.Secret), zap.Error(err))
	}

	value, ok := f.lookupFallback(parsed)
	if !ok {
		f.record(ctx, start, "error")
		return "", fmt.Errorf("secrets: no value for %s", parsed.Secret)
	}
	f.cache.SetDefault(parsed.cacheKey(), value)
	f.record(ctx, start, "fallback")
	return value, nil
}

// Invalidate drops a cached value so the next Resolve refetches it.
func (f *Fetcher) Invalidate(ref string) {
	if parsed, err := parseReference(ref); err == nil {
		f.cache.Delete(parsed.cacheKey())
	}
}

func (f *Fetcher) lookupFallback(ref reference) (string, bool) {
	f.fallbackOnce.Do(func() {
		f.fallback = map[string]string{}
		if f.fallbackPath == "" {
			return
		}
		values, err := godotenv.Read(f.fallbackPath)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				f.logger.Warn("secrets: unable to read fallback file", zap.String("path", f.fallbackPath), zap.Error(err))
			}
			return
		}
		for key, value := range values {
			f.fallback[fallbackKey(key)] = value
		}
	})
	value, ok := f.fallback[fallbackKey(ref.Secret)]
	return value, ok
}

// fallbackKey folds a secret name onto dotenv key syntax, so gemini-api-key matches GEMINI_API_KEY.
func fallbackKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
}

func (f *Fetcher) record(ctx context.Context, start time.Time, source string) {
	if f.latency == nil {
		return
	}
	f.latency.Record(ctx, float64(time.Since(start))/float64(time.Millisecond),
		metric.WithAttributes(attribute.String("source", source)))
}

type reference struct {
	Secret  string
	Version string
	Project string
}

func (r reference) cacheKey() string {
	return r.Project + "/" + r.Secret + "@" + r.Version
}

// parseReference accepts secret://name and sm://name with optional version and project query parameters.
func parseReference(ref string) (reference, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return reference{}, errors.New("secrets: empty reference")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return reference{}, fmt.Errorf("secrets: invalid reference %q: %w", ref, err)
	}
	if u.Scheme != "secret" && u.Scheme != "sm" {
		return reference{}, fmt.Errorf("secrets: unsupported scheme %q", u.Scheme)
	}
	name := strings.Trim(u.Host+u.Path, "/")
	if name == "" {
		return reference{}, fmt.Errorf("secrets: missing secret name in %q", ref)
	}
	version := strings.TrimSpace(u.Query().Get("version"))
	if version == "" {
		version = "latest"
	}
	return reference{Secret: name, Version: version, Project: strings.TrimSpace(u.Query().Get("project"))}, nil
}

func fallbackEligible(err error) bool {
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated, codes.Unavailable, codes.DeadlineExceeded:
		return true
	}
	return false
}
