package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	jwt "github.com/golang-jwt/jwt/v4"
	"github.com/shouni/go-http-kit/pkg/httpkit"

	"github.com/Teletobimy/landingpage-irunica/internal/platform/httpx"
)

var (
	// ErrJWKSKeyNotFound is returned when the requested key ID is absent from the key set.
	ErrJWKSKeyNotFound = errors.New("auth: jwks key not found")
	// ErrJWKSFetchFailed wraps transport or decoding errors while refreshing the key set.
	ErrJWKSFetchFailed = errors.New("auth: jwks fetch failed")
)

const (
	defaultJWKSValidity = 15 * time.Minute
	defaultJWKSTimeout  = 5 * time.Second
)

// JWKSCache fetches a JSON Web Key Set on demand and keeps it until Cache-Control max-age expires.
// An unknown kid forces one refetch so key rotation is picked up early.
type JWKSCache struct {
	url    string
	client HTTPDoer
	now    func() time.Time

	mu     sync.Mutex
	keys   map[string]jose.JSONWebKey
	expiry time.Time
}

// HTTPDoer sends the key set request.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// JWKSOption customises a JWKSCache.
type JWKSOption func(*JWKSCache)

// WithJWKSHTTPClient overrides the HTTP client used to fetch keys.
func WithJWKSHTTPClient(client HTTPDoer) JWKSOption {
	return func(c *JWKSCache) {
		if client != nil {
			c.client = client
		}
	}
}

// WithJWKSClock overrides the clock used for expiry.
func WithJWKSClock(now func() time.Time) JWKSOption {
	return func(c *JWKSCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewJWKSCache constructs a cache for the key set at url.
func NewJWKSCache(url string, opts ...JWKSOption) *JWKSCache {
	c := &JWKSCache{
		url:    strings.TrimSpace(url),
		client: httpkit.New(defaultJWKSTimeout),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Key returns the public key for kid.
func (c *JWKSCache) Key(ctx context.Context, kid string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fresh := c.keys != nil && c.now().Before(c.expiry)
	if fresh {
		if jwk, ok := c.keys[kid]; ok {
			return jwk.Key, nil
		}
	}
	if err := c.refreshLocked(ctx); err != nil {
		return nil, err
	}
	if jwk, ok := c.keys[kid]; ok {
		return jwk.Key, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrJWKSKeyNotFound, kid)
}

// Keyfunc adapts the cache to jwt.Keyfunc.
func (c *JWKSCache) Keyfunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("auth: token header missing kid")
		}
		return c.Key(ctx, kid)
	}
}

func (c *JWKSCache) refreshLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrJWKSFetchFailed, resp.StatusCode)
	}

	var set jose.JSONWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("%w: decode jwks: %v", ErrJWKSFetchFailed, err)
	}
	keys := make(map[string]jose.JSONWebKey, len(set.Keys))
	for _, jwk := range set.Keys {
		if jwk.KeyID != "" && jwk.Valid() {
			keys[jwk.KeyID] = jwk
		}
	}
	if len(keys) == 0 {
		return fmt.Errorf("%w: empty key set", ErrJWKSFetchFailed)
	}

	validity := maxAge(resp.Header.Get("Cache-Control"))
	if validity <= 0 {
		validity = defaultJWKSValidity
	}
	c.keys = keys
	c.expiry = c.now().Add(validity)
	return nil
}

func maxAge(header string) time.Duration {
	for _, directive := range strings.Split(header, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(directive), "=")
		if !ok || !strings.EqualFold(name, "max-age") {
			continue
		}
		seconds, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || seconds <= 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	return 0
}

// ServiceIdentity describes the workload (Cloud Scheduler, IAP user) behind an OIDC-authenticated call.
type ServiceIdentity struct {
	Subject string
	Email   string
	Issuer  string
}

type serviceIdentityKey struct{}

// ServiceIdentityFromContext returns the identity stored by RequireOIDC.
func ServiceIdentityFromContext(ctx context.Context) (*ServiceIdentity, bool) {
	identity, ok := ctx.Value(serviceIdentityKey{}).(*ServiceIdentity)
	return identity, ok && identity != nil
}

// OIDCValidator verifies Google-signed ID tokens on internal routes.
type OIDCValidator struct {
	cache   *JWKSCache
	metrics MetricsRecorder
	now     func() time.Time
}

// NewOIDCValidator constructs a validator over cache. metrics may be nil.
func NewOIDCValidator(cache *JWKSCache, metrics MetricsRecorder) *OIDCValidator {
	return &OIDCValidator{cache: cache, metrics: metrics, now: time.Now}
}

// RequireOIDC accepts a bearer token or IAP assertion signed by the key set, issued by one of
// issuers and addressed to audience.
func (v *OIDCValidator) RequireOIDC(audience string, issuers []string) func(http.Handler) http.Handler {
	audience = strings.TrimSpace(audience)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := v.now()
			fail := func(status int, code, reason, message string) {
				v.record(ctx, false, reason, start)
				httpx.WriteError(ctx, w, httpx.NewError(code, message, status))
			}

			if audience == "" || v.cache == nil {
				fail(http.StatusServiceUnavailable, "verification_unavailable", "not_configured", "oidc verification unavailable")
				return
			}
			tokenStr := extractOIDCToken(r)
			if tokenStr == "" {
				fail(http.StatusUnauthorized, "unauthenticated", "token_missing", "oidc token missing")
				return
			}

			claims := jwt.MapClaims{}
			parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg(), jwt.SigningMethodES256.Alg()}))
			if _, err := parser.ParseWithClaims(tokenStr, claims, v.cache.Keyfunc(ctx)); err != nil {
				if errors.Is(err, ErrJWKSFetchFailed) {
					fail(http.StatusServiceUnavailable, "verification_unavailable", "jwks_unavailable", "oidc verification unavailable")
					return
				}
				fail(http.StatusUnauthorized, "invalid_token", "token_invalid", "oidc token verification failed")
				return
			}

			issuer, _ := claims["iss"].(string)
			if len(issuers) > 0 && !containsString(issuers, issuer) {
				fail(http.StatusUnauthorized, "invalid_token", "issuer_mismatch", "oidc issuer mismatch")
				return
			}
			if !claims.VerifyAudience(audience, true) {
				fail(http.StatusUnauthorized, "invalid_token", "audience_mismatch", "oidc audience mismatch")
				return
			}

			identity := &ServiceIdentity{Issuer: issuer}
			identity.Subject, _ = claims["sub"].(string)
			identity.Email, _ = claims["email"].(string)

			v.record(ctx, true, "ok", start)
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, serviceIdentityKey{}, identity)))
		})
	}
}

func (v *OIDCValidator) record(ctx context.Context, success bool, reason string, start time.Time) {
	if v.metrics != nil {
		v.metrics.RecordVerification(ctx, "oidc", success, reason, v.now().Sub(start))
	}
}

func extractOIDCToken(r *http.Request) string {
	if token, ok := extractBearerToken(r.Header.Get("Authorization")); ok {
		return token
	}
	return strings.TrimSpace(r.Header.Get("X-Goog-Iap-Jwt-Assertion"))
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if strings.TrimSpace(value) == target {
			return true
		}
	}
	return false
}
