package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"

	"github.com/Teletobimy/landingpage-irunica/internal/platform/httpx"
)

const (
	defaultRoleClaim     = "role"
	defaultVerifyTimeout = 5 * time.Second
)

// TokenVerifier verifies Firebase ID tokens. *firebaseauth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// MetricsRecorder records verification outcomes.
type MetricsRecorder interface {
	RecordVerification(ctx context.Context, kind string, success bool, reason string, duration time.Duration)
}

// Authenticator gates routes on a Firebase ID token carrying one of the allowed roles.
type Authenticator struct {
	verifier  TokenVerifier
	metrics   MetricsRecorder
	roleClaim string
	timeout   time.Duration
	now       func() time.Time
}

// Option customises Authenticator behaviour.
type Option func(*Authenticator)

// WithRoleClaim overrides the custom claim used for role extraction.
func WithRoleClaim(claim string) Option {
	return func(a *Authenticator) {
		if claim = strings.TrimSpace(claim); claim != "" {
			a.roleClaim = claim
		}
	}
}

// WithVerificationTimeout bounds each VerifyIDToken call.
func WithVerificationTimeout(d time.Duration) Option {
	return func(a *Authenticator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithMetrics records every verification outcome.
func WithMetrics(recorder MetricsRecorder) Option {
	return func(a *Authenticator) {
		a.metrics = recorder
	}
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(verifier TokenVerifier, opts ...Option) *Authenticator {
	a := &Authenticator{
		verifier:  verifier,
		roleClaim: defaultRoleClaim,
		timeout:   defaultVerifyTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// RequireRoles verifies the bearer token and rejects identities without any of roles.
func (a *Authenticator) RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()
			if a != nil {
				start = a.now()
			}

			tokenStr, ok := extractBearerToken(r.Header.Get("Authorization"))
			if !ok {
				a.record(ctx, false, "token_missing", start)
				httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authorization header missing or invalid", http.StatusUnauthorized))
				return
			}
			if a == nil || a.verifier == nil {
				httpx.WriteError(ctx, w, httpx.NewError("verification_unavailable", "authorization service unavailable", http.StatusServiceUnavailable))
				return
			}

			verifyCtx, cancel := context.WithTimeout(ctx, a.timeout)
			token, err := a.verifier.VerifyIDToken(verifyCtx, tokenStr)
			cancel()
			if err != nil {
				reason, message := "token_invalid", "firebase id token invalid"
				if firebaseauth.IsIDTokenExpired(err) {
					reason, message = "token_expired", "firebase id token expired"
				}
				a.record(ctx, false, reason, start)
				httpx.WriteError(ctx, w, httpx.NewError(reason, message, http.StatusUnauthorized))
				return
			}

			identity := &Identity{
				UID:   token.UID,
				Email: claimAsString(token.Claims, "email"),
				Roles: rolesFromClaims(token.Claims, a.roleClaim),
			}
			if !identity.HasAnyRole(roles...) {
				a.record(ctx, false, "insufficient_role", start)
				httpx.WriteError(ctx, w, httpx.NewError("forbidden", "identity does not have required role", http.StatusForbidden))
				return
			}

			a.record(ctx, true, "ok", start)
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
		})
	}
}

func (a *Authenticator) record(ctx context.Context, success bool, reason string, start time.Time) {
	if a == nil || a.metrics == nil {
		return
	}
	a.metrics.RecordVerification(ctx, "firebase", success, reason, a.now().Sub(start))
}

// rolesFromClaims accepts a single role string, a list, or a map of role flags.
func rolesFromClaims(claims map[string]any, key string) []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(role string) {
		role = normaliseRole(role)
		if role == "" {
			return
		}
		if _, ok := seen[role]; ok {
			return
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}

	switch v := claims[key].(type) {
	case string:
		add(v)
	case []string:
		for _, role := range v {
			add(role)
		}
	case []any:
		for _, item := range v {
			if role, ok := item.(string); ok {
				add(role)
			}
		}
	case map[string]any:
		for role, flag := range v {
			if enabled, ok := flag.(bool); ok && enabled {
				add(role)
			}
		}
	}
	return out
}

func claimAsString(claims map[string]any, key string) string {
	value, _ := claims[key].(string)
	return strings.TrimSpace(value)
}

func extractBearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
