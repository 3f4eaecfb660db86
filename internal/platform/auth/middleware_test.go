package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
)

type stubTokenVerifier struct {
	token    *firebaseauth.Token
	err      error
	received string
	deadline time.Time
}

func (s *stubTokenVerifier) VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error) {
	s.received = idToken
	s.deadline, _ = ctx.Deadline()
	if s.err != nil {
		return nil, s.err
	}
	return s.token, nil
}

func TestRequireRolesAllowsStaff(t *testing.T) {
	verifier := &stubTokenVerifier{token: &firebaseauth.Token{
		UID: "uid-123",
		Claims: map[string]any{
			"role":  []any{"Staff", "staff"},
			"email": "ops@irunica.com",
		},
	}}
	metrics := &recordingMetrics{}
	authn := NewAuthenticator(verifier, WithMetrics(metrics))

	var identity *Identity
	handler := authn.RequireRoles(RoleStaff, RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/status", nil)
	req.Header.Set("Authorization", "Bearer token-abc")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if verifier.received != "token-abc" {
		t.Fatalf("expected token to be forwarded, got %q", verifier.received)
	}
	if identity == nil || identity.UID != "uid-123" || identity.Email != "ops@irunica.com" {
		t.Fatalf("unexpected identity %+v", identity)
	}
	if len(identity.Roles) != 1 || identity.Roles[0] != RoleStaff {
		t.Fatalf("expected deduplicated roles, got %v", identity.Roles)
	}
	if metrics.last() != "ok" {
		t.Fatalf("expected ok metric, got %q", metrics.last())
	}
}

func TestRequireRolesHonoursConfiguredClaimAndTimeout(t *testing.T) {
	verifier := &stubTokenVerifier{token: &firebaseauth.Token{
		UID:    "uid-456",
		Claims: map[string]any{"role": "viewer", "irunica_roles": []any{"admin"}},
	}}
	authn := NewAuthenticator(verifier,
		WithRoleClaim(" irunica_roles "),
		WithVerificationTimeout(250*time.Millisecond),
	)

	called := false
	handler := authn.RequireRoles(RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/status", nil)
	req.Header.Set("Authorization", "Bearer token-abc")
	before := time.Now()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || !called {
		t.Fatalf("expected roles from the configured claim, got %d", rr.Code)
	}
	if verifier.deadline.IsZero() || verifier.deadline.After(before.Add(time.Second)) {
		t.Fatalf("expected verification deadline within the configured timeout, got %v", verifier.deadline)
	}
}

func TestRequireRolesRejections(t *testing.T) {
	cases := []struct {
		name     string
		header   string
		verifier *stubTokenVerifier
		status   int
		reason   string
	}{
		{name: "missing header", verifier: &stubTokenVerifier{}, status: http.StatusUnauthorized, reason: "token_missing"},
		{name: "wrong scheme", header: "Basic abc", verifier: &stubTokenVerifier{}, status: http.StatusUnauthorized, reason: "token_missing"},
		{name: "invalid token", header: "Bearer bad", verifier: &stubTokenVerifier{err: errors.New("bad signature")}, status: http.StatusUnauthorized, reason: "token_invalid"},
		{
			name:     "no role",
			header:   "Bearer ok",
			verifier: &stubTokenVerifier{token: &firebaseauth.Token{UID: "u", Claims: map[string]any{}}},
			status:   http.StatusForbidden,
			reason:   "insufficient_role",
		},
		{
			name:     "role map",
			header:   "Bearer ok",
			verifier: &stubTokenVerifier{token: &firebaseauth.Token{UID: "u", Claims: map[string]any{"role": map[string]any{"viewer": true, "staff": false}}}},
			status:   http.StatusForbidden,
			reason:   "insufficient_role",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			metrics := &recordingMetrics{}
			handler := NewAuthenticator(tc.verifier, WithMetrics(metrics)).RequireRoles(RoleStaff)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatalf("handler should not be called")
			}))
			req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/status", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			if metrics.last() != tc.reason {
				t.Fatalf("expected reason %s, got %s", tc.reason, metrics.last())
			}
		})
	}
}

func TestRolesFromClaimsShapes(t *testing.T) {
	if roles := rolesFromClaims(map[string]any{"role": " Admin "}, "role"); len(roles) != 1 || roles[0] != "admin" {
		t.Fatalf("unexpected roles %v", roles)
	}
	if roles := rolesFromClaims(map[string]any{"role": []string{"staff", "admin"}}, "role"); len(roles) != 2 {
		t.Fatalf("unexpected roles %v", roles)
	}
	if roles := rolesFromClaims(map[string]any{"role": 7}, "role"); roles != nil {
		t.Fatalf("expected no roles, got %v", roles)
	}
}
