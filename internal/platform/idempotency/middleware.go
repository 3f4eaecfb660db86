package idempotency

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Teletobimy/landingpage-irunica/internal/platform/httpx"
	"github.com/Teletobimy/landingpage-irunica/internal/platform/requestctx"
)

const (
	defaultHeaderName = "Idempotency-Key"
	replayHeaderName  = "X-Idempotent-Replay"
)

type middlewareConfig struct {
	headerName string
	ttl        time.Duration
	logger     func(ctx context.Context, event string, fields map[string]any)
}

// MiddlewareOption customises middleware behaviour.
type MiddlewareOption func(*middlewareConfig)

// WithHeader overrides the header carrying the key.
func WithHeader(name string) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if name = strings.TrimSpace(name); name != "" {
			cfg.headerName = name
		}
	}
}

// WithTTL sets how long completed responses are replayed.
func WithTTL(ttl time.Duration) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if ttl > 0 {
			cfg.ttl = ttl
		}
	}
}

// WithLogger receives store failures.
func WithLogger(logger func(ctx context.Context, event string, fields map[string]any)) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		cfg.logger = logger
	}
}

// Middleware replays the stored response when a client retries a request with the same key.
// Requests without a key pass straight through. Keys are scoped to the caller IP. Server
// errors release the key so a retry runs the handler again.
func Middleware(store Store, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := middlewareConfig{headerName: defaultHeaderName, ttl: DefaultTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := strings.TrimSpace(r.Header.Get(cfg.headerName))
			if key == "" || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > 255 {
				httpx.WriteError(ctx, w, httpx.NewError("invalid_idempotency_key", "idempotency key too long", http.StatusBadRequest))
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, httpx.MaxBodyBytes))
			if err != nil {
				httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unable to read request body", http.StatusBadRequest))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			scoped := key + "|" + requestctx.ClientIP(ctx)
			fingerprint := sha256Hex([]byte(r.Method + "|" + r.URL.Path + "|" + sha256Hex(body)))
			now := time.Now()

			state, record, err := store.Reserve(ctx, scoped, fingerprint, now, cfg.ttl)
			switch {
			case errors.Is(err, ErrFingerprintMismatch):
				httpx.WriteError(ctx, w, httpx.NewError("idempotency_key_conflict", "idempotency key already used for a different request", http.StatusConflict))
				return
			case err != nil:
				cfg.log(ctx, "idempotency.reserve.failed", map[string]any{"error": err})
				next.ServeHTTP(w, r)
				return
			}

			switch state {
			case ReservationCompleted:
				if record.ContentType != "" {
					w.Header().Set("Content-Type", record.ContentType)
				}
				w.Header().Set(replayHeaderName, "true")
				w.WriteHeader(record.Status)
				_, _ = w.Write(record.Body)
				return
			case ReservationPending:
				httpx.WriteError(ctx, w, httpx.NewError("idempotency_in_progress", "another request is processing this idempotency key", http.StatusConflict))
				return
			}

			rec := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status >= http.StatusInternalServerError {
				if err := store.Release(ctx, scoped); err != nil {
					cfg.log(ctx, "idempotency.release.failed", map[string]any{"error": err})
				}
				return
			}
			record.Completed = true
			record.Status = rec.status
			record.ContentType = rec.Header().Get("Content-Type")
			record.Body = rec.body.Bytes()
			record.ExpiresAt = time.Now().Add(cfg.ttl)
			if err := store.Complete(ctx, scoped, record); err != nil {
				cfg.log(ctx, "idempotency.complete.failed", map[string]any{"error": err})
			}
		})
	}
}

func (cfg middlewareConfig) log(ctx context.Context, event string, fields map[string]any) {
	if cfg.logger != nil {
		cfg.logger(ctx, event, fields)
	}
}

// captureWriter streams the response to the client while keeping a copy for replay.
type captureWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (c *captureWriter) WriteHeader(status int) {
	if !c.wroteHeader {
		c.status = status
		c.wroteHeader = true
	}
	c.ResponseWriter.WriteHeader(status)
}

func (c *captureWriter) Write(p []byte) (int, error) {
	c.wroteHeader = true
	c.body.Write(p)
	return c.ResponseWriter.Write(p)
}
