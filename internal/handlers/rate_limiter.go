package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/Teletobimy/landingpage-irunica/internal/platform/httpx"
)

type rateLimiter interface {
	Allow(key string) bool
}

// tokenBucketLimiter keeps one token bucket per caller. Idle buckets expire after the window.
type tokenBucketLimiter struct {
	limit   rate.Limit
	burst   int
	window  time.Duration
	clock   func() time.Time
	mu      sync.Mutex
	buckets *gocache.Cache
}

func newTokenBucketLimiter(limit int, window time.Duration, clock func() time.Time) rateLimiter {
	if limit <= 0 || window <= 0 {
		return nil
	}
	if clock == nil {
		clock = time.Now
	}
	return &tokenBucketLimiter{
		limit:   rate.Limit(float64(limit) / window.Seconds()),
		burst:   limit,
		window:  window,
		clock:   clock,
		buckets: gocache.New(window, 2*window),
	}
}

func (l *tokenBucketLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "anonymous"
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	var bucket *rate.Limiter
	if cached, ok := l.buckets.Get(key); ok {
		bucket = cached.(*rate.Limiter)
	} else {
		bucket = rate.NewLimiter(l.limit, l.burst)
	}
	// Refresh the expiry so active callers keep their bucket.
	l.buckets.SetDefault(key, bucket)
	return bucket.AllowN(l.clock(), 1)
}

// Throttle returns middleware that answers 429 once a caller IP exceeds perMinute requests.
// A non-positive perMinute disables throttling.
func Throttle(perMinute int) func(http.Handler) http.Handler {
	return throttleWith(newTokenBucketLimiter(perMinute, time.Minute, nil), time.Minute)
}

func throttleWith(limiter rateLimiter, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(callerIP(r)) {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				httpx.WriteError(r.Context(), w, httpx.NewError("rate_limited", "too many requests", http.StatusTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
