package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Teletobimy/landingpage-irunica/internal/repositories"
)

const (
	unknownCaller = "unknown"

	rateLimitAllowed  = "allowed"
	rateLimitDenied   = "denied"
	rateLimitFailOpen = "fail_open"
)

// DailyRateLimiterDeps wires the daily generation quota.
type DailyRateLimiterDeps struct {
	Repository repositories.RateLimitRepository
	Limit      int
	Metrics    GenerationMetrics
	Clock      func() time.Time
	Logger     func(ctx context.Context, event string, fields map[string]any)
}

// DailyRateLimiter caps paid generations per caller IP and calendar day.
// Only a confirmed exceedance denies; any counter store failure allows the request.
type DailyRateLimiter struct {
	repo    repositories.RateLimitRepository
	limit   int
	metrics GenerationMetrics
	clock   func() time.Time
	logger  func(context.Context, string, map[string]any)
}

// NewDailyRateLimiter constructs the limiter.
func NewDailyRateLimiter(deps DailyRateLimiterDeps) (*DailyRateLimiter, error) {
	if deps.Repository == nil {
		return nil, errors.New("daily rate limiter: repository is required")
	}
	if deps.Limit <= 0 {
		return nil, errors.New("daily rate limiter: limit must be positive")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &DailyRateLimiter{
		repo:    deps.Repository,
		limit:   deps.Limit,
		metrics: metricsOrNop(deps.Metrics),
		clock:   clock,
		logger:  loggerOrNop(deps.Logger),
	}, nil
}

// Allow consumes one unit of the caller's quota for today.
func (l *DailyRateLimiter) Allow(ctx context.Context, callerIP string) bool {
	ip := strings.TrimSpace(callerIP)
	if ip == "" {
		ip = unknownCaller
	}
	counter, err := l.repo.Consume(ctx, ip, l.clock(), l.limit)
	if err != nil {
		l.metrics.ObserveRateLimit(rateLimitFailOpen)
		l.logger(ctx, "rate_limit.check.failed", map[string]any{
			"callerIp": ip,
			"error":    err,
		})
		return true
	}
	if !counter.Allowed {
		l.metrics.ObserveRateLimit(rateLimitDenied)
		l.logger(ctx, "rate_limit.denied", map[string]any{
			"callerIp": ip,
			"count":    counter.Count,
			"limit":    l.limit,
		})
		return false
	}
	l.metrics.ObserveRateLimit(rateLimitAllowed)
	return true
}
