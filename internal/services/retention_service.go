package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Teletobimy/landingpage-irunica/internal/repositories"
)

const (
	defaultRetentionWindow = 90 * 24 * time.Hour
	counterRetention       = 2 * 24 * time.Hour
)

// RetentionServiceDeps wires the retention sweep.
type RetentionServiceDeps struct {
	LeadAssets repositories.LeadAssetRepository
	RateLimits repositories.RateLimitRepository
	Window     time.Duration
	Clock      func() time.Time
	Logger     func(ctx context.Context, event string, fields map[string]any)
}

type retentionService struct {
	leadAssets repositories.LeadAssetRepository
	rateLimits repositories.RateLimitRepository
	window     time.Duration
	clock      func() time.Time
	logger     func(context.Context, string, map[string]any)
}

var _ RetentionService = (*retentionService)(nil)

// NewRetentionService constructs the retention sweep.
func NewRetentionService(deps RetentionServiceDeps) (RetentionService, error) {
	if deps.LeadAssets == nil {
		return nil, errors.New("retention service: lead asset repository is required")
	}
	if deps.RateLimits == nil {
		return nil, errors.New("retention service: rate limit repository is required")
	}
	window := deps.Window
	if window <= 0 {
		window = defaultRetentionWindow
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &retentionService{
		leadAssets: deps.LeadAssets,
		rateLimits: deps.RateLimits,
		window:     window,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: loggerOrNop(deps.Logger),
	}, nil
}

// Sweep deletes cache records older than the window and counters older than two days. Both
// deletions run even if the first fails; the report carries whatever was deleted.
func (s *retentionService) Sweep(ctx context.Context) (RetentionReport, error) {
	now := s.clock()
	report := RetentionReport{Cutoff: now.Add(-s.window)}

	var errs []error
	deleted, err := s.leadAssets.DeleteUpdatedBefore(ctx, report.Cutoff)
	report.LeadAssetsDeleted = deleted
	if err != nil {
		errs = append(errs, fmt.Errorf("retention: lead assets: %w", err))
	}

	counters, err := s.rateLimits.DeleteBefore(ctx, now.Add(-counterRetention))
	report.CountersDeleted = counters
	if err != nil {
		errs = append(errs, fmt.Errorf("retention: rate limits: %w", err))
	}

	report.CompletedAt = s.clock()
	fields := map[string]any{
		"cutoff":            report.Cutoff,
		"leadAssetsDeleted": report.LeadAssetsDeleted,
		"countersDeleted":   report.CountersDeleted,
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		fields["error"] = err
		s.logger(ctx, "retention.sweep.failed", fields)
		return report, err
	}
	s.logger(ctx, "retention.sweep.completed", fields)
	return report, nil
}
