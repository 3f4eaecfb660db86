package repositories

import (
	"context"
	"errors"
	"time"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// IsNotFound reports whether err is a RepositoryError describing a missing entity.
func IsNotFound(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

// LeadAssetRepository is the per-lead generation cache.
type LeadAssetRepository interface {
	// Get returns nil without error when no record exists for leadID.
	Get(ctx context.Context, leadID string) (*domain.LeadAssetRecord, error)
	// Put merges record into the cache entry keyed by record.LeadID and stamps updatedAt.
	Put(ctx context.Context, record domain.LeadAssetRecord) error
	DeleteUpdatedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// RateLimitRepository counts generation requests per caller and calendar day.
type RateLimitRepository interface {
	// Consume increments the counter for (callerIP, day) unless it already reached limit.
	Consume(ctx context.Context, callerIP string, day time.Time, limit int) (domain.RateLimitCounter, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// VisitorLogRepository appends landing page views.
type VisitorLogRepository interface {
	Append(ctx context.Context, entry domain.VisitorLog) error
}

// TrendRepository reads trend analysis documents.
type TrendRepository interface {
	Latest(ctx context.Context, trendType domain.TrendType) (domain.TrendReport, error)
}

// BrandRepository lists partner brands.
type BrandRepository interface {
	List(ctx context.Context) ([]domain.Brand, error)
}

// HealthRepository reports dependency health for readiness checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
