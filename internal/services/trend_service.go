package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
	"github.com/Teletobimy/landingpage-irunica/internal/repositories"
)

const defaultTrendCacheTTL = time.Hour

var (
	// ErrTrendNotFound indicates no analysis has been written for the trend type yet.
	ErrTrendNotFound = errors.New("trends: no analysis available")
	// ErrUnknownTrendType indicates a trend type outside category and color.
	ErrUnknownTrendType = errors.New("trends: unknown trend type")
)

// TrendServiceDeps wires the trend service.
type TrendServiceDeps struct {
	Repository repositories.TrendRepository
	CacheTTL   time.Duration
	Logger     func(ctx context.Context, event string, fields map[string]any)
}

type trendService struct {
	repo   repositories.TrendRepository
	cache  *gocache.Cache
	logger func(context.Context, string, map[string]any)
}

var _ TrendService = (*trendService)(nil)

// NewTrendService constructs the trend service.
func NewTrendService(deps TrendServiceDeps) (TrendService, error) {
	if deps.Repository == nil {
		return nil, errors.New("trend service: repository is required")
	}
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = defaultTrendCacheTTL
	}
	return &trendService{
		repo:   deps.Repository,
		cache:  gocache.New(ttl, ttl),
		logger: loggerOrNop(deps.Logger),
	}, nil
}

func (s *trendService) Latest(ctx context.Context, trendType domain.TrendType) (TrendReport, error) {
	parsed, ok := domain.ParseTrendType(string(trendType))
	if !ok {
		return TrendReport{}, fmt.Errorf("%w: %q", ErrUnknownTrendType, trendType)
	}
	key := string(parsed)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(TrendReport), nil
	}

	report, err := s.repo.Latest(ctx, parsed)
	if err != nil {
		if repositories.IsNotFound(err) {
			return TrendReport{}, ErrTrendNotFound
		}
		s.logger(ctx, "trends.read.failed", map[string]any{"type": key, "error": err})
		return TrendReport{}, err
	}
	s.cache.SetDefault(key, report)
	return report, nil
}
