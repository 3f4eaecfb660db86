package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
)

type notFoundError struct{}

func (notFoundError) Error() string       { return "not found" }
func (notFoundError) IsNotFound() bool    { return true }
func (notFoundError) IsConflict() bool    { return false }
func (notFoundError) IsUnavailable() bool { return false }

type stubTrendRepository struct {
	reports map[domain.TrendType]domain.TrendReport
	err     error
	calls   int
}

func (s *stubTrendRepository) Latest(_ context.Context, trendType domain.TrendType) (domain.TrendReport, error) {
	s.calls++
	if s.err != nil {
		return domain.TrendReport{}, s.err
	}
	report, ok := s.reports[trendType]
	if !ok {
		return domain.TrendReport{}, notFoundError{}
	}
	return report, nil
}

type stubBrandRepository struct {
	brands []domain.Brand
	err    error
	calls  int
}

func (s *stubBrandRepository) List(context.Context) ([]domain.Brand, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.Brand(nil), s.brands...), nil
}

func TestTrendServiceLatest(t *testing.T) {
	repo := &stubTrendRepository{reports: map[domain.TrendType]domain.TrendReport{
		domain.TrendCategory: {ID: "t1", Type: domain.TrendCategory, Data: map[string]any{"top": "serum"}},
	}}
	svc, err := NewTrendService(TrendServiceDeps{Repository: repo})
	if err != nil {
		t.Fatalf("NewTrendService: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		report, err := svc.Latest(ctx, domain.TrendCategory)
		if err != nil {
			t.Fatalf("Latest: %v", err)
		}
		if report.ID != "t1" {
			t.Fatalf("unexpected report %+v", report)
		}
	}
	if repo.calls != 1 {
		t.Fatalf("expected one repository read, got %d", repo.calls)
	}

	if _, err := svc.Latest(ctx, domain.TrendColor); !errors.Is(err, ErrTrendNotFound) {
		t.Fatalf("expected ErrTrendNotFound, got %v", err)
	}
	if _, err := svc.Latest(ctx, domain.TrendType("texture")); !errors.Is(err, ErrUnknownTrendType) {
		t.Fatalf("expected ErrUnknownTrendType, got %v", err)
	}

	repo.err = errors.New("unavailable")
	if _, err := svc.Latest(ctx, domain.TrendColor); err == nil || errors.Is(err, ErrTrendNotFound) {
		t.Fatalf("expected a read error, got %v", err)
	}
}

func TestBrandServiceFiltersAndSorts(t *testing.T) {
	repo := &stubBrandRepository{brands: []domain.Brand{
		{Name: "zeta", ImageURL: "https://cdn/z.png"},
		{Name: "Alpha", ImageURL: "https://cdn/a.png", Description: " first "},
		{Name: "", ImageURL: "https://cdn/none.png"},
		{Name: "NoImage"},
		{Name: "beta", ImageURL: "https://cdn/b.png"},
	}}
	svc, err := NewBrandService(BrandServiceDeps{Repository: repo})
	if err != nil {
		t.Fatalf("NewBrandService: %v", err)
	}

	brands, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(brands) != 3 {
		t.Fatalf("expected three brands, got %+v", brands)
	}
	if brands[0].Name != "Alpha" || brands[1].Name != "beta" || brands[2].Name != "zeta" {
		t.Fatalf("unexpected order %+v", brands)
	}
	if brands[0].Description != "first" {
		t.Fatalf("expected trimmed description, got %q", brands[0].Description)
	}
}

func TestBrandServiceServesStaleOnError(t *testing.T) {
	now := time.Date(2025, 5, 4, 9, 0, 0, 0, time.UTC)
	repo := &stubBrandRepository{brands: []domain.Brand{{Name: "Alpha", ImageURL: "https://cdn/a.png"}}}
	svc, err := NewBrandService(BrandServiceDeps{Repository: repo, CacheTTL: time.Hour, Clock: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("NewBrandService: %v", err)
	}
	ctx := context.Background()

	if _, err := svc.List(ctx); err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, err := svc.List(ctx); err != nil || repo.calls != 1 {
		t.Fatalf("expected fresh cache hit, calls=%d err=%v", repo.calls, err)
	}

	now = now.Add(2 * time.Hour)
	repo.err = errors.New("permission denied")
	brands, err := svc.List(ctx)
	if err != nil || len(brands) != 1 {
		t.Fatalf("expected stale brands, got %+v %v", brands, err)
	}
	if repo.calls != 2 {
		t.Fatalf("expected a refresh attempt, got %d calls", repo.calls)
	}
}

func TestBrandServiceUnavailableWithoutCache(t *testing.T) {
	svc, err := NewBrandService(BrandServiceDeps{Repository: &stubBrandRepository{err: errors.New("boom")}})
	if err != nil {
		t.Fatalf("NewBrandService: %v", err)
	}
	if _, err := svc.List(context.Background()); !errors.Is(err, ErrBrandsUnavailable) {
		t.Fatalf("expected ErrBrandsUnavailable, got %v", err)
	}
}

type sweepLeadAssets struct {
	memoryLeadAssets
	cutoff  time.Time
	deleted int
	err     error
}

func (s *sweepLeadAssets) DeleteUpdatedBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.cutoff = cutoff
	return s.deleted, s.err
}

type sweepRateLimits struct {
	memoryRateLimits
	cutoff  time.Time
	deleted int
	err     error
}

func (s *sweepRateLimits) DeleteBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.cutoff = cutoff
	return s.deleted, s.err
}

func TestRetentionSweep(t *testing.T) {
	now := time.Date(2025, 5, 4, 3, 0, 0, 0, time.UTC)
	assets := &sweepLeadAssets{deleted: 4}
	limits := &sweepRateLimits{deleted: 12}
	svc, err := NewRetentionService(RetentionServiceDeps{
		LeadAssets: assets,
		RateLimits: limits,
		Window:     30 * 24 * time.Hour,
		Clock:      func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewRetentionService: %v", err)
	}

	report, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.LeadAssetsDeleted != 4 || report.CountersDeleted != 12 {
		t.Fatalf("unexpected report %+v", report)
	}
	if !assets.cutoff.Equal(now.Add(-30 * 24 * time.Hour)) {
		t.Fatalf("unexpected lead asset cutoff %s", assets.cutoff)
	}
	if !limits.cutoff.Equal(now.Add(-48 * time.Hour)) {
		t.Fatalf("unexpected counter cutoff %s", limits.cutoff)
	}
}

func TestRetentionSweepContinuesAfterFailure(t *testing.T) {
	assets := &sweepLeadAssets{err: errors.New("deadline exceeded")}
	limits := &sweepRateLimits{deleted: 3}
	svc, err := NewRetentionService(RetentionServiceDeps{LeadAssets: assets, RateLimits: limits})
	if err != nil {
		t.Fatalf("NewRetentionService: %v", err)
	}

	report, err := svc.Sweep(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if report.CountersDeleted != 3 {
		t.Fatalf("expected counters swept despite failure, got %+v", report)
	}
}
