package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Teletobimy/landingpage-irunica/internal/repositories"
)

const (
	defaultBrandCacheTTL = time.Hour
	brandCacheKey        = "brands"
	// stale entries are kept this long past their TTL to cover catalogue outages.
	brandStaleWindow = 24 * time.Hour
)

// ErrBrandsUnavailable indicates the catalogue could not be read and nothing is cached.
var ErrBrandsUnavailable = errors.New("brands: catalogue unavailable")

// BrandServiceDeps wires the brand service.
type BrandServiceDeps struct {
	Repository repositories.BrandRepository
	CacheTTL   time.Duration
	Clock      func() time.Time
	Logger     func(ctx context.Context, event string, fields map[string]any)
}

type brandEntry struct {
	brands    []Brand
	fetchedAt time.Time
}

type brandService struct {
	repo   repositories.BrandRepository
	ttl    time.Duration
	cache  *gocache.Cache
	clock  func() time.Time
	logger func(context.Context, string, map[string]any)
}

var _ BrandService = (*brandService)(nil)

// NewBrandService constructs the brand service.
func NewBrandService(deps BrandServiceDeps) (BrandService, error) {
	if deps.Repository == nil {
		return nil, errors.New("brand service: repository is required")
	}
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = defaultBrandCacheTTL
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &brandService{
		repo:   deps.Repository,
		ttl:    ttl,
		cache:  gocache.New(ttl+brandStaleWindow, time.Hour),
		clock:  clock,
		logger: loggerOrNop(deps.Logger),
	}, nil
}

// List serves the cached portfolio while it is fresh. A failed refresh falls back to the stale copy.
func (s *brandService) List(ctx context.Context) ([]Brand, error) {
	now := s.clock()
	var stale *brandEntry
	if cached, ok := s.cache.Get(brandCacheKey); ok {
		entry := cached.(brandEntry)
		if now.Sub(entry.fetchedAt) < s.ttl {
			return cloneBrands(entry.brands), nil
		}
		stale = &entry
	}

	raw, err := s.repo.List(ctx)
	if err != nil {
		s.logger(ctx, "brands.read.failed", map[string]any{"error": err, "stale": stale != nil})
		if stale != nil {
			return cloneBrands(stale.brands), nil
		}
		return nil, fmt.Errorf("%w: %v", ErrBrandsUnavailable, err)
	}

	brands := make([]Brand, 0, len(raw))
	for _, brand := range raw {
		brand.Name = strings.TrimSpace(brand.Name)
		brand.ImageURL = strings.TrimSpace(brand.ImageURL)
		if brand.Name == "" || brand.ImageURL == "" {
			continue
		}
		brand.Description = strings.TrimSpace(brand.Description)
		brands = append(brands, brand)
	}
	sort.SliceStable(brands, func(i, j int) bool {
		return strings.ToLower(brands[i].Name) < strings.ToLower(brands[j].Name)
	})

	s.cache.SetDefault(brandCacheKey, brandEntry{brands: brands, fetchedAt: now})
	return cloneBrands(brands), nil
}

func cloneBrands(brands []Brand) []Brand {
	out := make([]Brand, len(brands))
	copy(out, brands)
	return out
}
