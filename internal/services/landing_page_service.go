package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
	"github.com/Teletobimy/landingpage-irunica/internal/repositories"
)

const (
	trackVisitTaskName = "landing.track_visit"
	visitorLogTaskName = "landing.visitor_log"
)

var (
	// ErrLeadNotFound indicates the leads backend has no lead for the page id.
	ErrLeadNotFound = errors.New("landing page: lead not found")
	// ErrLeadUnavailable indicates the leads backend could not be reached.
	ErrLeadUnavailable = errors.New("landing page: leads backend unavailable")
)

// LeadDirectory resolves VIP page ids into leads. *leads.Client implements it.
type LeadDirectory interface {
	// GetLead returns nil without error for an unknown page id.
	GetLead(ctx context.Context, pageID string) (*domain.Lead, error)
	TrackVisit(ctx context.Context, pageID string) error
}

// LandingPageServiceDeps wires the landing page service. Visitors is optional.
type LandingPageServiceDeps struct {
	Leads         LeadDirectory
	Assets        LeadAssetService
	Visitors      repositories.VisitorLogRepository
	Runner        TaskRunner
	FallbackImage string
	Clock         func() time.Time
	Logger        func(ctx context.Context, event string, fields map[string]any)
}

type landingPageService struct {
	leads    LeadDirectory
	assets   LeadAssetService
	visitors repositories.VisitorLogRepository
	runner   TaskRunner
	fallback string
	clock    func() time.Time
	logger   func(context.Context, string, map[string]any)
}

var _ LandingPageService = (*landingPageService)(nil)

// NewLandingPageService constructs the landing page service.
func NewLandingPageService(deps LandingPageServiceDeps) (LandingPageService, error) {
	switch {
	case deps.Leads == nil:
		return nil, errors.New("landing page service: lead directory is required")
	case deps.Assets == nil:
		return nil, errors.New("landing page service: lead asset service is required")
	case deps.Runner == nil:
		return nil, errors.New("landing page service: task runner is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	fallback := strings.TrimSpace(deps.FallbackImage)
	if fallback == "" {
		fallback = domain.DefaultFallbackImage
	}
	return &landingPageService{
		leads:    deps.Leads,
		assets:   deps.Assets,
		visitors: deps.Visitors,
		runner:   deps.Runner,
		fallback: fallback,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: loggerOrNop(deps.Logger),
	}, nil
}

func (s *landingPageService) Resolve(ctx context.Context, req LandingRequest) (LandingPage, error) {
	vipID := strings.TrimSpace(req.VIPID)
	if vipID == "" {
		return LandingPage{}, fmt.Errorf("%w: vip id is required", ErrInvalidInput)
	}

	lead, err := s.leads.GetLead(ctx, vipID)
	if err != nil {
		return LandingPage{}, fmt.Errorf("%w: %v", ErrLeadUnavailable, err)
	}
	if lead == nil || strings.TrimSpace(lead.CompanyName) == "" {
		return LandingPage{}, ErrLeadNotFound
	}

	s.background(ctx, trackVisitTaskName, vipID, func(ctx context.Context) error {
		return s.leads.TrackVisit(ctx, vipID)
	})

	result, err := s.assets.GetOrGenerateAssets(ctx, AssetRequest{
		LeadID:         vipID,
		CompanyName:    lead.CompanyName,
		Language:       domain.LanguageCode(lead.Language),
		ResearchReport: lead.ResearchReport,
		CallerIP:       req.CallerIP,
	})
	if err != nil {
		return LandingPage{}, err
	}

	images, err := result.ProductImages.Await(ctx)
	if err != nil {
		return LandingPage{}, err
	}
	pending := len(images) == 0
	if pending {
		images = domain.FallbackImages(s.fallback)
	}

	if s.visitors != nil {
		entry := domain.VisitorLog{VIPID: vipID, UserAgent: req.UserAgent, Timestamp: s.clock()}
		s.background(ctx, visitorLogTaskName, vipID, func(ctx context.Context) error {
			return s.visitors.Append(ctx, entry)
		})
	}

	return LandingPage{
		VIPID:          vipID,
		CompanyName:    lead.CompanyName,
		Language:       domain.PageLanguage(lead.Language),
		SynergyText:    result.SynergyText,
		ProductImages:  images,
		ImagesPending:  pending,
		Classification: result.Classification,
		Modules:        domain.ModulesForIndustry(result.Classification.Industry),
	}, nil
}

// Images reports the cached image set, or the fallback set while generation is still running.
// Cache read failures are reported as pending rather than surfaced.
func (s *landingPageService) Images(ctx context.Context, vipID string) (LandingImages, error) {
	id := strings.TrimSpace(vipID)
	if id == "" {
		return LandingImages{}, fmt.Errorf("%w: vip id is required", ErrInvalidInput)
	}
	images, ok, err := s.assets.CachedImages(ctx, id)
	if err != nil {
		s.logger(ctx, "landing.images.read_failed", map[string]any{"vipId": id, "error": err})
	}
	if !ok {
		return LandingImages{VIPID: id, Images: domain.FallbackImages(s.fallback), Pending: true}, nil
	}
	return LandingImages{VIPID: id, Images: images}, nil
}

func (s *landingPageService) background(ctx context.Context, name, vipID string, fn func(ctx context.Context) error) {
	if _, err := s.runner.Go(ctx, name, fn); err != nil {
		s.logger(ctx, "landing.schedule.failed", map[string]any{
			"task":  name,
			"vipId": vipID,
			"error": err,
		})
	}
}
