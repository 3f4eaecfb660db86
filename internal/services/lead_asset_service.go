package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
	"github.com/Teletobimy/landingpage-irunica/internal/repositories"
)

const (
	leadAssetTaskName = "lead_assets.generate_images"

	fallbackStageClassification = "classification"
	fallbackStageText           = "synergy_text"
	fallbackStageImage          = "image"

	imageOutcomeGenerated    = "generated"
	imageOutcomeFallback     = "fallback"
	imageOutcomePersisted    = "persisted"
	imageOutcomeUploadFailed = "upload_failed"
)

var (
	// ErrInvalidInput indicates the lead id or company name was blank.
	ErrInvalidInput = errors.New("lead assets: invalid input")
	// ErrRateLimited indicates the caller exhausted today's generation quota.
	ErrRateLimited = errors.New("lead assets: daily generation limit reached")
)

// Classifier infers a company classification. ok is false when the default was returned.
type Classifier interface {
	Classify(ctx context.Context, companyName string) (classification Classification, ok bool)
}

// Copywriter writes synergy text. ok is false when the fallback copy was returned.
type Copywriter interface {
	Write(ctx context.Context, req CopyRequest) (text SynergyText, ok bool)
}

// ImageSetGenerator renders one image per prompt, substituting the fallback for failures.
type ImageSetGenerator interface {
	GenerateSet(ctx context.Context, prompts []domain.ImagePromptSpec) (images []ProductImage, failed int)
}

// ImageStore persists inline images and rewrites their URLs.
type ImageStore interface {
	Persist(ctx context.Context, leadID string, images []ProductImage) ([]ProductImage, PersistStats)
}

// QuotaChecker decides whether a caller may trigger a paid generation.
type QuotaChecker interface {
	Allow(ctx context.Context, callerIP string) bool
}

// LeadAssetServiceDeps wires the orchestrator. Publisher and Metrics are optional.
type LeadAssetServiceDeps struct {
	Cache       repositories.LeadAssetRepository
	Quota       QuotaChecker
	Classifier  Classifier
	Copywriter  Copywriter
	Images      ImageSetGenerator
	Persister   ImageStore
	Runner      TaskRunner
	Publisher   AssetEventPublisher
	Metrics     GenerationMetrics
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type leadAssetService struct {
	cache      repositories.LeadAssetRepository
	quota      QuotaChecker
	classifier Classifier
	copywriter Copywriter
	images     ImageSetGenerator
	persister  ImageStore
	runner     TaskRunner
	publisher  AssetEventPublisher
	metrics    GenerationMetrics
	clock      func() time.Time
	newID      func() string
	logger     func(context.Context, string, map[string]any)
}

var _ LeadAssetService = (*leadAssetService)(nil)

// NewLeadAssetService constructs the cache-first asset orchestrator.
func NewLeadAssetService(deps LeadAssetServiceDeps) (LeadAssetService, error) {
	switch {
	case deps.Cache == nil:
		return nil, errors.New("lead asset service: cache repository is required")
	case deps.Quota == nil:
		return nil, errors.New("lead asset service: quota checker is required")
	case deps.Classifier == nil:
		return nil, errors.New("lead asset service: classifier is required")
	case deps.Copywriter == nil:
		return nil, errors.New("lead asset service: copywriter is required")
	case deps.Images == nil:
		return nil, errors.New("lead asset service: image generator is required")
	case deps.Persister == nil:
		return nil, errors.New("lead asset service: image persister is required")
	case deps.Runner == nil:
		return nil, errors.New("lead asset service: task runner is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}

	return &leadAssetService{
		cache:      deps.Cache,
		quota:      deps.Quota,
		classifier: deps.Classifier,
		copywriter: deps.Copywriter,
		images:     deps.Images,
		persister:  deps.Persister,
		runner:     deps.Runner,
		publisher:  deps.Publisher,
		metrics:    metricsOrNop(deps.Metrics),
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  newID,
		logger: loggerOrNop(deps.Logger),
	}, nil
}

// GetOrGenerateAssets serves a complete cached record as is. On a miss it classifies the company,
// writes the copy and returns with the images future already resolved to an empty list; image
// generation, persistence and the cache write continue on the task runner.
func (s *leadAssetService) GetOrGenerateAssets(ctx context.Context, req AssetRequest) (AssetResult, error) {
	leadID := strings.TrimSpace(req.LeadID)
	companyName := strings.TrimSpace(req.CompanyName)
	if leadID == "" || companyName == "" {
		return AssetResult{}, fmt.Errorf("%w: lead id and company name are required", ErrInvalidInput)
	}

	if cached := s.lookup(ctx, leadID); cached != nil {
		s.metrics.ObserveAssetLookup(true)
		classification := domain.DefaultClassification(s.clock())
		if cached.Classification != nil {
			classification = *cached.Classification
		}
		return AssetResult{
			SynergyText:    cached.SynergyText,
			ProductImages:  ResolvedImages(cached.ProductImages),
			Classification: classification,
			CacheHit:       true,
		}, nil
	}
	s.metrics.ObserveAssetLookup(false)

	if !s.quota.Allow(ctx, req.CallerIP) {
		return AssetResult{}, ErrRateLimited
	}

	classification, ok := s.classifier.Classify(ctx, companyName)
	if !ok {
		s.metrics.ObserveFallback(fallbackStageClassification)
	}

	text, ok := s.copywriter.Write(ctx, CopyRequest{
		CompanyName:    companyName,
		Classification: classification,
		Language:       req.Language,
		ResearchReport: req.ResearchReport,
	})
	if !ok {
		s.metrics.ObserveFallback(fallbackStageText)
	}

	job := generationJob{leadID: leadID, companyName: companyName, text: text, classification: classification}
	if _, err := s.runner.Go(ctx, leadAssetTaskName, func(ctx context.Context) error {
		return s.complete(ctx, job)
	}); err != nil {
		s.logger(ctx, "lead_assets.schedule.failed", map[string]any{
			"leadId": leadID,
			"error":  err,
		})
	}

	return AssetResult{
		SynergyText:    text,
		ProductImages:  ResolvedImages([]ProductImage{}),
		Classification: classification,
	}, nil
}

func (s *leadAssetService) CachedImages(ctx context.Context, leadID string) ([]ProductImage, bool, error) {
	id := strings.TrimSpace(leadID)
	if id == "" {
		return nil, false, fmt.Errorf("%w: lead id is required", ErrInvalidInput)
	}
	record, err := s.cache.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if record == nil || len(record.ProductImages) == 0 {
		return nil, false, nil
	}
	return cloneImages(record.ProductImages), true, nil
}

// lookup treats read failures and partial records as a miss.
func (s *leadAssetService) lookup(ctx context.Context, leadID string) *LeadAssetRecord {
	record, err := s.cache.Get(ctx, leadID)
	if err != nil {
		s.logger(ctx, "lead_assets.cache.read_failed", map[string]any{
			"leadId": leadID,
			"error":  err,
		})
		return nil
	}
	if !record.Complete() {
		return nil
	}
	return record
}

type generationJob struct {
	leadID         string
	companyName    string
	text           SynergyText
	classification Classification
}

// complete runs detached from the request. Its error is logged and dropped by the runner.
func (s *leadAssetService) complete(ctx context.Context, job generationJob) error {
	prompts := domain.BuildImagePrompts(job.companyName, job.classification.Industry)
	images, failed := s.images.GenerateSet(ctx, prompts)
	s.metrics.ObserveImages(imageOutcomeGenerated, len(images)-failed)
	s.metrics.ObserveImages(imageOutcomeFallback, failed)
	for i := 0; i < failed; i++ {
		s.metrics.ObserveFallback(fallbackStageImage)
	}

	persisted, stats := s.persister.Persist(ctx, job.leadID, images)
	s.metrics.ObserveImages(imageOutcomePersisted, stats.Uploaded)
	s.metrics.ObserveImages(imageOutcomeUploadFailed, stats.Failed)

	classification := job.classification
	if err := s.cache.Put(ctx, LeadAssetRecord{
		LeadID:         job.leadID,
		SynergyText:    job.text,
		ProductImages:  persisted,
		Classification: &classification,
	}); err != nil {
		return fmt.Errorf("lead assets: cache write for %s: %w", job.leadID, err)
	}

	s.logger(ctx, "lead_assets.cached", map[string]any{
		"leadId":         job.leadID,
		"industry":       string(classification.Industry),
		"fallbackImages": failed,
		"uploaded":       stats.Uploaded,
		"uploadFailed":   stats.Failed,
	})

	if s.publisher == nil {
		return nil
	}
	event := AssetsReadyEvent{
		EventID:        s.newID(),
		LeadID:         job.leadID,
		Industry:       string(classification.Industry),
		Images:         len(persisted),
		FallbackImages: failed,
		OccurredAt:     s.clock(),
	}
	if _, err := s.publisher.PublishAssetsReady(ctx, event); err != nil {
		s.logger(ctx, "lead_assets.publish.failed", map[string]any{
			"leadId":  job.leadID,
			"eventId": event.EventID,
			"error":   err,
		})
	}
	return nil
}
