package services

import (
	"context"
	"time"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Classification     = domain.Classification
	SynergyText        = domain.SynergyText
	ProductImage       = domain.ProductImage
	LeadAssetRecord    = domain.LeadAssetRecord
	Lead               = domain.Lead
	ModuleConfig       = domain.ModuleConfig
	TrendReport        = domain.TrendReport
	Brand              = domain.Brand
	SystemHealthReport = domain.SystemHealthReport
)

// LeadAssetService is the cache-first per-lead asset orchestrator.
type LeadAssetService interface {
	GetOrGenerateAssets(ctx context.Context, req AssetRequest) (AssetResult, error)
	// CachedImages reads the cache only and reports whether a complete image set exists.
	CachedImages(ctx context.Context, leadID string) ([]ProductImage, bool, error)
}

// LandingPageService resolves a VIP page id into everything the landing page renders.
type LandingPageService interface {
	Resolve(ctx context.Context, req LandingRequest) (LandingPage, error)
	Images(ctx context.Context, vipID string) (LandingImages, error)
}

// NotificationService sends the lead-capture e-mails.
type NotificationService interface {
	SendAssets(ctx context.Context, cmd AssetsEmailCommand) (NotificationReceipt, error)
	SendLeadAlert(ctx context.Context, cmd LeadAlertCommand) (NotificationReceipt, error)
	SendClickAlert(ctx context.Context, cmd ClickAlertCommand) (NotificationReceipt, error)
}

// TranslationService translates short UI strings.
type TranslationService interface {
	Translate(ctx context.Context, cmd TranslateCommand) (string, error)
}

// TrendService serves the latest trend analysis per type.
type TrendService interface {
	Latest(ctx context.Context, trendType domain.TrendType) (TrendReport, error)
}

// BrandService serves the partner brand portfolio.
type BrandService interface {
	List(ctx context.Context) ([]Brand, error)
}

// RetentionService prunes expired cache entries and counters.
type RetentionService interface {
	Sweep(ctx context.Context) (RetentionReport, error)
}

// SystemService exposes health information.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
}

// AssetRequest identifies the lead whose assets should be served.
type AssetRequest struct {
	LeadID         string
	CompanyName    string
	Language       string
	ResearchReport string
	// CallerIP keys the daily generation quota. Blank callers share the "unknown" bucket.
	CallerIP string
}

// AssetResult is returned as soon as text is available. ProductImages is already resolved.
type AssetResult struct {
	SynergyText    SynergyText
	ProductImages  *ImagesFuture
	Classification Classification
	CacheHit       bool
}

// LandingRequest carries the caller context for a landing page view.
type LandingRequest struct {
	VIPID     string
	CallerIP  string
	UserAgent string
}

// LandingPage is the payload rendered for one VIP.
type LandingPage struct {
	VIPID          string
	CompanyName    string
	Language       string
	SynergyText    SynergyText
	ProductImages  []ProductImage
	ImagesPending  bool
	Classification Classification
	Modules        []ModuleConfig
}

// LandingImages is the image poll response.
type LandingImages struct {
	VIPID   string
	Images  []ProductImage
	Pending bool
}

// AssetsEmailCommand requests the proposal e-mail with the generated image grid.
type AssetsEmailCommand struct {
	Email       string
	CompanyName string
	VIPID       string
	Images      []ProductImage
}

// LeadAlertCommand notifies the admin inbox about a completed contact form.
type LeadAlertCommand struct {
	Name        string
	Email       string
	Phone       string
	Message     string
	CompanyName string
	VIPID       string
}

// ClickAlertCommand notifies sales that a VIP pressed a call to action.
type ClickAlertCommand struct {
	ButtonName  string
	CompanyName string
	VIPID       string
}

// NotificationReceipt identifies a sent e-mail.
type NotificationReceipt struct {
	MessageID string
	SentAt    time.Time
}

// TranslateCommand is one translation request.
type TranslateCommand struct {
	Text       string
	TargetLang string
}

// RetentionReport summarises one retention sweep.
type RetentionReport struct {
	LeadAssetsDeleted int
	CountersDeleted   int
	Cutoff            time.Time
	CompletedAt       time.Time
}

// AssetsReadyEvent is published once background generation for a lead is persisted.
type AssetsReadyEvent struct {
	EventID        string    `json:"eventId"`
	LeadID         string    `json:"leadId"`
	Industry       string    `json:"industry"`
	Images         int       `json:"images"`
	FallbackImages int       `json:"fallbackImages"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// AssetEventPublisher announces completed generations.
type AssetEventPublisher interface {
	PublishAssetsReady(ctx context.Context, event AssetsReadyEvent) (string, error)
}

// TaskRunner runs detached background work with its own error boundary.
type TaskRunner interface {
	Go(ctx context.Context, name string, fn func(ctx context.Context) error) (string, error)
}
