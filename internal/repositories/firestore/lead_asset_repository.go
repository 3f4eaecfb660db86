package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
	pfirestore "github.com/Teletobimy/landingpage-irunica/internal/platform/firestore"
	"github.com/Teletobimy/landingpage-irunica/internal/repositories"
)

const vipPagesCollection = "vip_pages"

type synergyTextDocument struct {
	Headline    string `firestore:"headline"`
	Description string `firestore:"description"`
}

type productImageDocument struct {
	ID  string `firestore:"id"`
	URL string `firestore:"url"`
}

type classificationDocument struct {
	Industry     string    `firestore:"industry"`
	Country      string    `firestore:"country"`
	CompanySize  string    `firestore:"companySize"`
	Confidence   float64   `firestore:"confidence"`
	PainPoints   []string  `firestore:"painPoints"`
	ClassifiedAt time.Time `firestore:"classifiedAt"`
}

type leadAssetDocument struct {
	VIPID          string                  `firestore:"vipId"`
	SynergyText    *synergyTextDocument    `firestore:"synergyText"`
	ProductImages  []productImageDocument  `firestore:"productImages"`
	Classification *classificationDocument `firestore:"classification"`
	CreatedAt      time.Time               `firestore:"createdAt"`
	UpdatedAt      time.Time               `firestore:"updatedAt"`
}

// LeadAssetRepository caches generated landing page assets in the vip_pages collection.
type LeadAssetRepository struct {
	provider *pfirestore.Provider
	pages    *pfirestore.Collection[leadAssetDocument]
}

var _ repositories.LeadAssetRepository = (*LeadAssetRepository)(nil)

// NewLeadAssetRepository constructs a Firestore-backed lead asset cache.
func NewLeadAssetRepository(provider *pfirestore.Provider) (*LeadAssetRepository, error) {
	if provider == nil {
		return nil, errors.New("lead asset repository requires firestore provider")
	}
	return &LeadAssetRepository{
		provider: provider,
		pages:    pfirestore.NewCollection[leadAssetDocument](provider, vipPagesCollection, nil),
	}, nil
}

// Get returns the cached record for leadID, or nil when none exists.
func (r *LeadAssetRepository) Get(ctx context.Context, leadID string) (*domain.LeadAssetRecord, error) {
	id := strings.TrimSpace(leadID)
	if id == "" {
		return nil, errors.New("lead asset repository: lead id is required")
	}
	doc, err := r.pages.Get(ctx, id)
	if err != nil {
		if pfirestore.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	record := decodeLeadAsset(id, doc.Data)
	if record.CreatedAt.IsZero() {
		record.CreatedAt = doc.CreateTime
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = doc.UpdateTime
	}
	return &record, nil
}

// Put merges the record into vip_pages. createdAt is stamped only on the first write; updatedAt on every write.
func (r *LeadAssetRepository) Put(ctx context.Context, record domain.LeadAssetRecord) error {
	id := strings.TrimSpace(record.LeadID)
	if id == "" {
		return errors.New("lead asset repository: lead id is required")
	}
	fields := encodeLeadAsset(id, record)

	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.pages.Doc(ctx, id)
		if err != nil {
			return err
		}
		_, err = tx.Get(ref)
		switch status.Code(err) {
		case codes.NotFound:
			fields["createdAt"] = firestore.ServerTimestamp
		case codes.OK:
		default:
			return err
		}
		return tx.Set(ref, fields, firestore.MergeAll)
	})
}

// DeleteUpdatedBefore removes cache entries last written before cutoff.
func (r *LeadAssetRepository) DeleteUpdatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return r.pages.DeleteWhere(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("updatedAt", "<", cutoff.UTC())
	})
}

func encodeLeadAsset(id string, record domain.LeadAssetRecord) map[string]any {
	images := make([]map[string]any, 0, len(record.ProductImages))
	for _, image := range record.ProductImages {
		images = append(images, map[string]any{"id": image.ID, "url": image.URL})
	}
	fields := map[string]any{
		"vipId": id,
		"synergyText": map[string]any{
			"headline":    record.SynergyText.Headline,
			"description": record.SynergyText.Description,
		},
		"productImages": images,
		"updatedAt":     firestore.ServerTimestamp,
	}
	if c := record.Classification; c != nil {
		painPoints := c.PainPoints
		if painPoints == nil {
			painPoints = []string{}
		}
		fields["classification"] = map[string]any{
			"industry":     string(c.Industry),
			"country":      c.Country,
			"companySize":  string(c.CompanySize),
			"confidence":   c.Confidence,
			"painPoints":   painPoints,
			"classifiedAt": c.ClassifiedAt.UTC(),
		}
	}
	return fields
}

func decodeLeadAsset(id string, doc leadAssetDocument) domain.LeadAssetRecord {
	record := domain.LeadAssetRecord{
		LeadID:    id,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	if doc.SynergyText != nil {
		record.SynergyText = domain.SynergyText{
			Headline:    doc.SynergyText.Headline,
			Description: doc.SynergyText.Description,
		}
	}
	for _, image := range doc.ProductImages {
		if strings.TrimSpace(image.URL) == "" {
			continue
		}
		record.ProductImages = append(record.ProductImages, domain.ProductImage{ID: image.ID, URL: image.URL})
	}
	if c := doc.Classification; c != nil {
		painPoints := c.PainPoints
		if painPoints == nil {
			painPoints = []string{}
		}
		record.Classification = &domain.Classification{
			Industry:     domain.ParseIndustry(c.Industry),
			Country:      c.Country,
			CompanySize:  domain.ParseCompanySize(c.CompanySize),
			Confidence:   c.Confidence,
			PainPoints:   painPoints,
			ClassifiedAt: c.ClassifiedAt,
		}
	}
	return record
}
