package domain

import (
	"strings"
	"time"
)

// Industry is the inferred business segment of a lead.
type Industry string

const (
	IndustrySpa         Industry = "spa"
	IndustryClinic      Industry = "clinic"
	IndustryRetail      Industry = "retail"
	IndustryHotel       Industry = "hotel"
	IndustryDistributor Industry = "distributor"
	IndustryUnknown     Industry = "unknown"
)

// Industries lists every known industry, unknown last.
var Industries = []Industry{
	IndustrySpa,
	IndustryClinic,
	IndustryRetail,
	IndustryHotel,
	IndustryDistributor,
	IndustryUnknown,
}

// ParseIndustry normalises raw model output into a known industry. Unrecognised values map to unknown.
func ParseIndustry(raw string) Industry {
	candidate := Industry(strings.ToLower(strings.TrimSpace(raw)))
	for _, industry := range Industries {
		if industry == candidate {
			return industry
		}
	}
	return IndustryUnknown
}

// CompanySize is the coarse size bucket reported by classification.
type CompanySize string

const (
	CompanySizeSmall   CompanySize = "small"
	CompanySizeMedium  CompanySize = "medium"
	CompanySizeLarge   CompanySize = "large"
	CompanySizeUnknown CompanySize = "unknown"
)

// ParseCompanySize normalises a raw size value, defaulting to unknown.
func ParseCompanySize(raw string) CompanySize {
	switch CompanySize(strings.ToLower(strings.TrimSpace(raw))) {
	case CompanySizeSmall:
		return CompanySizeSmall
	case CompanySizeMedium:
		return CompanySizeMedium
	case CompanySizeLarge:
		return CompanySizeLarge
	default:
		return CompanySizeUnknown
	}
}

// Classification captures inferred company metadata used to steer prompts and page modules.
type Classification struct {
	Industry     Industry
	Country      string
	CompanySize  CompanySize
	Confidence   float64
	PainPoints   []string
	ClassifiedAt time.Time
}

// Informative reports whether the classification carries a usable signal for prompt conditioning.
func (c Classification) Informative() bool {
	return c.Industry != IndustryUnknown && c.Industry != "" && c.Confidence > 0
}

// DefaultClassification is the zero-confidence result used whenever inference fails or data is absent.
func DefaultClassification(now time.Time) Classification {
	return Classification{
		Industry:     IndustryUnknown,
		Country:      "",
		CompanySize:  CompanySizeUnknown,
		Confidence:   0,
		PainPoints:   []string{},
		ClassifiedAt: now.UTC(),
	}
}

// SynergyText is the persuasive headline/description pair shown on a landing page.
type SynergyText struct {
	Headline    string
	Description string
}

// IsZero reports whether no copy is present.
func (s SynergyText) IsZero() bool {
	return strings.TrimSpace(s.Headline) == "" && strings.TrimSpace(s.Description) == ""
}

// FallbackSynergyText returns the copy served when text generation fails.
func FallbackSynergyText(companyName string) SynergyText {
	return SynergyText{
		Headline:    "Elevate " + companyName,
		Description: "Partner with Irunica.",
	}
}

// ProductImage is a generated visual keyed by its stable prompt id.
type ProductImage struct {
	ID  string
	URL string
}

// Stable image ids in render order.
const (
	ImageStudio    = "p1"
	ImageMacro     = "p2"
	ImageArtistic  = "p3"
	ImageModel     = "m1"
	ImageLifestyle = "m2"
)

// ImageIDs lists the fixed set of product image ids in render order.
var ImageIDs = []string{ImageStudio, ImageMacro, ImageArtistic, ImageModel, ImageLifestyle}

// DefaultFallbackImage is the local asset served in place of any image that failed to generate.
const DefaultFallbackImage = "/assets/images/default-premium-product.jpg"

// FallbackImages returns the full image set pointing at the given fallback path.
func FallbackImages(fallback string) []ProductImage {
	if strings.TrimSpace(fallback) == "" {
		fallback = DefaultFallbackImage
	}
	out := make([]ProductImage, 0, len(ImageIDs))
	for _, id := range ImageIDs {
		out = append(out, ProductImage{ID: id, URL: fallback})
	}
	return out
}

// LeadAssetRecord is the cached generation output for one lead.
type LeadAssetRecord struct {
	LeadID         string
	SynergyText    SynergyText
	ProductImages  []ProductImage
	Classification *Classification
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Complete reports whether the record satisfies the cache-hit condition.
func (r *LeadAssetRecord) Complete() bool {
	if r == nil {
		return false
	}
	return !r.SynergyText.IsZero() && len(r.ProductImages) > 0
}

// Lead is a targeted business contact resolved from the leads backend.
type Lead struct {
	PageID         string
	CompanyName    string
	Email          string
	Website        string
	ResearchReport string
	Language       string
	Region         string
	Keyword        string
}
