package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
)

const classificationSchema = `{
  "type": "object",
  "required": ["industry", "country", "companySize", "confidence", "painPoints"],
  "properties": {
    "industry": {"type": "string", "enum": ["spa", "clinic", "retail", "hotel", "distributor", "unknown"]},
    "country": {"type": "string", "maxLength": 64},
    "companySize": {"type": "string", "enum": ["small", "medium", "large", "unknown"]},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "painPoints": {"type": "array", "items": {"type": "string"}, "maxItems": 5}
  }
}`

// JSONGenerator produces schema-validated JSON. *gemini.Client implements it.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, schema []byte, out any) error
}

type classificationOutput struct {
	Industry    string   `json:"industry"`
	Country     string   `json:"country"`
	CompanySize string   `json:"companySize"`
	Confidence  float64  `json:"confidence"`
	PainPoints  []string `json:"painPoints"`
}

// CompanyClassifierDeps wires the classifier.
type CompanyClassifierDeps struct {
	Model  JSONGenerator
	Clock  func() time.Time
	Logger func(ctx context.Context, event string, fields map[string]any)
}

// CompanyClassifier infers a lead's industry from its company name. Single attempt, fail-soft.
type CompanyClassifier struct {
	model  JSONGenerator
	clock  func() time.Time
	logger func(context.Context, string, map[string]any)
}

// NewCompanyClassifier constructs the classifier.
func NewCompanyClassifier(deps CompanyClassifierDeps) (*CompanyClassifier, error) {
	if deps.Model == nil {
		return nil, errors.New("company classifier: model is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &CompanyClassifier{model: deps.Model, clock: clock, logger: loggerOrNop(deps.Logger)}, nil
}

// Classify returns the inferred classification and true, or the zero-confidence default and false
// when the model call or its output failed.
func (c *CompanyClassifier) Classify(ctx context.Context, companyName string) (Classification, bool) {
	now := c.clock().UTC()
	name := strings.TrimSpace(companyName)
	if name == "" {
		return domain.DefaultClassification(now), false
	}

	var out classificationOutput
	if err := c.model.GenerateJSON(ctx, classificationPrompt(name), []byte(classificationSchema), &out); err != nil {
		c.logger(ctx, "classification.fallback", map[string]any{
			"companyName": name,
			"error":       err,
		})
		return domain.DefaultClassification(now), false
	}

	painPoints := make([]string, 0, len(out.PainPoints))
	for _, point := range out.PainPoints {
		if trimmed := strings.TrimSpace(point); trimmed != "" {
			painPoints = append(painPoints, trimmed)
		}
	}
	return Classification{
		Industry:     domain.ParseIndustry(out.Industry),
		Country:      strings.ToUpper(strings.TrimSpace(out.Country)),
		CompanySize:  domain.ParseCompanySize(out.CompanySize),
		Confidence:   out.Confidence,
		PainPoints:   painPoints,
		ClassifiedAt: now,
	}, true
}

func classificationPrompt(companyName string) string {
	return fmt.Sprintf(`You are a B2B market analyst for Irunica, a Korean private label cosmetics manufacturer.
Classify the business "%s".

Choose industry from: spa, clinic, retail, hotel, distributor, unknown.
Choose companySize from: small, medium, large, unknown.
country is the ISO 3166-1 alpha-2 code of its home market, or "" when unclear.
confidence is a number between 0 and 1. Use unknown with confidence 0 when you cannot tell.
painPoints lists up to 3 short business problems a private label skincare line could solve for them.

Output ONLY JSON:
{"industry": "...", "country": "...", "companySize": "...", "confidence": 0.0, "painPoints": ["..."]}`, companyName)
}
