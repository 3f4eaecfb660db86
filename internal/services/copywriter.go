package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
)

const synergyTextSchema = `{
  "type": "object",
  "required": ["headline", "description"],
  "properties": {
    "headline": {"type": "string", "minLength": 1, "maxLength": 300},
    "description": {"type": "string", "minLength": 1, "maxLength": 2000}
  }
}`

type synergyTextOutput struct {
	Headline    string `json:"headline"`
	Description string `json:"description"`
}

// CopyRequest is the input to synergy text generation.
type CopyRequest struct {
	CompanyName    string
	Classification Classification
	Language       string
	ResearchReport string
}

// SynergyCopywriterDeps wires the copywriter.
type SynergyCopywriterDeps struct {
	Model  JSONGenerator
	Logger func(ctx context.Context, event string, fields map[string]any)
}

// SynergyCopywriter writes the landing page headline and description.
type SynergyCopywriter struct {
	model  JSONGenerator
	logger func(context.Context, string, map[string]any)
}

// NewSynergyCopywriter constructs the copywriter.
func NewSynergyCopywriter(deps SynergyCopywriterDeps) (*SynergyCopywriter, error) {
	if deps.Model == nil {
		return nil, errors.New("synergy copywriter: model is required")
	}
	return &SynergyCopywriter{model: deps.Model, logger: loggerOrNop(deps.Logger)}, nil
}

// Write generates copy for the request. On any failure it returns the fixed fallback copy and false.
func (w *SynergyCopywriter) Write(ctx context.Context, req CopyRequest) (SynergyText, bool) {
	name := strings.TrimSpace(req.CompanyName)

	var out synergyTextOutput
	if err := w.model.GenerateJSON(ctx, synergyPrompt(req), []byte(synergyTextSchema), &out); err != nil {
		w.logger(ctx, "synergy_text.fallback", map[string]any{
			"companyName": name,
			"error":       err,
		})
		return domain.FallbackSynergyText(name), false
	}
	text := SynergyText{
		Headline:    strings.TrimSpace(out.Headline),
		Description: strings.TrimSpace(out.Description),
	}
	if text.Headline == "" || text.Description == "" {
		w.logger(ctx, "synergy_text.fallback", map[string]any{
			"companyName": name,
			"error":       "blank copy",
		})
		return domain.FallbackSynergyText(name), false
	}
	return text, true
}

func synergyPrompt(req CopyRequest) string {
	var sb strings.Builder
	sb.WriteString("You are a brand strategist for Irunica, a K-beauty private label ODM/OEM manufacturer.\n")
	fmt.Fprintf(&sb, "Write a B2B partnership proposal for the brand %q.\n", strings.TrimSpace(req.CompanyName))

	if c := req.Classification; c.Informative() {
		sb.WriteString("\nWhat we know about them:\n")
		fmt.Fprintf(&sb, "- Industry: %s\n", c.Industry)
		if c.Country != "" {
			fmt.Fprintf(&sb, "- Country: %s\n", c.Country)
		}
		if c.CompanySize != domain.CompanySizeUnknown {
			fmt.Fprintf(&sb, "- Company size: %s\n", c.CompanySize)
		}
		if len(c.PainPoints) > 0 {
			fmt.Fprintf(&sb, "- Pain points: %s\n", strings.Join(c.PainPoints, "; "))
		}
	}

	if report := strings.TrimSpace(req.ResearchReport); report != "" {
		sb.WriteString("\nResearch report:\n")
		sb.WriteString(report)
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "\nWrite the headline and description in %s.\n", domain.LanguageName(req.Language))
	sb.WriteString(`The headline is one premium, specific line. The description is one short persuasive paragraph on why they should launch their own skincare line with Irunica.

Output ONLY JSON:
{"headline": "...", "description": "..."}`)
	return sb.String()
}
