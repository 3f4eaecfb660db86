package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Teletobimy/landingpage-irunica/internal/platform/httpx"
	"github.com/Teletobimy/landingpage-irunica/internal/services"
)

// LandingHandlers serves the personalised VIP landing payloads.
type LandingHandlers struct {
	pages services.LandingPageService
}

// NewLandingHandlers constructs the landing page handler set.
func NewLandingHandlers(pages services.LandingPageService) *LandingHandlers {
	return &LandingHandlers{pages: pages}
}

// Routes registers the landing endpoints beneath /vip.
func (h *LandingHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/vip/{vipId}", h.getPage)
	r.Get("/vip/{vipId}/images", h.getImages)
}

func (h *LandingHandlers) getPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pages == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "landing service not available", http.StatusServiceUnavailable))
		return
	}

	vipID := strings.TrimSpace(chi.URLParam(r, "vipId"))
	if vipID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "vip_id is required", http.StatusBadRequest))
		return
	}

	page, err := h.pages.Resolve(ctx, services.LandingRequest{
		VIPID:     vipID,
		CallerIP:  callerIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeLandingError(ctx, w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSONResponse(w, http.StatusOK, landingPagePayload{
		VIPID:          page.VIPID,
		CompanyName:    page.CompanyName,
		Language:       page.Language,
		SynergyText:    synergyPayload{Headline: page.SynergyText.Headline, Description: page.SynergyText.Description},
		ProductImages:  buildImagePayloads(page.ProductImages),
		ImagesPending:  page.ImagesPending,
		Classification: buildClassificationPayload(page.Classification),
		Modules:        buildModulePayloads(page.Modules),
	})
}

func (h *LandingHandlers) getImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pages == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "landing service not available", http.StatusServiceUnavailable))
		return
	}

	vipID := strings.TrimSpace(chi.URLParam(r, "vipId"))
	images, err := h.pages.Images(ctx, vipID)
	if err != nil {
		writeLandingError(ctx, w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSONResponse(w, http.StatusOK, landingImagesPayload{
		VIPID:   images.VIPID,
		Images:  buildImagePayloads(images.Images),
		Pending: images.Pending,
	})
}

func writeLandingError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrLeadNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "vip page not found", http.StatusNotFound))
	case errors.Is(err, services.ErrRateLimited):
		httpx.WriteError(ctx, w, httpx.NewError("access_limited", "daily generation limit reached, please try again tomorrow", http.StatusTooManyRequests))
	case errors.Is(err, services.ErrLeadUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("upstream_unavailable", "lead directory temporarily unavailable", http.StatusBadGateway))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("landing_error", "failed to load vip page", http.StatusInternalServerError))
	}
}

type landingPagePayload struct {
	VIPID          string                `json:"vipId"`
	CompanyName    string                `json:"companyName"`
	Language       string                `json:"language"`
	SynergyText    synergyPayload        `json:"synergyText"`
	ProductImages  []imagePayload        `json:"productImages"`
	ImagesPending  bool                  `json:"imagesPending"`
	Classification classificationPayload `json:"classification"`
	Modules        []modulePayload       `json:"modules"`
}

type landingImagesPayload struct {
	VIPID   string         `json:"vipId"`
	Images  []imagePayload `json:"images"`
	Pending bool           `json:"pending"`
}

type synergyPayload struct {
	Headline    string `json:"headline"`
	Description string `json:"description"`
}

type imagePayload struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type classificationPayload struct {
	Industry    string   `json:"industry"`
	Country     string   `json:"country"`
	CompanySize string   `json:"companySize"`
	Confidence  float64  `json:"confidence"`
	PainPoints  []string `json:"painPoints"`
}

type modulePayload struct {
	Component string `json:"component"`
	Priority  int    `json:"priority"`
}

func buildImagePayloads(images []services.ProductImage) []imagePayload {
	out := make([]imagePayload, 0, len(images))
	for _, img := range images {
		out = append(out, imagePayload{ID: img.ID, URL: img.URL})
	}
	return out
}

func buildClassificationPayload(c services.Classification) classificationPayload {
	painPoints := c.PainPoints
	if painPoints == nil {
		painPoints = []string{}
	}
	return classificationPayload{
		Industry:    string(c.Industry),
		Country:     c.Country,
		CompanySize: string(c.CompanySize),
		Confidence:  c.Confidence,
		PainPoints:  painPoints,
	}
}

func buildModulePayloads(modules []services.ModuleConfig) []modulePayload {
	out := make([]modulePayload, 0, len(modules))
	for _, m := range modules {
		out = append(out, modulePayload{Component: string(m.Component), Priority: m.Priority})
	}
	return out
}
