package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
	"github.com/Teletobimy/landingpage-irunica/internal/platform/httpx"
	"github.com/Teletobimy/landingpage-irunica/internal/services"
)

const (
	maxTranslateRequestBody = 16 * 1024
	trendCacheControl       = "public, max-age=300"
	brandCacheControl       = "public, s-maxage=3600, stale-while-revalidate=86400"
)

// InsightHandlers serves translation, trend analyses and the partner brand portfolio.
type InsightHandlers struct {
	translator services.TranslationService
	trends     services.TrendService
	brands     services.BrandService
	throttle   []func(http.Handler) http.Handler
}

// InsightOption customises InsightHandlers.
type InsightOption func(*InsightHandlers)

// WithTranslationService wires POST /translate.
func WithTranslationService(svc services.TranslationService) InsightOption {
	return func(h *InsightHandlers) {
		h.translator = svc
	}
}

// WithTrendService wires GET /trends/{type}.
func WithTrendService(svc services.TrendService) InsightOption {
	return func(h *InsightHandlers) {
		h.trends = svc
	}
}

// WithBrandService wires GET /brands.
func WithBrandService(svc services.BrandService) InsightOption {
	return func(h *InsightHandlers) {
		h.brands = svc
	}
}

// WithTranslateThrottle wraps POST /translate.
func WithTranslateThrottle(mw func(http.Handler) http.Handler) InsightOption {
	return func(h *InsightHandlers) {
		if mw != nil {
			h.throttle = append(h.throttle, mw)
		}
	}
}

// NewInsightHandlers constructs the handler set.
func NewInsightHandlers(opts ...InsightOption) *InsightHandlers {
	h := &InsightHandlers{}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the insight endpoints.
func (h *InsightHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.With(h.throttle...).Post("/translate", h.translate)
	r.Get("/trends/{type}", h.latestTrend)
	r.Get("/brands", h.listBrands)
}

type translateRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"targetLang"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

func (h *InsightHandlers) translate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.translator == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "translation service not available", http.StatusServiceUnavailable))
		return
	}

	var req translateRequest
	if !decodeBody(ctx, w, r, maxTranslateRequestBody, &req) {
		return
	}

	translated, err := h.translator.Translate(ctx, services.TranslateCommand{Text: req.Text, TargetLang: req.TargetLang})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "text and targetLang are required", http.StatusBadRequest))
		case errors.Is(err, services.ErrTranslationFailed):
			httpx.WriteError(ctx, w, httpx.NewError("translation_failed", "no translation result", http.StatusBadGateway))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("translation_error", "translation failed", http.StatusInternalServerError))
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, translateResponse{TranslatedText: translated})
}

type trendPayload struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	UpdatedAt string         `json:"updatedAt,omitempty"`
}

func (h *InsightHandlers) latestTrend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.trends == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "trend service not available", http.StatusServiceUnavailable))
		return
	}

	trendType := domain.TrendType(strings.TrimSpace(chi.URLParam(r, "type")))
	report, err := h.trends.Latest(ctx, trendType)
	if err != nil {
		writeTrendError(ctx, w, err)
		return
	}

	data := report.Data
	if data == nil {
		data = map[string]any{}
	}
	w.Header().Set("Cache-Control", trendCacheControl)
	writeJSONResponse(w, http.StatusOK, trendPayload{
		ID:        report.ID,
		Type:      string(report.Type),
		Data:      data,
		UpdatedAt: formatTime(report.UpdatedAt),
	})
}

func writeTrendError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrUnknownTrendType):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "type must be category or color", http.StatusBadRequest))
	case errors.Is(err, services.ErrTrendNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "no trend analysis available", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("trend_error", "failed to load trend analysis", http.StatusInternalServerError))
	}
}

type brandPayload struct {
	Name        string `json:"name"`
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description,omitempty"`
}

func (h *InsightHandlers) listBrands(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.brands == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "brand service not available", http.StatusServiceUnavailable))
		return
	}

	brands, err := h.brands.List(ctx)
	if err != nil {
		if errors.Is(err, services.ErrBrandsUnavailable) {
			httpx.WriteError(ctx, w, httpx.NewError("upstream_unavailable", "failed to fetch brands", http.StatusBadGateway))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("brand_error", "failed to fetch brands", http.StatusInternalServerError))
		return
	}

	out := make([]brandPayload, 0, len(brands))
	for _, b := range brands {
		out = append(out, brandPayload{Name: b.Name, ImageURL: b.ImageURL, Description: b.Description})
	}
	w.Header().Set("Cache-Control", brandCacheControl)
	writeJSONResponse(w, http.StatusOK, out)
}
