package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Teletobimy/landingpage-irunica/internal/platform/httpx"
	"github.com/Teletobimy/landingpage-irunica/internal/platform/pagination"
	"github.com/Teletobimy/landingpage-irunica/internal/platform/pipeline"
	"github.com/Teletobimy/landingpage-irunica/internal/platform/requestctx"
)

var pipelineLeadPaging = pagination.Options{
	DefaultLimit:   50,
	MaxLimit:       200,
	AllowedFilters: []string{"status"},
}

// PipelineBackend relays calls to the batch pipeline status API.
type PipelineBackend interface {
	Do(ctx context.Context, method, path string, query url.Values) (pipeline.Response, error)
}

// DashboardHandlers proxies the staff dashboard's status and control calls.
type DashboardHandlers struct {
	backend PipelineBackend
}

// NewDashboardHandlers constructs the dashboard proxy.
func NewDashboardHandlers(backend PipelineBackend) *DashboardHandlers {
	return &DashboardHandlers{backend: backend}
}

// Routes registers the proxy endpoints. Authentication is applied by the router group.
func (h *DashboardHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/status", h.relay(http.MethodGet, "/status"))
	r.Get("/pipeline/status", h.relay(http.MethodGet, "/pipeline/status"))
	r.Post("/pipeline/start", h.relay(http.MethodPost, "/pipeline/start"))
	r.Post("/pipeline/stop", h.relay(http.MethodPost, "/pipeline/stop"))
	r.Get("/pipeline/stats", h.relay(http.MethodGet, "/pipeline/stats"))
	r.Get("/pipeline/leads", h.listLeads)
}

func (h *DashboardHandlers) relay(method, path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.forward(w, r, method, path, nil)
	}
}

func (h *DashboardHandlers) listLeads(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.FromRequest(r, pipelineLeadPaging)
	if err != nil {
		message := "limit must be between 1 and 200"
		if errors.Is(err, pagination.ErrInvalidOffset) {
			message = "offset must be zero or greater"
		}
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", message, http.StatusBadRequest))
		return
	}
	h.forward(w, r, http.MethodGet, "/pipeline/leads", params.Query())
}

func (h *DashboardHandlers) forward(w http.ResponseWriter, r *http.Request, method, path string, query url.Values) {
	ctx := r.Context()
	if h.backend == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "pipeline backend not configured", http.StatusServiceUnavailable))
		return
	}

	resp, err := h.backend.Do(ctx, method, path, query)
	if err != nil {
		if errors.Is(err, pipeline.ErrNotConfigured) {
			httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "pipeline backend not configured", http.StatusServiceUnavailable))
			return
		}
		requestctx.Logger(ctx).Warn("pipeline relay failed", zap.String("path", path), zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("upstream_unavailable", "pipeline backend unreachable", http.StatusBadGateway))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}
