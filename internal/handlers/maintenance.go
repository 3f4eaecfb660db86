package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Teletobimy/landingpage-irunica/internal/platform/httpx"
	"github.com/Teletobimy/landingpage-irunica/internal/services"
)

// MaintenanceHandlers exposes scheduler-triggered housekeeping.
type MaintenanceHandlers struct {
	retention services.RetentionService
}

// NewMaintenanceHandlers constructs the maintenance handler set.
func NewMaintenanceHandlers(retention services.RetentionService) *MaintenanceHandlers {
	return &MaintenanceHandlers{retention: retention}
}

// Routes registers POST /maintenance/retention.
func (h *MaintenanceHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/maintenance/retention", h.sweep)
}

type retentionPayload struct {
	LeadAssetsDeleted int    `json:"leadAssetsDeleted"`
	CountersDeleted   int    `json:"countersDeleted"`
	Cutoff            string `json:"cutoff"`
	CompletedAt       string `json:"completedAt"`
}

func (h *MaintenanceHandlers) sweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.retention == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "retention service not available", http.StatusServiceUnavailable))
		return
	}

	report, err := h.retention.Sweep(ctx)
	payload := retentionPayload{
		LeadAssetsDeleted: report.LeadAssetsDeleted,
		CountersDeleted:   report.CountersDeleted,
		Cutoff:            formatTime(report.Cutoff),
		CompletedAt:       formatTime(report.CompletedAt),
	}
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("retention_failed", "retention sweep incomplete", http.StatusInternalServerError).WithDetails(map[string]any{
			"leadAssetsDeleted": payload.LeadAssetsDeleted,
			"countersDeleted":   payload.CountersDeleted,
		}))
		return
	}
	writeJSONResponse(w, http.StatusOK, payload)
}
