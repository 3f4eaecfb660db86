package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
	"github.com/Teletobimy/landingpage-irunica/internal/services"
)

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	system services.SystemService
	build  services.BuildInfo
	clock  func() time.Time
}

// HealthOption customises HealthHandlers.
type HealthOption func(*HealthHandlers)

// WithHealthSystemService wires the dependency report used by /readyz.
func WithHealthSystemService(svc services.SystemService) HealthOption {
	return func(h *HealthHandlers) {
		h.system = svc
	}
}

// WithHealthBuildInfo sets the build metadata reported by /healthz.
func WithHealthBuildInfo(info services.BuildInfo) HealthOption {
	return func(h *HealthHandlers) {
		h.build = info
	}
}

// WithHealthClock overrides the clock.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// NewHealthHandlers constructs the probe handlers.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.build.StartedAt.IsZero() {
		h.build.StartedAt = h.clock()
	}
	return h
}

// Healthz reports process liveness without touching dependencies.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock().UTC()
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":      domain.HealthStatusOK,
		"uptime":      now.Sub(h.build.StartedAt).String(),
		"version":     h.build.Version,
		"commitSha":   h.build.CommitSHA,
		"environment": h.build.Environment,
		"timestamp":   now.Format(time.RFC3339),
	})
}

// Readyz reports dependency health. Anything other than ok answers 503.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	now := h.clock().UTC()
	if h.system == nil {
		writeJSONResponse(w, http.StatusOK, readinessPayload{Status: domain.HealthStatusOK, Checks: map[string]checkPayload{}, Details: []string{}, GeneratedAt: formatTime(now)})
		return
	}

	report, err := h.system.HealthReport(r.Context())
	if err != nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, readinessPayload{
			Status:      domain.HealthStatusError,
			Checks:      map[string]checkPayload{},
			Details:     []string{err.Error()},
			GeneratedAt: formatTime(now),
		})
		return
	}

	payload := readinessPayload{
		Status:      report.Status,
		Checks:      make(map[string]checkPayload, len(report.Checks)),
		Details:     []string{},
		Version:     report.Version,
		CommitSHA:   report.CommitSHA,
		Environment: report.Environment,
		Uptime:      report.Uptime.String(),
		GeneratedAt: formatTime(report.GeneratedAt),
	}
	names := make([]string, 0, len(report.Checks))
	for name := range report.Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		check := report.Checks[name]
		payload.Checks[name] = checkPayload{
			Status:    check.Status,
			Detail:    check.Detail,
			Error:     check.Error,
			LatencyMS: check.Latency.Milliseconds(),
			CheckedAt: formatTime(check.CheckedAt),
		}
		if check.Status != domain.HealthStatusOK && check.Error != "" {
			payload.Details = append(payload.Details, fmt.Sprintf("%s: %s", name, check.Error))
		}
	}

	status := http.StatusOK
	if report.Status != domain.HealthStatusOK {
		status = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, status, payload)
}

type readinessPayload struct {
	Status      string                  `json:"status"`
	Checks      map[string]checkPayload `json:"checks"`
	Details     []string                `json:"details"`
	Version     string                  `json:"version,omitempty"`
	CommitSHA   string                  `json:"commitSha,omitempty"`
	Environment string                  `json:"environment,omitempty"`
	Uptime      string                  `json:"uptime,omitempty"`
	GeneratedAt string                  `json:"generatedAt,omitempty"`
}

type checkPayload struct {
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latencyMs"`
	CheckedAt string `json:"checkedAt,omitempty"`
}
