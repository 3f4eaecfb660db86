package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Teletobimy/landingpage-irunica/internal/services"
)

type stubRetentionService struct {
	report services.RetentionReport
	err    error
	calls  int
}

func (s *stubRetentionService) Sweep(context.Context) (services.RetentionReport, error) {
	s.calls++
	return s.report, s.err
}

func TestMaintenanceRetention(t *testing.T) {
	cutoff := time.Date(2025, 2, 3, 3, 0, 0, 0, time.UTC)
	svc := &stubRetentionService{report: services.RetentionReport{LeadAssetsDeleted: 4, CountersDeleted: 9, Cutoff: cutoff, CompletedAt: cutoff.Add(90 * 24 * time.Hour)}}
	r := chi.NewRouter()
	NewMaintenanceHandlers(svc).Routes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/maintenance/retention", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload retentionPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.LeadAssetsDeleted != 4 || payload.CountersDeleted != 9 || payload.Cutoff != "2025-02-03T03:00:00Z" {
		t.Fatalf("unexpected payload %+v", payload)
	}

	svc.err = errors.New("deadline exceeded")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/maintenance/retention", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "retention_failed" || body["countersDeleted"] != float64(9) {
		t.Fatalf("unexpected error body %v", body)
	}
}
