package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Teletobimy/landingpage-irunica/internal/platform/pipeline"
)

type recordedCall struct {
	method string
	path   string
	query  url.Values
}

type stubPipelineBackend struct {
	calls []recordedCall
	resp  pipeline.Response
	err   error
}

func (s *stubPipelineBackend) Do(_ context.Context, method, path string, query url.Values) (pipeline.Response, error) {
	s.calls = append(s.calls, recordedCall{method: method, path: path, query: query})
	return s.resp, s.err
}

func newDashboardRouter(backend PipelineBackend) chi.Router {
	r := chi.NewRouter()
	NewDashboardHandlers(backend).Routes(r)
	return r
}

func TestDashboardRelaysUpstream(t *testing.T) {
	backend := &stubPipelineBackend{resp: pipeline.Response{Status: http.StatusOK, Body: json.RawMessage(`{"success":true,"running":false}`)}}
	router := newDashboardRouter(backend)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/status"},
		{http.MethodGet, "/pipeline/status"},
		{http.MethodPost, "/pipeline/start"},
		{http.MethodPost, "/pipeline/stop"},
		{http.MethodGet, "/pipeline/stats"},
	}
	for _, route := range routes {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(route.method, route.path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s %s: expected 200, got %d", route.method, route.path, rec.Code)
		}
		if rec.Body.String() != `{"success":true,"running":false}` {
			t.Fatalf("%s: unexpected body %s", route.path, rec.Body.String())
		}
	}
	if len(backend.calls) != len(routes) {
		t.Fatalf("expected %d upstream calls, got %d", len(routes), len(backend.calls))
	}
	if backend.calls[2].method != http.MethodPost || backend.calls[2].path != "/pipeline/start" {
		t.Fatalf("unexpected call %+v", backend.calls[2])
	}
}

func TestDashboardRelaysUpstreamStatus(t *testing.T) {
	backend := &stubPipelineBackend{resp: pipeline.Response{Status: http.StatusConflict, Body: json.RawMessage(`{"success":false,"error":"already running"}`)}}
	rec := httptest.NewRecorder()
	newDashboardRouter(backend).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pipeline/start", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected upstream 409, got %d", rec.Code)
	}
}

func TestDashboardLeadsQuery(t *testing.T) {
	backend := &stubPipelineBackend{resp: pipeline.Response{Status: http.StatusOK, Body: json.RawMessage(`{"success":true,"leads":[]}`)}}
	router := newDashboardRouter(backend)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pipeline/leads?status=generated", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := backend.calls[0].query
	if got.Get("limit") != "50" || got.Get("offset") != "0" || got.Get("status") != "generated" {
		t.Fatalf("unexpected query %v", got)
	}

	for _, raw := range []string{"limit=0", "limit=201", "limit=abc", "offset=-1"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pipeline/leads?"+raw, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", raw, rec.Code)
		}
	}
	if len(backend.calls) != 1 {
		t.Fatalf("invalid queries must not reach upstream, got %d calls", len(backend.calls))
	}
}

func TestDashboardUpstreamErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	newDashboardRouter(&stubPipelineBackend{err: pipeline.ErrNotConfigured}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	newDashboardRouter(&stubPipelineBackend{err: errors.New("dial tcp: refused")}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}
