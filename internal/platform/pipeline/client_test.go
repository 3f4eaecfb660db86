package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestClientRelaysRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pipeline/leads" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("limit") != "25" || r.URL.Query().Get("status") != "sent" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"success":true,"leads":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", time.Second, srv.Client())
	resp, err := client.Do(context.Background(), http.MethodGet, "/pipeline/leads", url.Values{"limit": {"25"}, "status": {"sent"}})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.Status != http.StatusAccepted {
		t.Fatalf("expected upstream status relayed, got %d", resp.Status)
	}
	if string(resp.Body) != `{"success":true,"leads":[]}` {
		t.Fatalf("unexpected body %s", resp.Body)
	}
}

func TestClientPostSendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, time.Second, srv.Client()).Do(context.Background(), http.MethodPost, "pipeline/start", nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func TestClientRejectsNonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, time.Second, srv.Client()).Do(context.Background(), http.MethodGet, "/status", nil); err == nil {
		t.Fatalf("expected error for html body")
	}
}

func TestClientNotConfigured(t *testing.T) {
	if _, err := NewClient("", time.Second, nil).Do(context.Background(), http.MethodGet, "/status", nil); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
