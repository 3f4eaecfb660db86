package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Teletobimy/landingpage-irunica/internal/services"
)

type stubNotificationService struct {
	mu            sync.Mutex
	sendAssetsFn  func(ctx context.Context, cmd services.AssetsEmailCommand) (services.NotificationReceipt, error)
	leadAlertFn   func(ctx context.Context, cmd services.LeadAlertCommand) (services.NotificationReceipt, error)
	clickAlertFn  func(ctx context.Context, cmd services.ClickAlertCommand) (services.NotificationReceipt, error)
	assetCommands []services.AssetsEmailCommand
	leadCommands  []services.LeadAlertCommand
	clicks        []services.ClickAlertCommand
}

var sentAt = time.Date(2025, 5, 4, 9, 0, 0, 0, time.UTC)

func (s *stubNotificationService) SendAssets(ctx context.Context, cmd services.AssetsEmailCommand) (services.NotificationReceipt, error) {
	s.mu.Lock()
	s.assetCommands = append(s.assetCommands, cmd)
	s.mu.Unlock()
	if s.sendAssetsFn != nil {
		return s.sendAssetsFn(ctx, cmd)
	}
	return services.NotificationReceipt{MessageID: "msg-assets", SentAt: sentAt}, nil
}

func (s *stubNotificationService) SendLeadAlert(ctx context.Context, cmd services.LeadAlertCommand) (services.NotificationReceipt, error) {
	s.mu.Lock()
	s.leadCommands = append(s.leadCommands, cmd)
	s.mu.Unlock()
	if s.leadAlertFn != nil {
		return s.leadAlertFn(ctx, cmd)
	}
	return services.NotificationReceipt{MessageID: "msg-lead", SentAt: sentAt}, nil
}

func (s *stubNotificationService) SendClickAlert(ctx context.Context, cmd services.ClickAlertCommand) (services.NotificationReceipt, error) {
	s.mu.Lock()
	s.clicks = append(s.clicks, cmd)
	s.mu.Unlock()
	if s.clickAlertFn != nil {
		return s.clickAlertFn(ctx, cmd)
	}
	return services.NotificationReceipt{MessageID: "msg-click", SentAt: sentAt}, nil
}

func newNotificationRouter(svc services.NotificationService, opts ...NotificationOption) chi.Router {
	r := chi.NewRouter()
	NewNotificationHandlers(svc, opts...).Routes(r)
	return r
}

func postJSON(router http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestProposalStepOneSendsAssets(t *testing.T) {
	svc := &stubNotificationService{}
	rec := postJSON(newNotificationRouter(svc), "/proposals", `{"step":1,"email":"buyer@acme.com","companyName":"Acme","vipId":"acme-001","imageUrls":["https://cdn/p1.png","","https://cdn/p2.png"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.assetCommands) != 1 {
		t.Fatalf("expected one assets e-mail, got %d", len(svc.assetCommands))
	}
	cmd := svc.assetCommands[0]
	if cmd.Email != "buyer@acme.com" || cmd.CompanyName != "Acme" || cmd.VIPID != "acme-001" {
		t.Fatalf("unexpected command %+v", cmd)
	}
	if len(cmd.Images) != 2 || cmd.Images[0].ID != "p1" || cmd.Images[1].ID != "p3" {
		t.Fatalf("unexpected images %+v", cmd.Images)
	}

	var payload notificationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !payload.Success || payload.MessageID != "msg-assets" || payload.SentAt == "" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestProposalStepTwoSendsLeadAlert(t *testing.T) {
	svc := &stubNotificationService{}
	rec := postJSON(newNotificationRouter(svc), "/proposals", `{"step":2,"name":"Jane","email":"jane@acme.com","phone":"+1 555","message":"Call me","companyName":"Acme"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(svc.leadCommands) != 1 || svc.leadCommands[0].Name != "Jane" || svc.leadCommands[0].Message != "Call me" {
		t.Fatalf("unexpected lead commands %+v", svc.leadCommands)
	}
}

func TestProposalErrors(t *testing.T) {
	svc := &stubNotificationService{
		sendAssetsFn: func(context.Context, services.AssetsEmailCommand) (services.NotificationReceipt, error) {
			return services.NotificationReceipt{}, fmt.Errorf("%w: email is invalid", services.ErrInvalidInput)
		},
		leadAlertFn: func(context.Context, services.LeadAlertCommand) (services.NotificationReceipt, error) {
			return services.NotificationReceipt{}, errors.New("ses: throttled")
		},
	}
	router := newNotificationRouter(svc)

	cases := []struct {
		body   string
		status int
	}{
		{`{"step":3}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
		{``, http.StatusBadRequest},
		{`{"step":1,"email":"nope"}`, http.StatusBadRequest},
		{`{"step":2,"name":"Jane"}`, http.StatusBadGateway},
	}
	for _, tc := range cases {
		if rec := postJSON(router, "/proposals", tc.body); rec.Code != tc.status {
			t.Fatalf("%q: expected %d, got %d", tc.body, tc.status, rec.Code)
		}
	}
}

func TestClickAlwaysAnswers200(t *testing.T) {
	svc := &stubNotificationService{}
	router := newNotificationRouter(svc)

	rec := postJSON(router, "/clicks", `{"buttonName":"Get Samples","companyName":"Acme","vipId":"acme-001"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"success":true`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if len(svc.clicks) != 1 || svc.clicks[0].ButtonName != "Get Samples" {
		t.Fatalf("unexpected clicks %+v", svc.clicks)
	}

	svc.clickAlertFn = func(context.Context, services.ClickAlertCommand) (services.NotificationReceipt, error) {
		return services.NotificationReceipt{}, errors.New("ses down")
	}
	for _, body := range []string{`{"buttonName":"Get Samples"}`, `garbage`, ``} {
		rec := postJSON(router, "/clicks", body)
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"success":false`) {
			t.Fatalf("%q: unexpected response %d %s", body, rec.Code, rec.Body.String())
		}
	}
}

func TestNotificationMiddlewareScopes(t *testing.T) {
	var proposalHits, throttleHits int
	countProposal := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			proposalHits++
			next.ServeHTTP(w, r)
		})
	}
	countThrottle := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			throttleHits++
			next.ServeHTTP(w, r)
		})
	}
	router := newNotificationRouter(&stubNotificationService{}, WithProposalMiddlewares(countProposal), WithNotificationThrottle(countThrottle))

	postJSON(router, "/proposals", `{"step":2,"name":"Jane","email":"jane@acme.com"}`)
	postJSON(router, "/clicks", `{"buttonName":"Get Samples"}`)

	if proposalHits != 1 {
		t.Fatalf("expected proposal middleware once, got %d", proposalHits)
	}
	if throttleHits != 2 {
		t.Fatalf("expected throttle on both posts, got %d", throttleHits)
	}
}
