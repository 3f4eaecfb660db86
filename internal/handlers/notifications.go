package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
	"github.com/Teletobimy/landingpage-irunica/internal/platform/httpx"
	"github.com/Teletobimy/landingpage-irunica/internal/platform/requestctx"
	"github.com/Teletobimy/landingpage-irunica/internal/services"
)

const maxNotificationRequestBody = 32 * 1024

// NotificationHandlers accepts the lead-capture form and call-to-action click posts.
type NotificationHandlers struct {
	notify       services.NotificationService
	proposalMW   []func(http.Handler) http.Handler
	publicPostMW []func(http.Handler) http.Handler
}

// NotificationOption customises NotificationHandlers.
type NotificationOption func(*NotificationHandlers)

// WithProposalMiddlewares wraps POST /proposals only, e.g. with the idempotency middleware.
func WithProposalMiddlewares(mw ...func(http.Handler) http.Handler) NotificationOption {
	return func(h *NotificationHandlers) {
		h.proposalMW = append(h.proposalMW, mw...)
	}
}

// WithNotificationThrottle wraps every notification post, e.g. with Throttle.
func WithNotificationThrottle(mw func(http.Handler) http.Handler) NotificationOption {
	return func(h *NotificationHandlers) {
		if mw != nil {
			h.publicPostMW = append(h.publicPostMW, mw)
		}
	}
}

// NewNotificationHandlers constructs the notification handler set.
func NewNotificationHandlers(notify services.NotificationService, opts ...NotificationOption) *NotificationHandlers {
	h := &NotificationHandlers{notify: notify}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers POST /proposals and POST /clicks.
func (h *NotificationHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	route := r.With(h.publicPostMW...)
	route.With(h.proposalMW...).Post("/proposals", h.propose)
	route.Post("/clicks", h.trackClick)
}

type proposalRequest struct {
	Step        int      `json:"step"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Phone       string   `json:"phone"`
	Message     string   `json:"message"`
	CompanyName string   `json:"companyName"`
	VIPID       string   `json:"vipId"`
	ImageURLs   []string `json:"imageUrls"`
}

type clickRequest struct {
	ButtonName  string `json:"buttonName"`
	CompanyName string `json:"companyName"`
	VIPID       string `json:"vipId"`
}

type notificationResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	SentAt    string `json:"sentAt,omitempty"`
}

func (h *NotificationHandlers) propose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.notify == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "notification service not available", http.StatusServiceUnavailable))
		return
	}

	var req proposalRequest
	if !decodeBody(ctx, w, r, maxNotificationRequestBody, &req) {
		return
	}

	var (
		receipt services.NotificationReceipt
		err     error
	)
	switch req.Step {
	case 1:
		receipt, err = h.notify.SendAssets(ctx, services.AssetsEmailCommand{
			Email:       req.Email,
			CompanyName: req.CompanyName,
			VIPID:       req.VIPID,
			Images:      imagesFromURLs(req.ImageURLs),
		})
	case 2:
		receipt, err = h.notify.SendLeadAlert(ctx, services.LeadAlertCommand{
			Name:        req.Name,
			Email:       req.Email,
			Phone:       req.Phone,
			Message:     req.Message,
			CompanyName: req.CompanyName,
			VIPID:       req.VIPID,
		})
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "step must be 1 or 2", http.StatusBadRequest))
		return
	}
	if err != nil {
		writeNotificationError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, notificationResponse{
		Success:   true,
		MessageID: receipt.MessageID,
		SentAt:    formatTime(receipt.SentAt),
	})
}

// trackClick never fails the caller; the page fires it and moves on.
func (h *NotificationHandlers) trackClick(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.notify == nil {
		writeJSONResponse(w, http.StatusOK, notificationResponse{Success: false})
		return
	}

	body, err := readLimitedBody(r, maxNotificationRequestBody)
	if err != nil {
		writeJSONResponse(w, http.StatusOK, notificationResponse{Success: false})
		return
	}
	var req clickRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSONResponse(w, http.StatusOK, notificationResponse{Success: false})
		return
	}

	receipt, err := h.notify.SendClickAlert(ctx, services.ClickAlertCommand{
		ButtonName:  req.ButtonName,
		CompanyName: req.CompanyName,
		VIPID:       req.VIPID,
	})
	if err != nil {
		requestctx.Logger(ctx).Warn("click alert not sent", zap.String("button", req.ButtonName), zap.Error(err))
		writeJSONResponse(w, http.StatusOK, notificationResponse{Success: false})
		return
	}
	writeJSONResponse(w, http.StatusOK, notificationResponse{
		Success:   true,
		MessageID: receipt.MessageID,
		SentAt:    formatTime(receipt.SentAt),
	})
}

// imagesFromURLs keys posted URLs by render position.
func imagesFromURLs(urls []string) []services.ProductImage {
	out := make([]services.ProductImage, 0, len(urls))
	for i, raw := range urls {
		url := strings.TrimSpace(raw)
		if url == "" {
			continue
		}
		id := ""
		if i < len(domain.ImageIDs) {
			id = domain.ImageIDs[i]
		}
		out = append(out, services.ProductImage{ID: id, URL: url})
	}
	return out
}

func writeNotificationError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("email_error", "email service error", http.StatusBadGateway))
	}
}
