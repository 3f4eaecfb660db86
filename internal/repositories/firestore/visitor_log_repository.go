package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/oklog/ulid/v2"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
	pfirestore "github.com/Teletobimy/landingpage-irunica/internal/platform/firestore"
	"github.com/Teletobimy/landingpage-irunica/internal/repositories"
)

const (
	visitorLogsCollection = "visitor_logs"
	defaultVisitorAgent   = "server-side-detected"
)

// VisitorLogRepository appends landing page views to visitor_logs.
type VisitorLogRepository struct {
	logs *pfirestore.Collection[map[string]any]
}

var _ repositories.VisitorLogRepository = (*VisitorLogRepository)(nil)

// NewVisitorLogRepository constructs a Firestore-backed visitor log.
func NewVisitorLogRepository(provider *pfirestore.Provider) (*VisitorLogRepository, error) {
	if provider == nil {
		return nil, errors.New("visitor log repository requires firestore provider")
	}
	return &VisitorLogRepository{
		logs: pfirestore.NewCollection[map[string]any](provider, visitorLogsCollection, nil),
	}, nil
}

// Append writes one view under a time-ordered ULID document id.
func (r *VisitorLogRepository) Append(ctx context.Context, entry domain.VisitorLog) error {
	vipID := strings.TrimSpace(entry.VIPID)
	if vipID == "" {
		return errors.New("visitor log repository: vip id is required")
	}
	agent := strings.TrimSpace(entry.UserAgent)
	if agent == "" {
		agent = defaultVisitorAgent
	}
	var timestamp any = firestore.ServerTimestamp
	if !entry.Timestamp.IsZero() {
		timestamp = entry.Timestamp.UTC()
	}
	return r.logs.Create(ctx, ulid.Make().String(), map[string]any{
		"vipId":     vipID,
		"timestamp": timestamp,
		"userAgent": agent,
	})
}
