package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
	pfirestore "github.com/Teletobimy/landingpage-irunica/internal/platform/firestore"
	"github.com/Teletobimy/landingpage-irunica/internal/repositories"
)

const rateLimitsCollection = "rate_limits"

type rateLimitDocument struct {
	Count     int       `firestore:"count"`
	Date      string    `firestore:"date"`
	Timestamp time.Time `firestore:"timestamp"`
}

// RateLimitRepository keeps per caller daily counters in Firestore, one document per (ip, date).
type RateLimitRepository struct {
	provider *pfirestore.Provider
	counters *pfirestore.Collection[rateLimitDocument]
	txOpts   []pfirestore.TxOption
}

var _ repositories.RateLimitRepository = (*RateLimitRepository)(nil)

// NewRateLimitRepository constructs a Firestore-backed daily counter. txOpts bound each increment.
func NewRateLimitRepository(provider *pfirestore.Provider, txOpts ...pfirestore.TxOption) (*RateLimitRepository, error) {
	if provider == nil {
		return nil, errors.New("rate limit repository requires firestore provider")
	}
	return &RateLimitRepository{
		provider: provider,
		counters: pfirestore.NewCollection[rateLimitDocument](provider, rateLimitsCollection, nil),
		txOpts:   txOpts,
	}, nil
}

// Consume reads the counter and increments it inside one transaction. A counter already at limit is
// left untouched and reported as not allowed.
func (r *RateLimitRepository) Consume(ctx context.Context, callerIP string, day time.Time, limit int) (domain.RateLimitCounter, error) {
	if strings.TrimSpace(callerIP) == "" {
		return domain.RateLimitCounter{}, repositories.NewRateLimitError(repositories.RateLimitErrorInvalidInput, "caller ip is required", nil)
	}
	if limit <= 0 {
		return domain.RateLimitCounter{}, repositories.NewRateLimitError(repositories.RateLimitErrorInvalidInput, fmt.Sprintf("limit must be positive, got %d", limit), nil)
	}

	key := domain.RateLimitKey(callerIP, day)
	var result domain.RateLimitCounter

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.counters.Doc(ctx, key)
		if err != nil {
			return err
		}

		snapshot, err := tx.Get(ref)
		switch status.Code(err) {
		case codes.NotFound:
			result = domain.RateLimitCounter{Key: key, Count: 1, Allowed: true}
			return tx.Create(ref, map[string]any{
				"count":     1,
				"date":      domain.RateLimitDay(day),
				"timestamp": firestore.ServerTimestamp,
			})
		case codes.OK:
		default:
			return err
		}

		var doc rateLimitDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return repositories.NewRateLimitError(repositories.RateLimitErrorCorrupt, "decode "+key, err)
		}
		if doc.Count >= limit {
			result = domain.RateLimitCounter{Key: key, Count: doc.Count, Allowed: false}
			return nil
		}
		result = domain.RateLimitCounter{Key: key, Count: doc.Count + 1, Allowed: true}
		return tx.Update(ref, []firestore.Update{{Path: "count", Value: firestore.Increment(1)}})
	}, r.txOpts...)
	if err != nil {
		var rlErr *repositories.RateLimitError
		if errors.As(err, &rlErr) {
			rlErr.Op = "rate_limits.consume"
			return domain.RateLimitCounter{}, rlErr
		}
		return domain.RateLimitCounter{}, err
	}
	return result, nil
}

// DeleteBefore removes counters whose calendar date is earlier than cutoff's.
func (r *RateLimitRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return r.counters.DeleteWhere(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("date", "<", domain.RateLimitDay(cutoff))
	})
}
