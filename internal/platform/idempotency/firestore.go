package idempotency

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/Teletobimy/landingpage-irunica/internal/platform/firestore"
)

const defaultCollection = "idempotency_keys"

// FirestoreStore shares reservations across instances through Firestore transactions.
type FirestoreStore struct {
	provider *pfirestore.Provider
	records  *pfirestore.Collection[firestoreRecord]
}

// NewFirestoreStore constructs a store over the idempotency_keys collection.
func NewFirestoreStore(provider *pfirestore.Provider) *FirestoreStore {
	return &FirestoreStore{
		provider: provider,
		records:  pfirestore.NewCollection[firestoreRecord](provider, defaultCollection, nil),
	}
}

// Reserve implements Store.
func (s *FirestoreStore) Reserve(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, Record, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	ref, err := s.records.Doc(ctx, sha256Hex([]byte(key)))
	if err != nil {
		return 0, Record{}, err
	}

	var (
		state  Reservation
		result Record
	)
	err = s.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil && !pfirestore.IsNotFound(err) {
			return err
		}
		if err == nil {
			var existing firestoreRecord
			if err := snap.DataTo(&existing); err != nil {
				return err
			}
			if now.Before(existing.ExpiresAt) {
				if existing.Fingerprint != fingerprint {
					return ErrFingerprintMismatch
				}
				result = existing.toRecord()
				state = ReservationPending
				if existing.Completed {
					state = ReservationCompleted
				}
				return nil
			}
		}

		fresh := firestoreRecord{Fingerprint: fingerprint, CreatedAt: now.UTC(), ExpiresAt: now.Add(ttl).UTC()}
		result, state = fresh.toRecord(), ReservationNew
		return tx.Set(ref, fresh)
	})
	return state, result, err
}

// Complete implements Store.
func (s *FirestoreStore) Complete(ctx context.Context, key string, record Record) error {
	return s.records.Merge(ctx, sha256Hex([]byte(key)), map[string]any{
		"fingerprint": record.Fingerprint,
		"completed":   true,
		"status":      record.Status,
		"contentType": record.ContentType,
		"body":        record.Body,
		"expiresAt":   record.ExpiresAt.UTC(),
	})
}

// Release implements Store.
func (s *FirestoreStore) Release(ctx context.Context, key string) error {
	return s.records.Delete(ctx, sha256Hex([]byte(key)))
}

// CleanupExpired implements Store.
func (s *FirestoreStore) CleanupExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.records.DeleteWhere(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("expiresAt", "<=", now.UTC()).Limit(limit)
	})
}

type firestoreRecord struct {
	Fingerprint string    `firestore:"fingerprint"`
	Completed   bool      `firestore:"completed"`
	Status      int       `firestore:"status"`
	ContentType string    `firestore:"contentType"`
	Body        []byte    `firestore:"body"`
	CreatedAt   time.Time `firestore:"createdAt"`
	ExpiresAt   time.Time `firestore:"expiresAt"`
}

func (r firestoreRecord) toRecord() Record {
	return Record{
		Fingerprint: r.Fingerprint,
		Completed:   r.Completed,
		Status:      r.Status,
		ContentType: r.ContentType,
		Body:        r.Body,
		ExpiresAt:   r.ExpiresAt,
	}
}
