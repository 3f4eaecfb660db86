package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// DefaultTTL is how long a completed response stays replayable.
const DefaultTTL = 24 * time.Hour

// Reservation is the outcome of claiming a key.
type Reservation int

const (
	// ReservationNew means the caller owns the key and should run the handler.
	ReservationNew Reservation = iota
	// ReservationCompleted means a stored response should be replayed.
	ReservationCompleted
	// ReservationPending means another request holds the key.
	ReservationPending
)

// Record is the persisted state behind one key.
type Record struct {
	Fingerprint string
	Completed   bool
	Status      int
	ContentType string
	Body        []byte
	ExpiresAt   time.Time
}

// Store persists reservations and completed responses.
type Store interface {
	Reserve(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, Record, error)
	Complete(ctx context.Context, key string, record Record) error
	Release(ctx context.Context, key string) error
	CleanupExpired(ctx context.Context, now time.Time, limit int) (int, error)
}

// ErrFingerprintMismatch is returned when a key is reused for a different request.
var ErrFingerprintMismatch = errors.New("idempotency: key reserved for a different request")

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
