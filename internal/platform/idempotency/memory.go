package idempotency

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps reservations in process. It suits single-instance and local runs.
type MemoryStore struct {
	mu    sync.Mutex
	cache *gocache.Cache
}

// NewMemoryStore constructs an empty store. Expired entries are removed by CleanupExpired.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: gocache.New(DefaultTTL, 0)}
}

// Reserve implements Store.
func (s *MemoryStore) Reserve(_ context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, Record, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if value, ok := s.cache.Get(key); ok {
		record := value.(Record)
		if now.Before(record.ExpiresAt) {
			if record.Fingerprint != fingerprint {
				return 0, Record{}, ErrFingerprintMismatch
			}
			if record.Completed {
				return ReservationCompleted, record, nil
			}
			return ReservationPending, record, nil
		}
	}

	record := Record{Fingerprint: fingerprint, ExpiresAt: now.Add(ttl)}
	s.cache.Set(key, record, ttl)
	return ReservationNew, record, nil
}

// Complete implements Store.
func (s *MemoryStore) Complete(_ context.Context, key string, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value, ok := s.cache.Get(key); ok && value.(Record).Fingerprint != record.Fingerprint {
		return ErrFingerprintMismatch
	}
	record.Completed = true
	record.Body = append([]byte(nil), record.Body...)
	s.cache.Set(key, record, gocache.DefaultExpiration)
	return nil
}

// Release implements Store.
func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Delete(key)
	return nil
}

// CleanupExpired implements Store. limit is ignored; every expired entry is dropped.
func (s *MemoryStore) CleanupExpired(_ context.Context, now time.Time, _ int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.cache.ItemCount()
	for key, item := range s.cache.Items() {
		if record, ok := item.Object.(Record); ok && !now.Before(record.ExpiresAt) {
			s.cache.Delete(key)
		}
	}
	s.cache.DeleteExpired()
	return before - s.cache.ItemCount(), nil
}
