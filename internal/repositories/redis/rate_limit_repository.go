// Package redis provides the Redis-backed daily rate limit counter used when
// API_RATELIMIT_BACKEND=redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
	"github.com/Teletobimy/landingpage-irunica/internal/repositories"
)

// counterTTL outlives the calendar day so late requests near midnight still see their counter.
const counterTTL = 48 * time.Hour

// consumeScript increments the counter only while it is below the limit, so a denied call
// leaves the stored count unchanged.
var consumeScript = goredis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current >= tonumber(ARGV[1]) then
  return {current, 0}
end
current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return {current, 1}
`)

// RateLimitRepository keeps per caller daily counters in Redis.
type RateLimitRepository struct {
	client goredis.Scripter
	prefix string
}

var _ repositories.RateLimitRepository = (*RateLimitRepository)(nil)

// NewRateLimitRepository wraps a Redis client. Keys are namespaced with prefix.
func NewRateLimitRepository(client goredis.Scripter, prefix string) (*RateLimitRepository, error) {
	if client == nil {
		return nil, errors.New("redis rate limit repository requires client")
	}
	return &RateLimitRepository{client: client, prefix: strings.TrimSpace(prefix)}, nil
}

// Consume atomically checks and increments the (callerIP, day) counter.
func (r *RateLimitRepository) Consume(ctx context.Context, callerIP string, day time.Time, limit int) (domain.RateLimitCounter, error) {
	if strings.TrimSpace(callerIP) == "" {
		return domain.RateLimitCounter{}, repositories.NewRateLimitError(repositories.RateLimitErrorInvalidInput, "caller ip is required", nil)
	}
	if limit <= 0 {
		return domain.RateLimitCounter{}, repositories.NewRateLimitError(repositories.RateLimitErrorInvalidInput, fmt.Sprintf("limit must be positive, got %d", limit), nil)
	}

	key := domain.RateLimitKey(callerIP, day)
	values, err := consumeScript.Run(ctx, r.client, []string{r.prefix + key}, limit, counterTTL.Milliseconds()).Int64Slice()
	if err != nil {
		return domain.RateLimitCounter{}, fmt.Errorf("redis rate limit consume %s: %w", key, err)
	}
	if len(values) != 2 {
		return domain.RateLimitCounter{}, repositories.NewRateLimitError(repositories.RateLimitErrorCorrupt, fmt.Sprintf("unexpected script reply %v", values), nil)
	}
	return domain.RateLimitCounter{
		Key:     key,
		Count:   int(values[0]),
		Allowed: values[1] == 1,
	}, nil
}

// DeleteBefore is a no-op: Redis counters expire on their own.
func (r *RateLimitRepository) DeleteBefore(context.Context, time.Time) (int, error) {
	return 0, nil
}
