package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
	"github.com/Teletobimy/landingpage-irunica/internal/repositories"
)

func newTestRepository(t *testing.T) (*RateLimitRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo, err := NewRateLimitRepository(client, "irunica:")
	require.NoError(t, err)
	return repo, mr
}

func TestConsumeStopsAtDailyLimit(t *testing.T) {
	repo, mr := newTestRepository(t)
	ctx := context.Background()
	day := time.Date(2025, time.July, 1, 8, 0, 0, 0, time.UTC)
	const limit = 3

	for i := 1; i <= limit; i++ {
		counter, err := repo.Consume(ctx, "198.51.100.4", day, limit)
		require.NoError(t, err)
		assert.True(t, counter.Allowed, "call %d should be allowed", i)
		assert.Equal(t, i, counter.Count)
	}

	denied, err := repo.Consume(ctx, "198.51.100.4", day, limit)
	require.NoError(t, err)
	assert.False(t, denied.Allowed)
	assert.Equal(t, limit, denied.Count)

	stored, err := mr.Get("irunica:" + domain.RateLimitKey("198.51.100.4", day))
	require.NoError(t, err)
	assert.Equal(t, "3", stored, "denied calls must not increment the counter")
}

func TestConsumeUsesSeparateKeyPerDay(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	day := time.Date(2025, time.July, 1, 8, 0, 0, 0, time.UTC)

	_, err := repo.Consume(ctx, "198.51.100.4", day, 1)
	require.NoError(t, err)
	exhausted, err := repo.Consume(ctx, "198.51.100.4", day, 1)
	require.NoError(t, err)
	require.False(t, exhausted.Allowed)

	nextDay, err := repo.Consume(ctx, "198.51.100.4", day.AddDate(0, 0, 1), 1)
	require.NoError(t, err)
	assert.True(t, nextDay.Allowed)
	assert.Equal(t, 1, nextDay.Count)
}

func TestConsumeSetsExpiry(t *testing.T) {
	repo, mr := newTestRepository(t)
	day := time.Date(2025, time.July, 1, 8, 0, 0, 0, time.UTC)

	_, err := repo.Consume(context.Background(), "198.51.100.4", day, 10)
	require.NoError(t, err)

	key := "irunica:" + domain.RateLimitKey("198.51.100.4", day)
	assert.Equal(t, counterTTL, mr.TTL(key))

	mr.FastForward(counterTTL + time.Second)
	assert.False(t, mr.Exists(key))
}

func TestConsumeRejectsInvalidInput(t *testing.T) {
	repo, _ := newTestRepository(t)

	_, err := repo.Consume(context.Background(), " ", time.Now(), 10)
	var rlErr *repositories.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, repositories.RateLimitErrorInvalidInput, rlErr.Code)

	_, err = repo.Consume(context.Background(), "10.0.0.1", time.Now(), 0)
	require.ErrorAs(t, err, &rlErr)
}

func TestConsumeSurfacesConnectionErrors(t *testing.T) {
	repo, mr := newTestRepository(t)
	mr.Close()

	_, err := repo.Consume(context.Background(), "10.0.0.1", time.Now(), 10)
	assert.Error(t, err)
}
