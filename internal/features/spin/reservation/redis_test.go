package reservation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, 100*time.Millisecond), mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)

	require.NoError(t, s.Put(ctx, newReservation("ABC123", "t1", now, 10*time.Minute)))
	assert.True(t, mr.Exists(makeReservationKey("ABC123")))
	assert.Greater(t, mr.TTL(makeReservationKey("ABC123")), 9*time.Minute)

	r, err := s.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "t1", r.Token)
	assert.Equal(t, int64(7), r.PrizeID)
	assert.Equal(t, 3, r.WheelIndex)
	assert.Equal(t, "₺1000", r.PrizeLabel)
	assert.Equal(t, "yasin", r.Username)
	assert.True(t, r.CreatedAt.Equal(now))
}

func TestRedisStore_PutSupersedes(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, newReservation("ABC123", "t1", time.Now(), time.Minute)))
	require.NoError(t, s.Put(ctx, newReservation("ABC123", "t2", time.Now(), time.Minute)))

	ok, err := s.Delete(ctx, "ABC123", "t1")
	require.NoError(t, err)
	assert.False(t, ok)

	r, err := s.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "t2", r.Token)

	ok, err = s.Delete(ctx, "ABC123", "t2")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.Get(ctx, "ABC123")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_ExpiresWithTTL(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, newReservation("ABC123", "t1", time.Now(), time.Minute)))
	mr.FastForward(2 * time.Minute)

	_, err := s.Get(ctx, "ABC123")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_PutAlreadyExpiredIsDropped(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, newReservation("ABC123", "t1", time.Now().Add(-time.Hour), time.Minute)))
	assert.False(t, mr.Exists(makeReservationKey("ABC123")))
}

func TestRedisStore_LockIsExclusive(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	unlock, err := s.Lock(ctx, "ABC123")
	require.NoError(t, err)
	assert.True(t, mr.Exists(makeLockKey("ABC123")))

	_, err = s.Lock(ctx, "ABC123")
	assert.ErrorIs(t, err, ErrLockTimeout)

	unlock()
	assert.False(t, mr.Exists(makeLockKey("ABC123")))

	again, err := s.Lock(ctx, "ABC123")
	require.NoError(t, err)
	again()
}

func TestRedisStore_UnlockDoesNotStealForeignLock(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	unlock, err := s.Lock(ctx, "ABC123")
	require.NoError(t, err)

	// Simulate the lock expiring and another instance taking it over.
	require.NoError(t, mr.Set(makeLockKey("ABC123"), "someone-else"))
	unlock()

	got, err := mr.Get(makeLockKey("ABC123"))
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}
