package reservation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"promo-backend/internal/common/logger"
	"promo-backend/internal/features/spin/models"
)

const (
	keyPrefixReservation = "spin:reservation:"
	keyPrefixLock        = "spin:lock:"

	defaultLockTTL    = 15 * time.Second
	lockRetryInterval = 25 * time.Millisecond
)

var (
	compareAndDelete = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'token') == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

	compareAndRelease = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)
)

// RedisStore shares reservations and per-code locks across API instances.
type RedisStore struct {
	client   *redis.Client
	lockWait time.Duration
	lockTTL  time.Duration
}

func NewRedisStore(client *redis.Client, lockWait time.Duration) *RedisStore {
	return &RedisStore{client: client, lockWait: lockWait, lockTTL: defaultLockTTL}
}

func makeReservationKey(code string) string {
	return keyPrefixReservation + code
}

func makeLockKey(code string) string {
	return keyPrefixLock + code
}

func (s *RedisStore) Put(ctx context.Context, r *models.Reservation) error {
	key := makeReservationKey(r.Code)
	ttl := time.Until(r.ExpiresAt)
	if ttl <= 0 {
		return s.client.Del(ctx, key).Err()
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"token", r.Token,
			"prize_id", r.PrizeID,
			"wheel_index", r.WheelIndex,
			"prize_label", r.PrizeLabel,
			"username", r.Username,
			"created_at", r.CreatedAt.UnixMilli(),
			"expires_at", r.ExpiresAt.UnixMilli(),
		)
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store reservation: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, code string) (*models.Reservation, error) {
	fields, err := s.client.HGetAll(ctx, makeReservationKey(code)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	r, err := parseReservation(code, fields)
	if err != nil {
		return nil, err
	}
	if r.Expired(time.Now()) {
		return nil, ErrNotFound
	}
	return r, nil
}

func parseReservation(code string, fields map[string]string) (*models.Reservation, error) {
	prizeID, err := strconv.ParseInt(fields["prize_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt reservation %s: prize_id: %w", code, err)
	}
	wheelIndex, err := strconv.Atoi(fields["wheel_index"])
	if err != nil {
		return nil, fmt.Errorf("corrupt reservation %s: wheel_index: %w", code, err)
	}
	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt reservation %s: created_at: %w", code, err)
	}
	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt reservation %s: expires_at: %w", code, err)
	}

	return &models.Reservation{
		Code:       code,
		Token:      fields["token"],
		PrizeID:    prizeID,
		WheelIndex: wheelIndex,
		PrizeLabel: fields["prize_label"],
		Username:   fields["username"],
		CreatedAt:  time.UnixMilli(createdAt),
		ExpiresAt:  time.UnixMilli(expiresAt),
	}, nil
}

func (s *RedisStore) Delete(ctx context.Context, code, token string) (bool, error) {
	n, err := compareAndDelete.Run(ctx, s.client, []string{makeReservationKey(code)}, token).Int()
	if err != nil {
		return false, fmt.Errorf("failed to delete reservation: %w", err)
	}
	return n == 1, nil
}

// Lock spins on SET NX until lockWait elapses. The lock key carries its own TTL
// so a crashed holder cannot wedge a code forever.
func (s *RedisStore) Lock(ctx context.Context, code string) (func(), error) {
	key := makeLockKey(code)
	owner := uuid.New().String()
	deadline := time.Now().Add(s.lockWait)

	for {
		ok, err := s.client.SetNX(ctx, key, owner, s.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}

	return func() {
		// The request context may already be cancelled by the time we release.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := compareAndRelease.Run(releaseCtx, s.client, []string{key}, owner).Err(); err != nil {
			logger.Warn().Err(err).Str("code", code).Msg("Failed to release reservation lock")
		}
	}, nil
}
