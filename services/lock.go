package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const slotLockTTL = 10 * time.Second

// SlotLocker serialises booking attempts for one artist/day across instances.
// Acquire never waits: a held lock fails fast with BOOKING_IN_PROGRESS.
type SlotLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// NoopSlotLocker relies on the database transaction alone.
type NoopSlotLocker struct{}

func (NoopSlotLocker) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

// RedisSlotLocker takes a short-lived SET NX lock with an owner token.
type RedisSlotLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSlotLocker(client *redis.Client) *RedisSlotLocker {
	return &RedisSlotLocker{client: client, ttl: slotLockTTL}
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func (l *RedisSlotLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, internalError(err, "acquire slot lock")
	}
	if !ok {
		return nil, newError(CodeBookingInProgress, "another booking for this slot is in progress, retry shortly")
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to release slot lock")
		}
	}, nil
}

func slotLockKey(artistID uuid.UUID, date string) string {
	return fmt.Sprintf("salon:slot-lock:{%s}:%s", artistID, date)
}
