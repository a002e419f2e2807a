package lock

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/gamewiki/issuestore/internal/usecase"
)

const (
	redisKeyPrefix     = "issuestore:lock:"
	defaultLease       = 30 * time.Second
	defaultRetryPeriod = 50 * time.Millisecond
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a lease lock shared by every process using the same redis.
// A holder that outlives the lease loses the lock silently.
type Redis struct {
	rdb   *redis.Client
	lease time.Duration
	retry time.Duration
}

var _ usecase.Locker = (*Redis)(nil)

func NewRedis(rdb *redis.Client, lease time.Duration) *Redis {
	if lease <= 0 {
		lease = defaultLease
	}
	return &Redis{rdb: rdb, lease: lease, retry: defaultRetryPeriod}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := redisKeyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(r.retry)
	defer ticker.Stop()

	for {
		ok, err := r.rdb.SetNX(ctx, redisKey, token, r.lease).Result()
		if err != nil {
			return nil, errors.Wrap(err, "lock.Redis.Lock: SETNX failed")
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func() {
		// release even if the request context is already cancelled
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, r.rdb, []string{redisKey}, token).Err(); err != nil {
			slog.WarnContext(
				ctx, "failed to release redis lock",
				slog.String("error", err.Error()),
				slog.String("key", key),
				slog.String("module", "lock"),
			)
		}
	}, nil
}
