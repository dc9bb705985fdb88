package settlement

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Locker decides which engine instance runs a scheduler tick.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context), acquired bool, err error)
}

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another instance is left alone.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`

type RedisLocker struct {
	client redis.Cmdable
	token  func() string
}

func NewRedisLocker(client redis.Cmdable) *RedisLocker {
	return &RedisLocker{
		client: client,
		token:  uuid.NewString,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context), bool, error) {
	token := l.token()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) {
		if err := l.client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
			zap.L().Warn("failed to release scheduler lock", zap.String("key", key), zap.Error(err))
		}
	}
	return release, true, nil
}

// LocalLocker is used when Redis is not configured. It only keeps ticks of
// one process from overlapping.
type LocalLocker struct {
	mu sync.Mutex
}

func (l *LocalLocker) Acquire(_ context.Context, _ string, _ time.Duration) (func(context.Context), bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	return func(context.Context) { l.mu.Unlock() }, true, nil
}
