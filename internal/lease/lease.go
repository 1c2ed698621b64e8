// Package lease guards a conversion so that only one sync pass renders a
// given document at a time.
package lease

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker acquires a per-key lease. ok is false when another holder owns it.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

// releaseScript deletes the lease only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

func NewRedis(addr, password string, db int, ttl time.Duration) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisWithClient(rdb, ttl)
}

func NewRedisWithClient(client redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl, prefix: "lecturepdf:lease:"}
}

func (r *Redis) Acquire(ctx context.Context, key string) (func(), bool, error) {
	leaseKey := r.prefix + key
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, leaseKey, token, r.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lease %s: %w", key, err)
	}
	if !ok {
		return func() {}, false, nil
	}

	release := func() {
		// The request context may be gone by now.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, r.client, []string{leaseKey}, token).Err()
	}
	return release, true, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
