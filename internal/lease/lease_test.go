package lease

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	locker := NewRedisWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), ttl)
	t.Cleanup(func() { _ = locker.Close() })
	return locker, mr
}

func TestRedisAcquireIsExclusive(t *testing.T) {
	ctx := context.Background()
	locker, mr := newTestRedis(t, time.Minute)

	release, ok, err := locker.Acquire(ctx, "lecture_1.pdf")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("lecturepdf:lease:lecture_1.pdf"))
	assert.Equal(t, time.Minute, mr.TTL("lecturepdf:lease:lecture_1.pdf"))

	_, ok, err = locker.Acquire(ctx, "lecture_1.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = locker.Acquire(ctx, "lecture_2.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	release()
	assert.False(t, mr.Exists("lecturepdf:lease:lecture_1.pdf"))

	_, ok, err = locker.Acquire(ctx, "lecture_1.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisStaleReleaseKeepsNewHolder(t *testing.T) {
	ctx := context.Background()
	locker, mr := newTestRedis(t, time.Second)
	key := "lecturepdf:lease:lecture_1.pdf"

	staleRelease, ok, err := locker.Acquire(ctx, "lecture_1.pdf")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	require.False(t, mr.Exists(key))

	release, ok, err := locker.Acquire(ctx, "lecture_1.pdf")
	require.NoError(t, err)
	require.True(t, ok)
	holder, err := mr.Get(key)
	require.NoError(t, err)

	staleRelease()

	current, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, holder, current)

	release()
	assert.False(t, mr.Exists(key))
}

func TestRedisAcquireSurfacesConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	locker := NewRedisWithClient(client, time.Minute)
	t.Cleanup(func() { _ = locker.Close() })

	_, ok, err := locker.Acquire(context.Background(), "a.pdf")
	assert.Error(t, err)
	assert.False(t, ok)
}
