//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hameedsk381/voice-task-ai/internal/domain"
	redisstore "github.com/hameedsk381/voice-task-ai/internal/redis"
)

func TestRedis_StateStore_SetGet(t *testing.T) {
	client := redisstore.NewClient(testRedisAddr)
	t.Cleanup(func() { _ = client.Close() })
	states := redisstore.NewStateStore(client)
	ctx := context.Background()

	taskID := uuid.New().String()
	require.NoError(t, states.SetStatus(ctx, taskID, domain.StatusInProgress))

	got, err := states.GetStatus(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, got)
}

func TestRedis_StateStore_MissingTask(t *testing.T) {
	client := redisstore.NewClient(testRedisAddr)
	t.Cleanup(func() { _ = client.Close() })
	states := redisstore.NewStateStore(client)

	_, err := states.GetStatus(context.Background(), uuid.New().String())
	require.Error(t, err)

	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestRedis_Locker_SerializesHolders(t *testing.T) {
	client := redisstore.NewClient(testRedisAddr)
	t.Cleanup(func() { _ = client.Close() })
	locks := redisstore.NewLocker(client)
	ctx := context.Background()

	key := "worker-" + uuid.New().String()

	release, err := locks.Acquire(ctx, key)
	require.NoError(t, err)

	// A second acquire must block until the first holder releases.
	blockedCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	_, err = locks.Acquire(blockedCtx, key)
	require.Error(t, err, "second holder should time out while lock is held")

	release()

	release2, err := locks.Acquire(ctx, key)
	require.NoError(t, err, "lock should be free after release")
	release2()
}

func TestRedis_RateLimiter_EnforcesWindow(t *testing.T) {
	client := redisstore.NewClient(testRedisAddr)
	t.Cleanup(func() { _ = client.Close() })
	limiter := redisstore.NewRateLimiter(client, 3, time.Minute)
	ctx := context.Background()

	caller := "+1555" + uuid.New().String()[:8]

	for i := range 3 {
		ok, err := limiter.Allow(ctx, caller)
		require.NoError(t, err)
		assert.True(t, ok, "request %d should be within the limit", i+1)
	}

	ok, err := limiter.Allow(ctx, caller)
	require.NoError(t, err)
	assert.False(t, ok, "fourth request in the window should be denied")

	// A different caller has an independent budget.
	ok, err = limiter.Allow(ctx, caller+"-other")
	require.NoError(t, err)
	assert.True(t, ok)
}
