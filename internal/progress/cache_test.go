package progress

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickscore/internal/common/database"
	"quickscore/internal/common/errors"
	"quickscore/internal/common/logger"
	"quickscore/internal/onboarding"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { client.Close() })
	return NewCache(client, 600, logger.NewTestLogger(t)), mr
}

func TestCache_RoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)

	cache.OnProgress("USER_abc123", onboarding.Progress{
		Stage:                     onboarding.StageFinancial,
		Percent:                   60,
		CurrentAction:             "Analyzing financial data...",
		EstimatedSecondsRemaining: 20,
	})

	snapshot, err := cache.Get(context.Background(), "USER_abc123")

	require.NoError(t, err)
	assert.Equal(t, onboarding.StageFinancial, snapshot.Stage)
	assert.Equal(t, 60, snapshot.Percent)
	assert.Equal(t, "Analyzing financial data...", snapshot.CurrentAction)
}

func TestCache_LatestSnapshotWins(t *testing.T) {
	cache, _ := newTestCache(t)

	cache.OnProgress("USER_abc123", onboarding.Progress{Stage: onboarding.StageIdentity, Percent: 10})
	cache.OnProgress("USER_abc123", onboarding.Progress{Stage: onboarding.StageComplete, Percent: 100})

	snapshot, err := cache.Get(context.Background(), "USER_abc123")

	require.NoError(t, err)
	assert.Equal(t, 100, snapshot.Percent)
}

func TestCache_Get_Missing(t *testing.T) {
	cache, _ := newTestCache(t)

	snapshot, err := cache.Get(context.Background(), "USER_missing")

	assert.Nil(t, snapshot)
	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeApplicationNotFound, stdErr.Code)
}

func TestCache_Expiry(t *testing.T) {
	cache, mr := newTestCache(t)

	cache.OnProgress("USER_abc123", onboarding.Progress{Stage: onboarding.StageIdentity, Percent: 10})
	mr.FastForward(601 * time.Second)

	_, err := cache.Get(context.Background(), "USER_abc123")
	assert.Error(t, err)
}

func TestCache_RedisDown_Swallowed(t *testing.T) {
	cache, mr := newTestCache(t)
	mr.Close()

	// Must not panic or block the run.
	cache.OnProgress("USER_abc123", onboarding.Progress{Stage: onboarding.StageIdentity, Percent: 10})
}
