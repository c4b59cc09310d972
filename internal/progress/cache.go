// internal/progress/cache.go
package progress

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"quickscore/internal/common/database"
	"quickscore/internal/common/errors"
	"quickscore/internal/common/logger"
	"quickscore/internal/onboarding"
)

const keyPrefix = "onboarding:progress:"

// Cache stores the latest progress snapshot per run in Redis so the HTTP
// layer can poll it. It implements onboarding.ProgressObserver.
type Cache struct {
	client *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewCache(client *database.RedisClient, ttlSeconds int, log logger.Logger) *Cache {
	if ttlSeconds <= 0 {
		ttlSeconds = 3600
	}
	return &Cache{
		client: client,
		ttl:    time.Duration(ttlSeconds) * time.Second,
		logger: log.With(map[string]interface{}{
			"component": "progress-cache",
		}),
	}
}

// OnProgress stores the snapshot. Failures are logged and swallowed: progress
// caching is best-effort and must never stall a run.
func (c *Cache) OnProgress(runID string, progress onboarding.Progress) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	payload, err := json.Marshal(progress)
	if err != nil {
		c.logger.Warn("Failed to encode progress snapshot", map[string]interface{}{
			"runId": runID,
			"error": err.Error(),
		})
		return
	}

	if err := c.client.Set(ctx, keyPrefix+runID, payload, c.ttl); err != nil {
		c.logger.Warn("Failed to cache progress snapshot", map[string]interface{}{
			"runId": runID,
			"error": err.Error(),
		})
	}
}

// Get returns the latest snapshot for a run.
func (c *Cache) Get(ctx context.Context, runID string) (*onboarding.Progress, error) {
	raw, err := c.client.Get(ctx, keyPrefix+runID)
	if err == redis.Nil {
		return nil, errors.NewApplicationNotFoundError(runID)
	}
	if err != nil {
		return nil, errors.NewProgressCacheFailedError(err)
	}

	var snapshot onboarding.Progress
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, errors.NewProgressCacheFailedError(err)
	}
	return &snapshot, nil
}
