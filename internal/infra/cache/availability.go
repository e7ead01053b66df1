package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cinema-reservation/internal/domain/seatmap"
	"cinema-reservation/internal/infra"
	"cinema-reservation/internal/pkg/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const availabilityTTL = 5 * time.Minute

// AvailabilityCache keeps derived seat counts in Redis for display reads.
// Entries are invalidated on every committed transition and expire on their
// own as a backstop; the seat map remains the source of truth.
type AvailabilityCache struct {
	client *redis.Client
}

func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

func key(showingID uuid.UUID) string {
	return fmt.Sprintf("availability:%s", showingID)
}

func (c *AvailabilityCache) Get(ctx context.Context, showingID uuid.UUID) (seatmap.Counts, bool, error) {
	raw, err := c.client.Get(ctx, key(showingID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return seatmap.Counts{}, false, nil
		}
		return seatmap.Counts{}, false, infra.WrapRepoErr(infra.KindCacheFailure, "failed to read availability", err)
	}
	var counts seatmap.Counts
	if err := json.Unmarshal(raw, &counts); err != nil {
		// Treat a corrupt entry as a miss; it will be rewritten from truth.
		return seatmap.Counts{}, false, nil
	}
	return counts, true, nil
}

func (c *AvailabilityCache) Set(ctx context.Context, showingID uuid.UUID, counts seatmap.Counts) error {
	raw, err := json.Marshal(counts)
	if err != nil {
		return infra.WrapRepoErr(infra.KindCacheFailure, "failed to encode availability", err)
	}
	if err := c.client.Set(ctx, key(showingID), raw, availabilityTTL).Err(); err != nil {
		return infra.WrapRepoErr(infra.KindCacheFailure, "failed to write availability", err)
	}
	return nil
}

func (c *AvailabilityCache) Invalidate(ctx context.Context, showingID uuid.UUID) error {
	if err := c.client.Del(ctx, key(showingID)).Err(); err != nil {
		return infra.WrapRepoErr(infra.KindCacheFailure, "failed to invalidate availability", err)
	}
	return nil
}
