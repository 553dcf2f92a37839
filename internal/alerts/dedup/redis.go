package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "streamlog/pkg/domain"
)

// Redis dedupes across service instances with SET NX and a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Claim(ctx context.Context, alertID id.AlertID, recordID id.RecordID) (bool, error) {
	ok, err := r.client.SetNX(ctx, pairKey(alertID, recordID), 1, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup claim: %w", err)
	}
	return ok, nil
}
