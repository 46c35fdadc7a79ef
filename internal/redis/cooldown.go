package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CooldownStore tracks driver trip rejections in Redis. A rejection
// sets a TTL'd suppression key so the trip stops surfacing in that
// driver's nearby list until the cooldown expires.
type CooldownStore struct {
	client *redis.Client
}

// NewCooldownStore creates a new CooldownStore.
func NewCooldownStore(client *redis.Client) *CooldownStore {
	return &CooldownStore{client: client}
}

// Suppress records that a driver rejected a trip, for the given TTL.
func (s *CooldownStore) Suppress(ctx context.Context, driverID, tripID string, ttl time.Duration) error {
	key := fmt.Sprintf("reject:%s:%s", driverID, tripID)

	return s.client.Set(ctx, key, "1", ttl).Err()
}

// IsSuppressed reports whether a driver's rejection of a trip is still
// within its cooldown.
func (s *CooldownStore) IsSuppressed(ctx context.Context, driverID, tripID string) (bool, error) {
	key := fmt.Sprintf("reject:%s:%s", driverID, tripID)

	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}
