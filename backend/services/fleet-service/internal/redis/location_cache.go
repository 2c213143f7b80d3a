package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/services/fleet-service/internal/models"
)

// LocationCache keeps the latest vehicle locations per viewer for a short time.
type LocationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocationCache returns redis-backed cache.
func NewLocationCache(client *redis.Client, ttl time.Duration) *LocationCache {
	return &LocationCache{client: client, ttl: ttl}
}

func (c *LocationCache) key(viewer identity.Identity) string {
	return fmt.Sprintf("fleet:locations:%s:%s", viewer.Role, viewer.UserID)
}

// Save caches the viewer's locations.
func (c *LocationCache) Save(ctx context.Context, viewer identity.Identity, locations []models.VehicleLocation) error {
	data, err := json.Marshal(locations)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(viewer), data, c.ttl).Err()
}

// Get returns cached locations, or redis.Nil on a miss.
func (c *LocationCache) Get(ctx context.Context, viewer identity.Identity) ([]models.VehicleLocation, error) {
	result, err := c.client.Get(ctx, c.key(viewer)).Bytes()
	if err != nil {
		return nil, err
	}
	var locations []models.VehicleLocation
	if err := json.Unmarshal(result, &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// Delete drops the viewer's cached locations.
func (c *LocationCache) Delete(ctx context.Context, viewer identity.Identity) error {
	return c.client.Del(ctx, c.key(viewer)).Err()
}
