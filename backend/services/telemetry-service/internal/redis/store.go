package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libredis "fleetconsole/backend/libs/redis"
	"fleetconsole/backend/libs/telemetry/models"
)

// PositionsChannel carries every accepted sample as JSON.
const PositionsChannel = "fleet:positions"

// DeviceKeys resolves ingestion API keys registered by operators.
type DeviceKeys struct {
	client *redis.Client
}

// NewDeviceKeys returns redis-backed key registry.
func NewDeviceKeys(client *redis.Client) *DeviceKeys {
	return &DeviceKeys{client: client}
}

// Lookup returns the device bound to apiKey, or "" when the key is unknown.
func (k *DeviceKeys) Lookup(ctx context.Context, apiKey string) (string, error) {
	deviceID, err := k.client.Get(ctx, libredis.DeviceAuthKey(apiKey)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get api key: %w", err)
	}
	return deviceID, nil
}

// Register binds apiKey to deviceID.
func (k *DeviceKeys) Register(ctx context.Context, apiKey, deviceID string) error {
	return k.client.Set(ctx, libredis.DeviceAuthKey(apiKey), deviceID, 0).Err()
}

// Feed publishes accepted samples and lets the live hub follow them.
type Feed struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewFeed returns a feed on PositionsChannel.
func NewFeed(client *redis.Client, logger *zap.Logger) *Feed {
	return &Feed{client: client, channel: PositionsChannel, logger: logger}
}

// Publish sends one sample to subscribers.
func (f *Feed) Publish(ctx context.Context, sample models.PositionSample) error {
	payload, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("marshal sample: %w", err)
	}
	return f.client.Publish(ctx, f.channel, payload).Err()
}

// Subscribe streams samples until ctx is cancelled. The returned channel is closed
// when the subscription ends.
func (f *Feed) Subscribe(ctx context.Context) (<-chan models.PositionSample, error) {
	pubsub := f.client.Subscribe(ctx, f.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", f.channel, err)
	}

	out := make(chan models.PositionSample, 64)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var sample models.PositionSample
				if err := json.Unmarshal([]byte(msg.Payload), &sample); err != nil {
					f.logger.Warn("dropping malformed feed message", zap.Error(err))
					continue
				}
				select {
				case out <- sample:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
