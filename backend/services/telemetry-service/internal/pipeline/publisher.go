package pipeline

import (
	"context"

	"go.uber.org/zap"

	"fleetconsole/backend/libs/telemetry/models"
	"fleetconsole/backend/services/telemetry-service/internal/metrics"
)

// FeedPublisher broadcasts a sample to live subscribers.
type FeedPublisher interface {
	Publish(ctx context.Context, sample models.PositionSample) error
}

// Publisher forwards samples to the live feed in arrival order.
type Publisher struct {
	ch     <-chan models.PositionSample
	feed   FeedPublisher
	logger *zap.Logger
}

func NewPublisher(ch <-chan models.PositionSample, feed FeedPublisher, logger *zap.Logger) *Publisher {
	return &Publisher{ch: ch, feed: feed, logger: logger}
}

func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case sample, ok := <-p.ch:
			if !ok {
				return
			}
			if err := p.feed.Publish(ctx, sample); err != nil {
				metrics.FeedPublishErrors.Add(1)
				p.logger.Warn("feed publish failed", zap.String("device_id", sample.DeviceID), zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}
