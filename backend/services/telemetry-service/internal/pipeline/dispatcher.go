package pipeline

import (
	"sync"

	"fleetconsole/backend/libs/telemetry/models"
	"fleetconsole/backend/services/telemetry-service/internal/metrics"
)

// Dispatcher fans accepted samples out to the writers. A full channel drops the
// sample for that writer only.
type Dispatcher struct {
	DBChan   chan models.PositionSample
	FeedChan chan models.PositionSample

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(dbSize, feedSize int) *Dispatcher {
	return &Dispatcher{
		DBChan:   make(chan models.PositionSample, dbSize),
		FeedChan: make(chan models.PositionSample, feedSize),
	}
}

func (d *Dispatcher) Dispatch(sample models.PositionSample) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.DBChannelDrops.Add(1)
		metrics.FeedChannelDrops.Add(1)
		return
	}
	metrics.PositionsReceived.Add(1)

	select {
	case d.DBChan <- sample:
	default:
		metrics.DBChannelDrops.Add(1)
	}

	select {
	case d.FeedChan <- sample:
	default:
		metrics.FeedChannelDrops.Add(1)
	}
}

// Close stops accepting samples; the writers exit once they drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	close(d.DBChan)
	close(d.FeedChan)
}
