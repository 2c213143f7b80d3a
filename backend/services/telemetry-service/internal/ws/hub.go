package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"fleetconsole/backend/libs/telemetry/models"
	"fleetconsole/backend/services/telemetry-service/internal/metrics"
	"fleetconsole/backend/services/telemetry-service/internal/service"
)

// Source streams accepted samples in arrival order.
type Source interface {
	Subscribe(ctx context.Context) (<-chan models.PositionSample, error)
}

// Hub tracks live clients and pushes each classified sample to the clients
// allowed to see its vehicle.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	source   Source
	listener service.Listener
	logger   *zap.Logger
	backoff  time.Duration

	scopes       ScopeResolver
	refreshEvery time.Duration
}

// NewHub builds hub.
func NewHub(source Source, listener service.Listener, logger *zap.Logger) *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		source:   source,
		listener: listener,
		logger:   logger,
		backoff:  time.Second,
	}
}

// RefreshScopesEvery makes Run re-resolve every client's vehicle set on the
// given interval, so assignment changes reach open connections. Call before Run.
func (h *Hub) RefreshScopesEvery(scopes ScopeResolver, every time.Duration) {
	h.scopes = scopes
	h.refreshEvery = every
}

// Add registers a client.
func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID()] = c
	metrics.LiveClients.Store(int64(len(h.clients)))
}

// Remove forgets a client.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, id)
	metrics.LiveClients.Store(int64(len(h.clients)))
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run follows the source until ctx is cancelled, resubscribing when the
// subscription drops. Connected clients are closed on return.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()

	if h.scopes != nil && h.refreshEvery > 0 {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.refreshLoop(ctx)
		}()
		defer wg.Wait()
	}

	for {
		samples, err := h.source.Subscribe(ctx)
		if err != nil {
			h.logger.Warn("live feed subscribe failed", zap.Error(err))
		} else {
			h.consume(ctx, samples)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(h.backoff):
		}
	}
}

func (h *Hub) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(h.refreshEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.RefreshScopes(ctx, h.scopes)
		}
	}
}

// RefreshScopes re-resolves the vehicle set of every connected client. A
// client whose lookup fails keeps its previous set.
func (h *Hub) RefreshScopes(ctx context.Context, scopes ScopeResolver) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		vehicles, err := scopes.VisibleVehicles(ctx, c.Viewer())
		if err != nil {
			h.logger.Warn("live scope refresh failed",
				zap.String("client_id", c.ID()),
				zap.String("user_id", c.Viewer().UserID),
				zap.Error(err),
			)
			continue
		}
		c.SetVehicles(vehicles)
	}
}

func (h *Hub) consume(ctx context.Context, samples <-chan models.PositionSample) {
	for {
		select {
		case <-ctx.Done():
			return
		case sample, ok := <-samples:
			if !ok {
				return
			}
			alert, ok := h.listener.OnSample(ctx, sample)
			if !ok {
				continue
			}
			h.Broadcast(alert)
		}
	}
}

// Broadcast sends the alert to every client following its vehicle.
func (h *Hub) Broadcast(alert models.Alert) {
	payload, err := json.Marshal(alert)
	if err != nil {
		h.logger.Error("failed to encode alert", zap.String("alert_id", alert.ID), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.Follows(alert.VehicleID) && c.Send(payload) {
			metrics.LiveAlertsSent.Add(1)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Close()
	}
}
