package app

import (
	"context"

	"go.uber.org/zap"

	"fleetconsole/backend/libs/httpserver"
	"fleetconsole/backend/services/api-gateway/internal/clients"
	"fleetconsole/backend/services/api-gateway/internal/config"
	router "fleetconsole/backend/services/api-gateway/internal/http"
	"fleetconsole/backend/services/api-gateway/internal/http/handlers"
	"fleetconsole/backend/services/api-gateway/internal/http/middleware"
)

// App wires API gateway dependencies.
type App struct {
	server *httpserver.Server
	logger *zap.Logger
}

// New constructs application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	httpClient := clients.NewDefaultHTTPClient(cfg.HTTPTimeout())

	authClient := clients.NewAuthClient(cfg.Services.AuthURL, httpClient)
	fleetClient := clients.NewFleetClient(cfg.Services.FleetURL, httpClient)
	telemetryClient := clients.NewTelemetryClient(cfg.Services.TelemetryURL, httpClient)

	liveAlerts, err := handlers.NewLiveAlertsProxy(cfg.Services.TelemetryURL, logger)
	if err != nil {
		return nil, err
	}

	routes := router.NewRouter(router.RouterDeps{
		AuthHandlers:     handlers.NewAuthHandlers(authClient, logger),
		Vehicles:         handlers.NewProxyHandler(fleetClient, "/api/vehicles", "/vehicles", logger),
		VehiclePositions: handlers.NewProxyHandler(telemetryClient, "/api/vehicles", "/api/vehicles", logger),
		Users:            handlers.NewProxyHandler(fleetClient, "/api/users", "/customers", logger),
		Developers:       handlers.NewProxyHandler(fleetClient, "/api/developers", "/developers", logger),
		Dashboard:        handlers.NewProxyHandler(fleetClient, "/api/dashboard", "/dashboard", logger),
		Alerts:           handlers.NewProxyHandler(telemetryClient, "/api/alerts", "/api/alerts", logger),
		LiveAlerts:       liveAlerts,
		HealthHandler:    handlers.NewHealthHandler(),
	}, middleware.AuthMiddleware(cfg.JWT.Secret))

	handler := middleware.Chain(routes,
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
	)

	// Websocket streams outlive any write deadline.
	server := httpserver.NewServer(cfg.HTTPAddress(), handler, logger, httpserver.WithWriteTimeout(0))

	return &App{
		server: server,
		logger: logger,
	}, nil
}

// Run starts serving HTTP traffic.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources (none yet).
func (a *App) Close() {}
