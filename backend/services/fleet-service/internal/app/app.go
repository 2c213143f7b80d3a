package app

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libdb "fleetconsole/backend/libs/db"
	"fleetconsole/backend/libs/httpserver"
	libredis "fleetconsole/backend/libs/redis"
	"fleetconsole/backend/services/fleet-service/internal/clients"
	"fleetconsole/backend/services/fleet-service/internal/config"
	router "fleetconsole/backend/services/fleet-service/internal/http"
	"fleetconsole/backend/services/fleet-service/internal/http/handlers"
	redisstore "fleetconsole/backend/services/fleet-service/internal/redis"
	"fleetconsole/backend/services/fleet-service/internal/repository"
	"fleetconsole/backend/services/fleet-service/internal/service"
)

// App wires fleet-service dependencies.
type App struct {
	server      *httpserver.Server
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := libdb.NewPostgresDB(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	redisClient, err := libredis.NewRedisClient(libredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	authClient := clients.NewAuthClient(cfg.Auth.BaseURL, cfg.Auth.InternalToken, cfg.Auth.Timeout)
	locationCache := redisstore.NewLocationCache(redisClient, cfg.Redis.LocationTTL)

	vehicleSvc := service.NewVehicleService(repository.NewVehicleRepository(sqlDB), logger)
	customerSvc := service.NewCustomerService(repository.NewCustomerRepository(sqlDB), logger)
	developerSvc := service.NewDeveloperService(repository.NewDeveloperRepository(sqlDB), authClient, logger)
	dashboardSvc := service.NewDashboardService(repository.NewDashboardRepository(sqlDB), locationCache, logger)

	vehicles := handlers.NewVehiclesHandler(vehicleSvc, logger)
	customers := handlers.NewCustomersHandler(customerSvc, logger)
	developers := handlers.NewDevelopersHandler(developerSvc, logger)

	routes := router.Routes{
		Vehicles: router.Resource{
			List:   vehicles.List,
			Create: vehicles.Create,
			Get:    vehicles.Get,
			Update: vehicles.Update,
			Delete: vehicles.Delete,
		},
		Customers: router.Resource{
			List:   customers.List,
			Create: customers.Create,
			Get:    customers.Get,
			Update: customers.Update,
			Delete: customers.Delete,
		},
		Developers: router.Resource{
			List:   developers.List,
			Create: developers.Create,
			Get:    developers.Get,
			Update: developers.Update,
			Delete: developers.Delete,
		},
		ClaimableCustomer: customers.Claimable,
		ClaimCustomer:     customers.Claim,
		Dashboard:         handlers.NewDashboardHandler(dashboardSvc, logger),
		Health:            handlers.NewHealthHandler(),
	}

	server := httpserver.NewServer(cfg.HTTPAddress(), router.NewRouter(routes), logger)

	return &App{
		server:      server,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts HTTP server.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
