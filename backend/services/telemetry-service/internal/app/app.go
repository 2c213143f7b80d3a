package app

import (
	"context"
	"database/sql"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libdb "fleetconsole/backend/libs/db"
	"fleetconsole/backend/libs/httpserver"
	libredis "fleetconsole/backend/libs/redis"
	"fleetconsole/backend/services/telemetry-service/internal/auth"
	"fleetconsole/backend/services/telemetry-service/internal/config"
	router "fleetconsole/backend/services/telemetry-service/internal/http"
	"fleetconsole/backend/services/telemetry-service/internal/http/handlers"
	"fleetconsole/backend/services/telemetry-service/internal/http/middleware"
	"fleetconsole/backend/services/telemetry-service/internal/metrics"
	"fleetconsole/backend/services/telemetry-service/internal/mqtt"
	"fleetconsole/backend/services/telemetry-service/internal/pipeline"
	redisstore "fleetconsole/backend/services/telemetry-service/internal/redis"
	"fleetconsole/backend/services/telemetry-service/internal/repository"
	"fleetconsole/backend/services/telemetry-service/internal/service"
	"fleetconsole/backend/services/telemetry-service/internal/ws"
)

// App wires telemetry service dependencies.
type App struct {
	server      *httpserver.Server
	db          *sql.DB
	pool        *pgxpool.Pool
	redisClient *redis.Client
	dispatcher  *pipeline.Dispatcher
	dbWriter    *pipeline.DBWriter
	publisher   *pipeline.Publisher
	hub         *ws.Hub
	consumer    *mqtt.Consumer
	logger      *zap.Logger
}

// New constructs application components.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := libdb.NewPostgresDB(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	pool, err := libdb.NewPool(context.Background(), cfg.Database.DSN, cfg.Database.MaxConns)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	redisClient, err := libredis.NewRedisClient(libredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		pool.Close()
		sqlDB.Close()
		return nil, err
	}

	positionRepo := repository.NewPositionRepository(sqlDB)
	positionWriter := repository.NewPositionWriter(pool)
	deviceKeys := redisstore.NewDeviceKeys(redisClient)
	feed := redisstore.NewFeed(redisClient, logger)

	dispatcher := pipeline.NewDispatcher(cfg.Pipeline.DBBuffer, cfg.Pipeline.FeedBuffer)
	dbWriter := pipeline.NewDBWriter(dispatcher.DBChan, positionWriter, cfg.Pipeline.BatchSize, cfg.Pipeline.FlushInterval, logger)
	publisher := pipeline.NewPublisher(dispatcher.FeedChan, feed, logger)

	ingestService := service.NewIngestService(dispatcher, logger)
	alertService := service.NewAlertService(positionRepo, cfg.Alerts.Window, logger)
	trackService := service.NewTrackService(positionRepo)

	hub := ws.NewHub(feed, alertService, logger)
	hub.RefreshScopesEvery(alertService, cfg.Live.ScopeRefresh)
	wsServer := ws.NewServer(hub, alertService, []byte(cfg.Auth.JWTSecret), cfg.Live.WriteTimeout, logger)

	authenticator := auth.NewAuthenticator(cfg.Auth.APIKeys, deviceKeys, cfg.Auth.KeyCacheTTL)
	alertsHandler := handlers.NewAlertsHandler(alertService, logger)

	routes := router.Routes{
		Positions:    middleware.APIKey(authenticator)(handlers.NewPositionsHandler(ingestService, logger)),
		Alerts:       alertsHandler.List,
		AlertSummary: alertsHandler.Summary,
		AlertExport:  alertsHandler.Export,
		VehicleTrack: handlers.NewTrackHandler(trackService, logger),
		LiveAlerts:   wsServer.HandleWS,
		Metrics:      metrics.HandleMetrics,
		Health:       handlers.NewHealthHandler(),
	}

	var consumer *mqtt.Consumer
	if cfg.MQTTEnabled() {
		consumer = mqtt.NewConsumer(mqtt.Options{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			QoS:      cfg.MQTT.QoS,
		}, ingestService, logger)
	}

	server := httpserver.NewServer(cfg.HTTPAddress(), router.NewRouter(routes), logger)

	return &App{
		server:      server,
		db:          sqlDB,
		pool:        pool,
		redisClient: redisClient,
		dispatcher:  dispatcher,
		dbWriter:    dbWriter,
		publisher:   publisher,
		hub:         hub,
		consumer:    consumer,
		logger:      logger,
	}, nil
}

// Run serves HTTP and MQTT ingestion until ctx is cancelled, then drains the pipeline.
func (a *App) Run(ctx context.Context) error {
	// Writers outlive ctx so queued samples still reach Postgres and Redis.
	workerCtx := context.WithoutCancel(ctx)

	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		a.dbWriter.Run(workerCtx)
	}()
	go func() {
		defer workers.Done()
		a.publisher.Run(workerCtx)
	}()

	var hubDone sync.WaitGroup
	hubDone.Add(1)
	go func() {
		defer hubDone.Done()
		a.hub.Run(ctx)
	}()

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			a.logger.Error("mqtt ingestion disabled", zap.Error(err))
		}
	}

	err := a.server.Run(ctx)

	if a.consumer != nil {
		a.consumer.Stop()
	}
	a.dispatcher.Close()
	workers.Wait()
	hubDone.Wait()
	return err
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
