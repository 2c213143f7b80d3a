package app

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	libdb "fleetconsole/backend/libs/db"
	"fleetconsole/backend/libs/httpserver"
	appconfig "fleetconsole/backend/services/auth-service/internal/config"
	router "fleetconsole/backend/services/auth-service/internal/http"
	"fleetconsole/backend/services/auth-service/internal/http/handlers"
	"fleetconsole/backend/services/auth-service/internal/password"
	"fleetconsole/backend/services/auth-service/internal/repository"
	"fleetconsole/backend/services/auth-service/internal/service"
)

// App wires dependencies for the auth service.
type App struct {
	server *httpserver.Server
	db     *sql.DB
	logger *zap.Logger
}

// New builds application graph.
func New(cfg *appconfig.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := libdb.NewPostgresDB(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	accountRepo := repository.NewAccountRepository(sqlDB)
	hasher := password.NewBcryptHasher(cfg.BcryptCost)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	authSvc := service.NewAuthService(accountRepo, hasher, tokenSvc, logger)

	authHandler := handlers.NewAuthHandler(authSvc, logger)
	accountsHandler := handlers.NewAccountsHandler(authSvc, cfg.Internal.Token, logger)

	routes := router.Routes{
		Signup:         authHandler.Signup,
		Login:          authHandler.Login,
		Profile:        authHandler.Profile,
		ChangePassword: authHandler.ChangePassword,
		CreateAccount:  accountsHandler.Create,
		DeleteAccount:  accountsHandler.Delete,
		Health:         handlers.NewHealthHandler(),
	}

	server := httpserver.NewServer(cfg.HTTPAddress(), router.NewRouter(routes), logger)

	return &App{
		server: server,
		db:     sqlDB,
		logger: logger,
	}, nil
}

// Run starts serving HTTP traffic until context cancellation.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases acquired resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
