// Package commands implements the fleetctl operator commands.
package commands

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	libdb "fleetconsole/backend/libs/db"
	libredis "fleetconsole/backend/libs/redis"
)

// Execer runs SQL statements.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Deps are the external connections the commands open.
type Deps struct {
	OpenDB    func(ctx context.Context, dsn string) (Execer, func(), error)
	OpenRedis func(opts libredis.Options) (goredis.Cmdable, func(), error)
	Logger    *zap.Logger
}

// DefaultDeps connects to real Postgres and Redis.
func DefaultDeps(logger *zap.Logger) Deps {
	return Deps{
		OpenDB: func(ctx context.Context, dsn string) (Execer, func(), error) {
			pool, err := libdb.NewPool(ctx, dsn, 1)
			if err != nil {
				return nil, nil, err
			}
			return pool, pool.Close, nil
		},
		OpenRedis: func(opts libredis.Options) (goredis.Cmdable, func(), error) {
			client, err := libredis.NewRedisClient(opts)
			if err != nil {
				return nil, nil, err
			}
			return client, func() { _ = client.Close() }, nil
		},
		Logger: logger,
	}
}

// NewRootCommand assembles the fleetctl command tree.
func NewRootCommand(deps Deps) *cobra.Command {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	root := &cobra.Command{
		Use:           "fleetctl",
		Short:         "Operator tooling for the fleet console backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCommand(deps),
		newRegisterDeviceCommand(deps),
		newClassifyCommand(),
	)
	return root
}
