package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fleetconsole/backend/libs/logging"
	"fleetconsole/backend/tools/fleetctl/internal/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logging.NewLogger("fleetctl")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := commands.NewRootCommand(commands.DefaultDeps(logger)).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "fleetctl:", err)
		os.Exit(1)
	}
}
