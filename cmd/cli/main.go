package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/dreamwell/internal/buildinfo"
	"github.com/dmitrijs2005/dreamwell/internal/client/cli"
	"github.com/dmitrijs2005/dreamwell/internal/client/config"
	"github.com/dmitrijs2005/dreamwell/internal/logging"
	"github.com/dmitrijs2005/dreamwell/internal/telemetry"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)

	shutdown := telemetry.Setup(ctx, "dreamwell-cli", logger)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(sctx)
	}()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "failed to start", "error", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "session init failed", "error", err)
	}
}
