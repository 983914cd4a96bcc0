package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RaikyD/lengow-mws-connector/internal/application"
	"github.com/RaikyD/lengow-mws-connector/internal/bootstrap"
	"github.com/RaikyD/lengow-mws-connector/internal/config"
	"github.com/RaikyD/lengow-mws-connector/internal/logger"
	"github.com/RaikyD/lengow-mws-connector/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Init("info")
		logger.Error("config load failed", "err", err)
		return 1
	}
	logger.Init(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, "lengow-mws-connector", cfg.OTLPEndpoint)
	if err != nil {
		logger.Warn("tracing disabled", "err", err)
	} else {
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(sctx)
		}()
	}

	svc, cleanup, err := bootstrap.Service(ctx, cfg)
	defer cleanup()
	if err != nil {
		logger.Error("startup failed", "err", err)
		return 1
	}

	rep, err := svc.Run(ctx, application.YesterdayToToday(time.Now()))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("run interrupted", "run_id", rep.RunID)
		} else {
			logger.Error("run failed", "run_id", rep.RunID, "err", err)
		}
		return 1
	}
	return 0
}
