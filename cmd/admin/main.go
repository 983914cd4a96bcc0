package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/RaikyD/lengow-mws-connector/internal/application"
	"github.com/RaikyD/lengow-mws-connector/internal/bootstrap"
	"github.com/RaikyD/lengow-mws-connector/internal/config"
	"github.com/RaikyD/lengow-mws-connector/internal/kafka"
	"github.com/RaikyD/lengow-mws-connector/internal/logger"
	"github.com/RaikyD/lengow-mws-connector/internal/presentation"
	"github.com/RaikyD/lengow-mws-connector/internal/telemetry"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Init("info")
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if shutdown, err := telemetry.SetupTracer(ctx, "lengow-mws-admin", cfg.OTLPEndpoint); err != nil {
		logger.Warn("tracing disabled", "err", err)
	} else {
		defer func() { _ = shutdown(context.Background()) }()
	}

	svc, cleanup, err := bootstrap.Service(ctx, cfg)
	defer cleanup()
	if err != nil {
		logger.Error("startup failed", "err", err)
		os.Exit(1)
	}

	// recent submissions, fed from the event topic when kafka is configured
	submissions := application.NewSubmissionLog(1000)
	if cfg.Kafka.Brokers != "" {
		kafka.StartConsumer(ctx, submissions, kafka.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: "lengow-mws-admin",
		})
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// a confirmed cancel may poll for CancelPollAttempts * CancelPollDelay
	r.Use(middleware.Timeout(10 * time.Minute))

	presentation.NewAdminHandler(svc, submissions).Register(r)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	logger.Info("starting http", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server crashed", "err", err)
		os.Exit(1)
	}
}
