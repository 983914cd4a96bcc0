// Package bootstrap builds the fulfillment service from configuration for
// both binaries.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RaikyD/lengow-mws-connector/internal/application"
	"github.com/RaikyD/lengow-mws-connector/internal/config"
	"github.com/RaikyD/lengow-mws-connector/internal/kafka"
	"github.com/RaikyD/lengow-mws-connector/internal/ledger"
	"github.com/RaikyD/lengow-mws-connector/internal/lengow"
	"github.com/RaikyD/lengow-mws-connector/internal/lock"
	"github.com/RaikyD/lengow-mws-connector/internal/logger"
	"github.com/RaikyD/lengow-mws-connector/internal/mapper"
	"github.com/RaikyD/lengow-mws-connector/internal/mws"
)

const runLockTTL = 30 * time.Minute

// Service builds the service and returns a cleanup that closes everything
// it opened, in reverse order.
func Service(ctx context.Context, cfg *config.Config) (*application.FulfillmentService, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	store, closeStore, err := ledger.Open(ctx, cfg.Ledger)
	if err != nil {
		return nil, cleanup, fmt.Errorf("open ledger: %w", err)
	}
	closers = append(closers, closeStore)
	logger.Info("ledger ready", "backend", cfg.Ledger.Backend)

	fulfiller, err := mws.NewClient(mws.Credentials{
		AccessKey:  cfg.MWS.AccessKey,
		SecretKey:  cfg.MWS.SecretKey,
		MerchantID: cfg.MWS.MerchantID,
		Region:     cfg.MWS.Region,
		Endpoint:   cfg.MWS.Endpoint,
	})
	if err != nil {
		return nil, cleanup, err
	}

	var locker lock.Locker = lock.NopLocker{}
	if cfg.Ledger.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Ledger.RedisAddr})
		closers = append(closers, func() { _ = rdb.Close() })
		locker = lock.NewRedisLocker(rdb, cfg.Ledger.Key+":lock", runLockTTL)
	}

	var events application.EventPublisher
	if cfg.Kafka.Brokers != "" {
		prod := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		closers = append(closers, func() { _ = prod.Close() })
		events = prod
		logger.Info("publishing submitted events", "topic", cfg.Kafka.Topic)
	}

	svc := application.NewFulfillmentService(application.Deps{
		Feed: lengow.NewClient(lengow.Config{
			BaseURL:    cfg.Lengow.BaseURL,
			RatePerSec: cfg.Lengow.RatePerSec,
		}),
		Fulfiller: fulfiller,
		Mapper: mapper.New(mapper.Policy{
			DisallowedMarketplaces: cfg.DisallowedMarketplaces,
			Comment:                cfg.OrderComment,
		}),
		Store:  store,
		Locker: locker,
		Events: events,
	}, application.Options{
		Query: lengow.Query{
			AccountID: cfg.Lengow.AccountID,
			GroupID:   cfg.Lengow.GroupID,
			FluxID:    cfg.Lengow.FluxID,
			Status:    cfg.Lengow.OrderStatus,
		},
		CancelPoll: application.PollPolicy{
			MaxAttempts: cfg.CancelPollAttempts,
			Delay:       cfg.CancelPollDelay,
		},
	})
	return svc, cleanup, nil
}
