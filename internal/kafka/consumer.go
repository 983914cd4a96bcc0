package kafka

import (
	"context"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/RaikyD/lengow-mws-connector/internal/domain"
	"github.com/RaikyD/lengow-mws-connector/internal/logger"
)

type ConsumerConfig struct {
	Brokers string
	Topic   string
	GroupID string
}

// EventSink receives decoded submission events.
type EventSink interface {
	Record(ev domain.SubmittedEvent)
}

// StartConsumer tails the submission topic into sink until ctx is done.
// Messages that fail to decode are committed and skipped.
func StartConsumer(ctx context.Context, sink EventSink, cfg ConsumerConfig) *kafka.Reader {
	brokers := strings.Split(cfg.Brokers, ",")

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         brokers,
		GroupID:         cfg.GroupID,
		Topic:           cfg.Topic,
		MinBytes:        1,
		MaxBytes:        10e6,
		CommitInterval:  0,
		StartOffset:     kafka.FirstOffset,
		ReadLagInterval: -1,
	})

	logger.Info("kafka consumer starting", "brokers", cfg.Brokers, "topic", cfg.Topic, "group", cfg.GroupID)

	go func() {
		defer r.Close()
		consume(ctx, r, sink)
	}()
	return r
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

var fetchBackoff = 300 * time.Millisecond

func consume(ctx context.Context, r messageReader, sink EventSink) {
	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("kafka fetch error", "err", err)
			time.Sleep(fetchBackoff)
			continue
		}

		ev, err := decodeEvent(m.Value)
		if err != nil || ev.OrderID == "" {
			logger.Warn("kafka invalid event. skip and commit", "err", err, "offset", m.Offset)
			_ = r.CommitMessages(ctx, m)
			continue
		}
		sink.Record(ev)

		if err := r.CommitMessages(ctx, m); err != nil {
			logger.Warn("kafka commit failed", "err", err)
		} else {
			logger.Debug("kafka committed", "partition", m.Partition, "offset", m.Offset, "order_id", ev.OrderID)
		}
	}
}
