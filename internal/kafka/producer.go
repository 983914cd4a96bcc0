package kafka

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/RaikyD/lengow-mws-connector/internal/domain"
)

type Producer struct {
	w *kafka.Writer
}

func NewProducer(brokersSTR, topic string) *Producer {
	brokers := strings.Split(brokersSTR, ",")

	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			Async:                  false,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *Producer) Close() error {
	return p.w.Close()
}

// PublishSubmitted writes ev keyed by order id, so events for one order keep
// their order within a partition.
func (p *Producer) PublishSubmitted(ctx context.Context, ev domain.SubmittedEvent) error {
	b, err := encodeEvent(ev)
	if err != nil {
		return err
	}

	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.OrderID),
		Value: b,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
			{Key: "event-type", Value: []byte(EventTypeSubmitted)},
		},
	})
}

const EventTypeSubmitted = "fulfillment.submitted"

func encodeEvent(ev domain.SubmittedEvent) ([]byte, error) {
	return json.Marshal(ev)
}

func decodeEvent(b []byte) (domain.SubmittedEvent, error) {
	var ev domain.SubmittedEvent
	err := json.Unmarshal(b, &ev)
	return ev, err
}
