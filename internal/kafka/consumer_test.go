package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaikyD/lengow-mws-connector/internal/domain"
)

// scriptedReader hands out msgs (or errs) in order, then cancels the
// consumer context.
type scriptedReader struct {
	steps     []step
	cancel    context.CancelFunc
	committed []int64
}

type step struct {
	msg kafka.Message
	err error
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.steps) == 0 {
		r.cancel()
		return kafka.Message{}, ctx.Err()
	}
	s := r.steps[0]
	r.steps = r.steps[1:]
	return s.msg, s.err
}

func (r *scriptedReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

type recordingSink struct{ events []domain.SubmittedEvent }

func (s *recordingSink) Record(ev domain.SubmittedEvent) { s.events = append(s.events, ev) }

func TestConsume(t *testing.T) {
	prev := fetchBackoff
	fetchBackoff = time.Millisecond
	defer func() { fetchBackoff = prev }()

	good, err := encodeEvent(domain.SubmittedEvent{EventID: "e-1", OrderID: "cdiscount_1"})
	require.NoError(t, err)
	noOrder, err := encodeEvent(domain.SubmittedEvent{EventID: "e-2"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &scriptedReader{cancel: cancel, steps: []step{
		{msg: kafka.Message{Offset: 1, Value: []byte("{")}},
		{err: errors.New("broker gone")},
		{msg: kafka.Message{Offset: 2, Value: noOrder}},
		{msg: kafka.Message{Offset: 3, Value: good}},
	}}
	sink := &recordingSink{}

	done := make(chan struct{})
	go func() {
		consume(ctx, r, sink)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop after cancel")
	}

	// invalid events are committed and skipped, fetch errors are retried
	assert.Equal(t, []int64{1, 2, 3}, r.committed)
	require.Len(t, sink.events, 1)
	assert.Equal(t, "cdiscount_1", sink.events[0].OrderID)
}
