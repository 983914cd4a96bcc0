package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaikyD/lengow-mws-connector/internal/domain"
)

func TestEventEncoding(t *testing.T) {
	ev := domain.SubmittedEvent{
		EventID:     "e-1",
		RunID:       "r-1",
		OrderID:     "cdiscount_1234",
		Marketplace: "cdiscount",
		SubmittedAt: time.Date(2016, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	b, err := encodeEvent(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"event_id": "e-1",
		"run_id": "r-1",
		"order_id": "cdiscount_1234",
		"marketplace": "cdiscount",
		"submitted_at": "2016-03-01T10:00:00Z"
	}`, string(b))

	got, err := decodeEvent(b)
	require.NoError(t, err)
	assert.Equal(t, ev, got)

	_, err = decodeEvent([]byte("{"))
	assert.Error(t, err)
}
