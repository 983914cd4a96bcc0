package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	ids     []string
	saves   int
	loadErr error
	saveErr error
}

func (m *memStore) Load(context.Context) ([]string, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]string{}, m.ids...), nil
}

func (m *memStore) Save(_ context.Context, ids []string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.ids = append([]string{}, ids...)
	return nil
}

func TestLedger_AppendsWithoutDuplicates(t *testing.T) {
	l := New([]string{"X"})
	assert.True(t, l.Add("A"))
	assert.True(t, l.Add("B"))
	assert.False(t, l.Add("A"))
	assert.False(t, l.Add("X"))

	assert.Equal(t, []string{"X", "A", "B"}, l.IDs())
	assert.Equal(t, 3, l.Len())
	assert.True(t, l.Contains("B"))
	assert.False(t, l.Contains("C"))
}

func TestNew_DropsDuplicatesKeepingFirst(t *testing.T) {
	l := New([]string{"b", "a", "b", "c", "a"})
	assert.Equal(t, []string{"b", "a", "c"}, l.IDs())
}

func TestLedger_IDsIsACopy(t *testing.T) {
	l := New([]string{"a"})
	ids := l.IDs()
	ids[0] = "z"
	assert.Equal(t, []string{"a"}, l.IDs())
}

func TestLoadAndFlush(t *testing.T) {
	ctx := context.Background()
	s := &memStore{ids: []string{"X"}}

	l, err := Load(ctx, s)
	require.NoError(t, err)
	l.Add("A")
	l.Add("B")
	require.NoError(t, l.Flush(ctx, s))

	assert.Equal(t, []string{"X", "A", "B"}, s.ids)
	assert.Equal(t, 1, s.saves)
}

func TestLoad_Error(t *testing.T) {
	boom := errors.New("boom")
	_, err := Load(context.Background(), &memStore{loadErr: boom})
	assert.ErrorIs(t, err, boom)

	err = New(nil).Flush(context.Background(), &memStore{saveErr: boom})
	assert.ErrorIs(t, err, boom)
}
