package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaikyD/lengow-mws-connector/internal/domain"
)

func TestFileStore_AbsentIsEmpty(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))
	ids, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NotNil(t, ids)
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "fulfilled_orders.json")
	s := NewFileStore(path)

	require.NoError(t, s.Save(ctx, []string{"cdiscount_1", "fnac_2"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `["cdiscount_1","fnac_2"]`, string(raw))

	ids, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cdiscount_1", "fnac_2"}, ids)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStore_EmptyListWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "l.json")
	require.NoError(t, NewFileStore(path).Save(context.Background(), nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestFileStore_Corrupt(t *testing.T) {
	for name, content := range map[string]string{
		"not json":   "{{{",
		"object":     `{"a": 1}`,
		"non string": `[1, 2]`,
	} {
		path := filepath.Join(t.TempDir(), "l.json")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		_, err := NewFileStore(path).Load(context.Background())
		assert.ErrorIs(t, err, domain.ErrLedgerCorrupt, name)
	}
}

func TestFileStore_NullIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "l.json")
	require.NoError(t, os.WriteFile(path, []byte("null"), 0o644))

	ids, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{}, ids)
}
