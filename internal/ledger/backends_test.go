package ledger

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaikyD/lengow-mws-connector/internal/migrate"
)

// These run against live services when TEST_REDIS_ADDR / TEST_DB_STRING are set.

func TestRedisStore_Live(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	key := "ledger-test:" + uuid.NewString()
	defer client.Del(ctx, key)
	s := NewRedisStore(client, key)

	ids, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, s.Save(ctx, []string{"X"}))
	require.NoError(t, s.Save(ctx, []string{"X", "A", "B"}))
	require.NoError(t, s.Save(ctx, []string{"X", "A", "B"}))

	ids, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "A", "B"}, ids)

	// a list holding duplicates is longer than the ledger built from it
	require.NoError(t, client.RPush(ctx, key, "A").Err())
	require.NoError(t, s.Save(ctx, []string{"X", "A", "B", "C"}))
	ids, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "A", "B", "A", "C"}, ids)
	assert.Equal(t, []string{"X", "A", "B", "C"}, New(ids).IDs())
}

func TestMissingIDs(t *testing.T) {
	stored := []string{"X", "A", "X", "B"}
	assert.Equal(t, []string{"C"}, missingIDs(stored, []string{"X", "A", "B", "C"}))
	assert.Empty(t, missingIDs(stored, []string{"X", "A", "B"}))
	assert.Equal(t, []string{"A", "B"}, missingIDs(nil, []string{"A", "B", "A"}))
}

func TestPostgresStore_Live(t *testing.T) {
	dsn := os.Getenv("TEST_DB_STRING")
	if dsn == "" {
		t.Skip("TEST_DB_STRING not set")
	}
	ctx := context.Background()
	require.NoError(t, migrate.Up(dsn))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()
	_, err = pool.Exec(ctx, `TRUNCATE fulfilled_orders`)
	require.NoError(t, err)

	s := NewPostgresStore(pool)
	require.NoError(t, s.Save(ctx, []string{"X"}))
	require.NoError(t, s.Save(ctx, []string{"X", "A", "B"}))

	ids, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "A", "B"}, ids)

	// a fresh store counts the rows before appending
	s = NewPostgresStore(pool)
	require.NoError(t, s.Save(ctx, []string{"X", "A", "B", "C"}))
	var pos int
	require.NoError(t, pool.QueryRow(ctx, `SELECT position FROM fulfilled_orders WHERE order_id = 'C'`).Scan(&pos))
	assert.Equal(t, 3, pos)
}
