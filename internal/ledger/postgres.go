package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RaikyD/lengow-mws-connector/internal/logger"
)

// PostgresStore keeps the ledger in the fulfilled_orders table. The schema
// comes from internal/migrate.
type PostgresStore struct {
	pool *pgxpool.Pool

	mu    sync.Mutex
	saved int
	known bool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Load(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT order_id FROM fulfilled_orders ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("select ledger: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("select ledger: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}

	p.mu.Lock()
	p.saved, p.known = len(ids), true
	p.mu.Unlock()
	return ids, nil
}

// Save inserts the ids past the last loaded or saved length in a single
// transaction.
func (p *PostgresStore) Save(ctx context.Context, ids []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.known {
		if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM fulfilled_orders`).Scan(&p.saved); err != nil {
			return fmt.Errorf("count ledger: %w", err)
		}
		p.known = true
	}
	if len(ids) <= p.saved {
		return nil
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	batch := &pgx.Batch{}
	for i := p.saved; i < len(ids); i++ {
		batch.Queue(`
			INSERT INTO fulfilled_orders (position, order_id)
			VALUES ($1, $2)
			ON CONFLICT (order_id) DO NOTHING
		`, i, ids[i])
	}
	br := tx.SendBatch(ctx, batch)
	if err = br.Close(); err != nil {
		logger.Warn("ledger batch insert failed", "err", err)
		return fmt.Errorf("insert ledger: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	tx = nil
	p.saved = len(ids)
	return nil
}
