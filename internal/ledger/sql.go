package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/RaikyD/lengow-mws-connector/internal/domain"
	"github.com/RaikyD/lengow-mws-connector/internal/migrate"

	_ "modernc.org/sqlite"
)

const (
	selectIDs = `SELECT order_id FROM fulfilled_orders ORDER BY position`
	countIDs  = `SELECT COUNT(*) FROM fulfilled_orders`
	insertID  = `INSERT INTO fulfilled_orders (position, order_id) VALUES (?, ?) ON CONFLICT (order_id) DO NOTHING`
)

// SQLStore keeps the ledger in the fulfilled_orders table of a database/sql
// database. Rows are only ever inserted, and Save only inserts the ids past
// the last length it loaded or saved.
type SQLStore struct {
	db *sql.DB

	mu    sync.Mutex
	saved int
	known bool
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// OpenSQLite opens (or creates) the SQLite file at path and migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	if err := migrate.UpDB(db, migrate.DialectSQLite); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite %s: %w", path, err)
	}
	return NewSQLStore(db), nil
}

func (s *SQLStore) Load(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, selectIDs)
	if err != nil {
		return nil, fmt.Errorf("select ledger: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrLedgerCorrupt, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select ledger: %w", err)
	}

	s.mu.Lock()
	s.saved, s.known = len(ids), true
	s.mu.Unlock()
	return ids, nil
}

func (s *SQLStore) Save(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.known {
		if err := s.db.QueryRowContext(ctx, countIDs).Scan(&s.saved); err != nil {
			return fmt.Errorf("count ledger: %w", err)
		}
		s.known = true
	}
	if len(ids) <= s.saved {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertID)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := s.saved; i < len(ids); i++ {
		if _, err := stmt.ExecContext(ctx, i, ids[i]); err != nil {
			return fmt.Errorf("insert %s: %w", ids[i], err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.saved = len(ids)
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
