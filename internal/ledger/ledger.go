// Package ledger keeps the ordered set of orders already submitted for
// fulfillment, so a later run never submits them twice.
package ledger

import (
	"context"
	"fmt"
)

// Store persists the ledger contents. Load of a store that was never written
// returns an empty slice and no error. Save receives the full ordered list;
// the list only ever grows between two Saves.
type Store interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, ids []string) error
}

// Ledger is an ordered, duplicate-free list of composite order ids.
// It is not safe for concurrent use.
type Ledger struct {
	ids  []string
	seen map[string]struct{}
}

func New(ids []string) *Ledger {
	l := &Ledger{
		ids:  make([]string, 0, len(ids)),
		seen: make(map[string]struct{}, len(ids)),
	}
	for _, id := range ids {
		l.Add(id)
	}
	return l
}

// Load reads the ledger from s.
func Load(ctx context.Context, s Store) (*Ledger, error) {
	ids, err := s.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return New(ids), nil
}

func (l *Ledger) Contains(id string) bool {
	_, ok := l.seen[id]
	return ok
}

// Add appends id and reports whether it was new.
func (l *Ledger) Add(id string) bool {
	if l.Contains(id) {
		return false
	}
	l.seen[id] = struct{}{}
	l.ids = append(l.ids, id)
	return true
}

// IDs returns a copy of the ids in insertion order.
func (l *Ledger) IDs() []string {
	out := make([]string, len(l.ids))
	copy(out, l.ids)
	return out
}

func (l *Ledger) Len() int { return len(l.ids) }

// Flush writes the current contents to s.
func (l *Ledger) Flush(ctx context.Context, s Store) error {
	if err := s.Save(ctx, l.IDs()); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}
