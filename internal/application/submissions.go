package application

import (
	"sync"

	"github.com/RaikyD/lengow-mws-connector/internal/domain"
)

// SubmissionLog caches the most recent submitted events, fed by the kafka
// consumer of the admin server.
type SubmissionLog struct {
	mu    sync.RWMutex
	limit int
	order []string
	byID  map[string]domain.SubmittedEvent
}

func NewSubmissionLog(limit int) *SubmissionLog {
	if limit <= 0 {
		limit = 1000
	}
	return &SubmissionLog{
		limit: limit,
		byID:  make(map[string]domain.SubmittedEvent, limit),
	}
}

// Record keeps the latest event per order and evicts the oldest order once
// the log is full.
func (l *SubmissionLog) Record(ev domain.SubmittedEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.byID[ev.OrderID]; !ok {
		l.order = append(l.order, ev.OrderID)
		if len(l.order) > l.limit {
			delete(l.byID, l.order[0])
			l.order = l.order[1:]
		}
	}
	l.byID[ev.OrderID] = ev
}

func (l *SubmissionLog) Get(orderID string) (domain.SubmittedEvent, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ev, ok := l.byID[orderID]
	return ev, ok
}

// Recent returns up to n events, newest first.
func (l *SubmissionLog) Recent(n int) []domain.SubmittedEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || n > len(l.order) {
		n = len(l.order)
	}
	out := make([]domain.SubmittedEvent, 0, n)
	for i := len(l.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.byID[l.order[i]])
	}
	return out
}
