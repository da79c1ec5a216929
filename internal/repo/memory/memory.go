package memory

import (
	"context"
	"sync"

	"github.com/hamed0406/reachability/internal/domain"
)

type Store struct {
	mu          sync.RWMutex
	last        *domain.Transition
	since       domain.Transition
	transitions int
}

func New() *Store {
	return &Store{}
}

// Record stores t. A value equal to the current state only refreshes the
// strategy/host labels; Since moves only on a real change.
func (m *Store) Record(ctx context.Context, t domain.Transition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil || m.last.Connected != t.Connected {
		m.since = t
		m.transitions++
	}
	tt := t
	m.last = &tt
	return nil
}

func (m *Store) Current(ctx context.Context) (domain.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return domain.Snapshot{State: domain.StateUnknown}, nil
	}
	since := m.since.At
	return domain.Snapshot{
		Strategy:    m.last.Strategy,
		Host:        m.last.Host,
		State:       m.last.State(),
		Since:       &since,
		Transitions: m.transitions,
	}, nil
}
