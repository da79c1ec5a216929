package repo

import (
	"context"

	"github.com/hamed0406/reachability/internal/domain"
)

// StateStore keeps the latest connectivity state; it is not a history.
type StateStore interface {
	Record(ctx context.Context, t domain.Transition) error
	Current(ctx context.Context) (domain.Snapshot, error)
}
