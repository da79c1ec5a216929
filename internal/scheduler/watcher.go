package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/reachability/internal/domain"
	"github.com/hamed0406/reachability/internal/probe"
	"github.com/hamed0406/reachability/internal/repo"
)

// Watcher keeps one observation stream open for the lifetime of the
// process and fans its transitions out to the store and the alerter.
type Watcher struct {
	Logger   *zap.Logger
	Strategy probe.Strategy
	Kind     probe.Kind
	Config   probe.Config
	Store    repo.StateStore
	Alerter  *Alerter // optional
}

func NewWatcher(
	logger *zap.Logger,
	strategy probe.Strategy,
	kind probe.Kind,
	cfg probe.Config,
	store repo.StateStore,
	alerter *Alerter,
) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		Logger:   logger,
		Strategy: strategy,
		Kind:     kind,
		Config:   cfg,
		Store:    store,
		Alerter:  alerter,
	}
}

// Run blocks until ctx is cancelled. An invalid probe config is returned
// immediately, before anything is probed.
func (w *Watcher) Run(ctx context.Context) error {
	updates, stop, err := w.Strategy.Observe(ctx, w.Config)
	if err != nil {
		return err
	}
	defer stop()

	w.Logger.Info("watcher_started",
		zap.String("strategy", string(w.Kind)),
		zap.String("host", w.Config.Host),
		zap.Duration("interval", w.Config.Interval),
	)

	for connected := range updates {
		t := domain.Transition{
			Strategy:  string(w.Kind),
			Host:      w.Config.Host,
			Connected: connected,
			At:        time.Now().UTC(),
		}
		if err := w.Store.Record(ctx, t); err != nil {
			w.Logger.Warn("watcher_record_error", zap.Error(err))
		}
		w.Logger.Info("connectivity_changed",
			zap.String("host", t.Host),
			zap.String("state", string(t.State())),
		)
		if w.Alerter == nil {
			continue
		}
		if err := w.Alerter.Handle(ctx, t); err != nil {
			w.Logger.Warn("alert_send_error", zap.Error(err))
		}
	}

	w.Logger.Info("watcher_stopped")
	return ctx.Err()
}
