package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hamed0406/reachability/internal/domain"
)

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
}

// Alerter turns connectivity transitions into notifications.
type Alerter struct {
	notifier interface {
		Send(context.Context, string, string) error
	}
	cfg AlerterConfig
	now func() time.Time

	mu         sync.Mutex
	lastState  *bool
	lastSentAt time.Time
}

func NewAlerter(
	notifier interface {
		Send(context.Context, string, string) error
	},
	cfg AlerterConfig,
) *Alerter {
	return &Alerter{
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Handle decides whether t deserves a notification and sends it.
// It returns the notifier's error, if any; the state is updated regardless.
func (a *Alerter) Handle(ctx context.Context, t domain.Transition) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()

	// Has the up/down state changed compared to what we last saw?
	stateChanged := a.lastState == nil || *a.lastState != t.Connected
	if !stateChanged {
		return nil
	}
	known := a.lastState != nil
	up := t.Connected
	a.lastState = &up

	// Cooldown only matters for DOWN alerts (suppresses flapping).
	cooled := a.lastSentAt.IsZero() || now.Sub(a.lastSentAt) >= a.cfg.Cooldown

	downAlert := !t.Connected && cooled
	// nothing "recovers" on the very first observation
	recoveryAlert := t.Connected && known && a.cfg.AlertOnRecovery

	if !downAlert && !recoveryAlert {
		return nil
	}

	title := "🔴 Internet DOWN"
	if t.Connected {
		title = "🟢 Internet RECOVERED"
	}
	text := fmt.Sprintf(
		"Strategy: %s\nHost: %s\nState: %s\nObserved: %s",
		t.Strategy, t.Host, t.State(), t.At.Format(time.RFC3339),
	)

	a.lastSentAt = now
	return a.notifier.Send(ctx, title, text)
}
