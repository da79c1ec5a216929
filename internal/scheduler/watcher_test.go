package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/reachability/internal/domain"
	"github.com/hamed0406/reachability/internal/probe"
	"github.com/hamed0406/reachability/internal/repo/memory"
)

// --- fakes ---

// feedStrategy forwards whatever the test pushes into feed.
type feedStrategy struct {
	feed    chan bool
	err     error
	stopped chan struct{}
}

func newFeedStrategy() *feedStrategy {
	return &feedStrategy{feed: make(chan bool), stopped: make(chan struct{})}
}

func (f *feedStrategy) DefaultHost() string { return probe.DefaultWalledGardenHost }

func (f *feedStrategy) Check(ctx context.Context, cfg probe.Config) (bool, error) {
	return false, errors.New("not used")
}

func (f *feedStrategy) Observe(ctx context.Context, cfg probe.Config) (<-chan bool, func(), error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	out := make(chan bool)
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case v := <-f.feed:
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, func() {
		cancel()
		<-done
		select {
		case <-f.stopped:
		default:
			close(f.stopped)
		}
	}, nil
}

func testProbeConfig() probe.Config {
	return probe.DefaultConfig(probe.NewLogErrorHandler(nil))
}

// --- tests ---

func TestWatcher_RecordsAndAlerts(t *testing.T) {
	st := newFeedStrategy()
	store := memory.New()
	nt := &memNotifier{}
	w := NewWatcher(zap.NewNop(), st, probe.KindWalledGarden, testProbeConfig(), store,
		NewAlerter(nt, AlerterConfig{AlertOnRecovery: true}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	st.feed <- true
	st.feed <- false

	require.Eventually(t, func() bool {
		snap, _ := store.Current(context.Background())
		return snap.State == domain.StateDisconnected && snap.Transitions == 2
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return nt.n() == 1 }, time.Second, 5*time.Millisecond)

	snap, _ := store.Current(context.Background())
	assert.Equal(t, "walled_garden", snap.Strategy)
	assert.Equal(t, probe.DefaultWalledGardenHost, snap.Host)

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
	<-st.stopped
}

func TestWatcher_ConfigErrorReturnsImmediately(t *testing.T) {
	st := newFeedStrategy()
	st.err = &probe.ConfigError{Field: "interval", Reason: "must be a positive duration"}
	w := NewWatcher(nil, st, probe.KindWalledGarden, testProbeConfig(), memory.New(), nil)

	err := w.Run(context.Background())
	require.ErrorIs(t, err, probe.ErrInvalidConfig)
}

func TestWatcher_WithRealStrategy(t *testing.T) {
	tr := &fixedTransport{status: 204}
	st := probe.NewWalledGarden(probe.WithTransport(tr))
	cfg := testProbeConfig()
	cfg.Interval = 5 * time.Millisecond
	store := memory.New()
	w := NewWatcher(zap.NewNop(), st, probe.KindWalledGarden, cfg, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.Eventually(t, func() bool {
		snap, _ := store.Current(context.Background())
		return snap.State == domain.StateConnected
	}, time.Second, 5*time.Millisecond)
}

type fixedTransport struct{ status int }

func (f *fixedTransport) Send(ctx context.Context, r probe.Request) (int, error) {
	return f.status, nil
}
