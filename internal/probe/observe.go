package probe

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// probeFunc performs one probe. A non-nil error is a transport failure.
type probeFunc func(ctx context.Context) (bool, error)

// observer drives one subscription: probes on a fixed schedule, one at a
// time, and sends a value only when it differs from the last one sent.
type observer struct {
	cfg     Config
	probe   probeFunc
	message string
	logger  *zap.Logger
}

// start launches the subscription goroutine. The returned func cancels it
// and returns once the goroutine has exited and out is closed.
func (o *observer) start(parent context.Context) (<-chan bool, func()) {
	ctx, cancel := context.WithCancel(parent)
	out := make(chan bool)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(out)
		o.run(ctx, out)
	}()

	stop := func() {
		cancel()
		<-done
	}
	return out, stop
}

func (o *observer) run(ctx context.Context, out chan<- bool) {
	timer := time.NewTimer(o.cfg.InitialDelay)
	defer timer.Stop()

	var (
		sent bool
		last bool
		next = time.Now().Add(o.cfg.InitialDelay)
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		connected, err := o.probe(ctx)
		if ctx.Err() != nil {
			// cancelled while probing: the outcome belongs to nobody
			return
		}
		if err != nil {
			report(o.logger, o.cfg.ErrorHandler, err, o.message)
			connected = false
		}

		if !sent || connected != last {
			select {
			case out <- connected:
				sent, last = true, connected
			case <-ctx.Done():
				return
			}
		}

		next = next.Add(o.cfg.Interval)
		if now := time.Now(); !now.Before(next) {
			missed := now.Sub(next)/o.cfg.Interval + 1
			next = next.Add(missed * o.cfg.Interval)
			o.logger.Debug("probe_ticks_skipped", zap.Int64("missed", int64(missed)))
		}
		timer.Reset(time.Until(next))
	}
}
