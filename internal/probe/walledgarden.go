package probe

import (
	"context"

	"go.uber.org/zap"
)

const walledGardenFailure = "could not establish connection with walled garden strategy"

// WalledGarden probes an HTTP endpoint that answers with a known status when
// reached unobstructed. Captive portals and filtering networks still answer,
// but with a different status, so they read as disconnected.
type WalledGarden struct {
	transport Transport
	adjust    HostAdjuster
	logger    *zap.Logger
}

var _ Strategy = (*WalledGarden)(nil)

func NewWalledGarden(opts ...Option) *WalledGarden {
	o := buildOptions(Identity, opts)
	if o.transport == nil {
		o.transport = NewHTTPTransport()
	}
	return &WalledGarden{
		transport: o.transport,
		adjust:    o.adjust,
		logger:    o.logger.Named("walled_garden"),
	}
}

func (w *WalledGarden) DefaultHost() string { return DefaultWalledGardenHost }

func (w *WalledGarden) Check(ctx context.Context, cfg Config) (bool, error) {
	if err := ValidateCheck(cfg); err != nil {
		return false, err
	}
	connected, err := w.probe(ctx, cfg.Host, cfg)
	if err != nil {
		report(w.logger, cfg.ErrorHandler, err, walledGardenFailure)
		return false, nil
	}
	return connected, nil
}

func (w *WalledGarden) Observe(ctx context.Context, cfg Config) (<-chan bool, func(), error) {
	if err := ValidateObserve(cfg); err != nil {
		return nil, nil, err
	}
	host := w.adjust(cfg.Host)
	w.logger.Debug("observe_started",
		zap.String("host", host),
		zap.Duration("initial_delay", cfg.InitialDelay),
		zap.Duration("interval", cfg.Interval),
	)

	o := &observer{
		cfg: cfg,
		probe: func(ctx context.Context) (bool, error) {
			return w.probe(ctx, host, cfg)
		},
		message: walledGardenFailure,
		logger:  w.logger,
	}
	out, stop := o.start(ctx)
	return out, stop, nil
}

func (w *WalledGarden) probe(ctx context.Context, host string, cfg Config) (bool, error) {
	status, err := w.transport.Send(ctx, Request{URL: host, Port: cfg.Port, Timeout: cfg.Timeout})
	if err != nil {
		return false, err
	}
	return status == cfg.ExpectedStatus, nil
}

// Close releases the pooled connections of the default transport.
func (w *WalledGarden) Close() {
	if c, ok := w.transport.(interface{ Close() }); ok {
		c.Close()
	}
}
