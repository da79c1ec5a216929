package probe

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Strategy decides whether the Internet is reachable.
//
// Check performs exactly one probe and reports the result. The only error it
// returns is a *ConfigError; transport failures are reported to
// cfg.ErrorHandler and read as "not connected".
//
// Observe validates cfg and starts a subscription that probes after
// cfg.InitialDelay and then every cfg.Interval. The channel receives a value
// only when it differs from the previous one, the first result always. The
// returned func (or cancelling ctx) ends the subscription; the channel is
// closed once it has stopped.
type Strategy interface {
	DefaultHost() string
	Check(ctx context.Context, cfg Config) (bool, error)
	Observe(ctx context.Context, cfg Config) (<-chan bool, func(), error)
}

// Kind names a Strategy implementation.
type Kind string

const (
	KindWalledGarden Kind = "walled_garden"
	KindSocket       Kind = "socket"
)

var ErrUnknownStrategy = errors.New("probe: unknown strategy")

// New returns the strategy registered under kind.
func New(kind Kind, opts ...Option) (Strategy, error) {
	switch kind {
	case KindWalledGarden, "":
		return NewWalledGarden(opts...), nil
	case KindSocket:
		return NewSocket(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, kind)
	}
}

type options struct {
	transport Transport
	dialer    Dialer
	adjust    HostAdjuster
	logger    *zap.Logger
}

// Option configures a strategy.
type Option func(*options)

// WithTransport replaces the HTTP transport of the walled garden strategy.
func WithTransport(t Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithDialer replaces the TCP dialer of the socket strategy.
func WithDialer(d Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithHostAdjuster sets the rewrite applied to the host when Observe starts.
func WithHostAdjuster(fn HostAdjuster) Option {
	return func(o *options) { o.adjust = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(defaultAdjust HostAdjuster, opts []Option) options {
	o := options{adjust: defaultAdjust}
	for _, opt := range opts {
		opt(&o)
	}
	if o.adjust == nil {
		o.adjust = defaultAdjust
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}
