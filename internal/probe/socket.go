package probe

import (
	"context"

	"go.uber.org/zap"
)

const socketFailure = "could not establish connection with socket strategy"

// Socket treats a completed TCP handshake with host:port as connectivity.
// It ignores Config.ExpectedStatus.
type Socket struct {
	dialer Dialer
	adjust HostAdjuster
	logger *zap.Logger
}

var _ Strategy = (*Socket)(nil)

func NewSocket(opts ...Option) *Socket {
	o := buildOptions(StripScheme, opts)
	if o.dialer == nil {
		o.dialer = TCPDialer{}
	}
	return &Socket{
		dialer: o.dialer,
		adjust: o.adjust,
		logger: o.logger.Named("socket"),
	}
}

func (s *Socket) DefaultHost() string { return DefaultSocketHost }

func (s *Socket) Check(ctx context.Context, cfg Config) (bool, error) {
	if err := validateTarget(cfg); err != nil {
		return false, err
	}
	if err := s.dial(ctx, cfg.Host, cfg); err != nil {
		report(s.logger, cfg.ErrorHandler, err, socketFailure)
		return false, nil
	}
	return true, nil
}

func (s *Socket) Observe(ctx context.Context, cfg Config) (<-chan bool, func(), error) {
	if err := validateSchedule(cfg); err != nil {
		return nil, nil, err
	}
	if err := validateTarget(cfg); err != nil {
		return nil, nil, err
	}
	host := s.adjust(cfg.Host)
	s.logger.Debug("observe_started", zap.String("host", host), zap.Int("port", cfg.Port))

	o := &observer{
		cfg: cfg,
		probe: func(ctx context.Context) (bool, error) {
			if err := s.dial(ctx, host, cfg); err != nil {
				return false, err
			}
			return true, nil
		},
		message: socketFailure,
		logger:  s.logger,
	}
	out, stop := o.start(ctx)
	return out, stop, nil
}

func (s *Socket) dial(ctx context.Context, host string, cfg Config) error {
	return s.dialer.Dial(ctx, joinHostPort(host, cfg.Port), cfg.Timeout)
}
