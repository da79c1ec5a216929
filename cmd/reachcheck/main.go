package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hamed0406/reachability/internal/config"
	"github.com/hamed0406/reachability/internal/logging"
	"github.com/hamed0406/reachability/internal/probe"
)

const (
	exitConnected    = 0
	exitDisconnected = 1
	exitConfig       = 2
)

type result struct {
	Strategy  probe.Kind       `json:"strategy" yaml:"strategy"`
	Host      string           `json:"host" yaml:"host"`
	Connected bool             `json:"connected" yaml:"connected"`
	Reason    string           `json:"reason,omitempty" yaml:"reason,omitempty"`
	LatencyMS float64          `json:"latency_ms,omitempty" yaml:"latency_ms,omitempty"`
	At        time.Time        `json:"at" yaml:"at"`
	DNS       *probe.DNSStatus `json:"dns,omitempty" yaml:"dns,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("reachcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		cfgPath  = fs.String("config", "", "optional YAML config file")
		strategy = fs.String("strategy", "", "walled_garden | socket")
		host     = fs.String("host", "", "probe host (default depends on strategy)")
		port     = fs.Int("port", 0, "probe port")
		timeout  = fs.Duration("timeout", 0, "per-probe timeout")
		status   = fs.Int("expected-status", 0, "status that means connected (walled garden)")
		interval = fs.Duration("interval", 0, "probe interval in -watch mode")
		delay    = fs.Duration("initial-delay", 0, "delay before the first probe in -watch mode")
		watch    = fs.Bool("watch", false, "keep probing and print every change")
		output   = fs.String("o", "text", "output format: text | json | yaml")
		diagnose = fs.Bool("diagnose", false, "classify the host's DNS after a failed check")
		verbose  = fs.Bool("v", false, "debug logging on stderr")
	)
	if err := fs.Parse(args); err != nil {
		return exitConfig
	}
	out, err := newPrinter(*output, stdout)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}
	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, err := logging.NewLogger(logging.Options{Level: level, Console: true})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}
	defer logger.Sync()

	// flags win over file and environment, but only when given
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "strategy":
			cfg.Strategy = probe.Kind(*strategy)
		case "host":
			cfg.Host = *host
		case "port":
			cfg.Port = *port
		case "timeout":
			cfg.Timeout = *timeout
		case "expected-status":
			cfg.ExpectedStatus = *status
		case "interval":
			cfg.Interval = *interval
		case "initial-delay":
			cfg.InitialDelay = *delay
		}
	})

	s, err := probe.New(cfg.Strategy, probe.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}
	if c, ok := s.(interface{ Close() }); ok {
		defer c.Close()
	}
	kind := cfg.Strategy
	if kind == "" {
		kind = probe.KindWalledGarden
	}
	cfg.Host = normalizeHost(kind, cfg.Host)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *watch {
		return watchLoop(ctx, s, kind, cfg.Probe(probe.NewLogErrorHandler(logger), s.DefaultHost()), out, stderr)
	}

	var reason string
	pcfg := cfg.Probe(probe.ErrorHandlerFunc(func(err error, message string) {
		reason = fmt.Sprintf("%s: %v", message, err)
		logger.Debug("probe_failed", zap.Error(err))
	}), s.DefaultHost())

	start := time.Now()
	connected, err := s.Check(ctx, pcfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}
	res := result{
		Strategy:  kind,
		Host:      pcfg.Host,
		Connected: connected,
		Reason:    reason,
		LatencyMS: float64(time.Since(start).Microseconds()) / 1000.0,
		At:        time.Now().UTC(),
	}
	if !connected && *diagnose {
		dns := probe.CheckDNS(ctx, pcfg.Host)
		res.DNS = &dns
	}
	if err := out(res); err != nil {
		fmt.Fprintln(stderr, err)
	}
	if !connected {
		return exitDisconnected
	}
	return exitConnected
}

// normalizeHost lets a walled garden host be given without a scheme, such as
// example.com/generate_204. Both the one-shot check and -watch use the result.
func normalizeHost(kind probe.Kind, host string) string {
	host = strings.TrimSpace(host)
	if host == "" || kind != probe.KindWalledGarden {
		return host
	}
	return probe.EnsureScheme("https")(host)
}

func watchLoop(ctx context.Context, s probe.Strategy, kind probe.Kind, cfg probe.Config, out printer, stderr io.Writer) int {
	updates, stop, err := s.Observe(ctx, cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		if errors.Is(err, probe.ErrInvalidConfig) {
			return exitConfig
		}
		return exitDisconnected
	}
	defer stop()

	last := false
	for connected := range updates {
		last = connected
		if err := out(result{Strategy: kind, Host: cfg.Host, Connected: connected, At: time.Now().UTC()}); err != nil {
			fmt.Fprintln(stderr, err)
		}
	}
	if !last {
		return exitDisconnected
	}
	return exitConnected
}

type printer func(result) error

func newPrinter(format string, w io.Writer) (printer, error) {
	switch format {
	case "text", "":
		return func(r result) error {
			state := "connected"
			if !r.Connected {
				state = "NOT connected"
			}
			line := fmt.Sprintf("%s %s via %s", r.At.Local().Format(time.RFC3339), state, r.Strategy)
			line += fmt.Sprintf(" host=%s", r.Host)
			if r.LatencyMS > 0 {
				line += fmt.Sprintf(" latency=%.1fms", r.LatencyMS)
			}
			if r.Reason != "" {
				line += fmt.Sprintf(" reason=%q", r.Reason)
			}
			if r.DNS != nil {
				line += fmt.Sprintf(" dns=%s", r.DNS.Class)
			}
			_, err := fmt.Fprintln(w, line)
			return err
		}, nil
	case "json":
		enc := json.NewEncoder(w)
		return func(r result) error { return enc.Encode(r) }, nil
	case "yaml":
		return func(r result) error {
			b, err := yaml.Marshal(r)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "---\n%s", b)
			return err
		}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
