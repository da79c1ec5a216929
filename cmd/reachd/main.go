package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/reachability/internal/config"
	"github.com/hamed0406/reachability/internal/httpapi"
	apimw "github.com/hamed0406/reachability/internal/httpapi/middleware"
	"github.com/hamed0406/reachability/internal/logging"
	"github.com/hamed0406/reachability/internal/notify"
	"github.com/hamed0406/reachability/internal/probe"
	"github.com/hamed0406/reachability/internal/repo/memory"
	"github.com/hamed0406/reachability/internal/scheduler"
)

func main() {
	cfgPath := flag.String("config", "", "optional YAML config file; environment variables override it")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(logging.Options{Dir: cfg.LogDir, Level: cfg.LogLevel, Console: true})
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	strategy, err := probe.New(cfg.Strategy, probe.WithLogger(logger))
	if err != nil {
		logger.Fatal("bad_strategy", zap.Error(err))
	}
	if c, ok := strategy.(interface{ Close() }); ok {
		defer c.Close()
	}
	pcfg := cfg.Probe(probe.NewLogErrorHandler(logger), strategy.DefaultHost())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := memory.New()

	notifiers := notify.Multi{notify.NewLog(logger)}
	if slack := notify.NewSlack(cfg.SlackWebhook); slack != nil {
		notifiers = append(notifiers, slack)
	}
	alerter := scheduler.NewAlerter(notifiers, scheduler.AlerterConfig{
		AlertOnRecovery: cfg.AlertOnRecovery,
		Cooldown:        cfg.AlertCooldown,
	})
	watcher := scheduler.NewWatcher(logger, strategy, cfg.Strategy, pcfg, store, alerter)

	watchErr := make(chan error, 1)
	go func() { watchErr <- watcher.Run(ctx) }()

	api := httpapi.NewServer(logger, strategy, cfg.Strategy, pcfg, store)
	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(keys, cfg.AllowedOrigins, cfg.PublicRPM, cfg.PublicBurst, cfg.AdminRPM, cfg.AdminBurst),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr), zap.String("strategy", string(cfg.Strategy)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_listen_error", zap.Error(err))
			stop()
		}
	}()

	var failed bool
	select {
	case <-ctx.Done():
	case err := <-watchErr:
		if errors.Is(err, probe.ErrInvalidConfig) {
			logger.Error("bad_probe_config", zap.Error(err))
			failed = true
		}
		stop()
	}

	logger.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api_shutdown_error", zap.Error(err))
	}
	if failed {
		_ = logger.Sync()
		os.Exit(1)
	}
}
