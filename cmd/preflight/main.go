// cmd/preflight/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hamed0406/reachability/internal/config"
	"github.com/hamed0406/reachability/internal/probe"
)

func main() {
	cfgPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "✖", err)
		os.Exit(1)
	}
	if !preflight(cfg, os.Stdout, os.Stderr) {
		os.Exit(1)
	}
}

// preflight reports on cfg and returns false if the daemon would refuse it
// or serve an unprotected API.
func preflight(cfg config.Config, stdout, stderr io.Writer) bool {
	passed := true
	fail := func(msg string) {
		fmt.Fprintln(stderr, "✖", msg)
		passed = false
	}
	warn := func(msg string) { fmt.Fprintln(stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(stdout, "✔", msg) }

	s, err := probe.New(cfg.Strategy)
	if err != nil {
		fail(err.Error())
	} else {
		pcfg := cfg.Probe(probe.NewLogErrorHandler(nil), s.DefaultHost())
		if cfg.Strategy == probe.KindSocket {
			// the socket strategy never reads the status
			pcfg.ExpectedStatus = probe.DefaultExpectedStatus
		}
		var ce *probe.ConfigError
		switch err := probe.ValidateObserve(pcfg); {
		case errors.As(err, &ce):
			fail(fmt.Sprintf("probe %s %s", ce.Field, ce.Reason))
		case err != nil:
			fail(err.Error())
		default:
			kind := cfg.Strategy
			if kind == "" {
				kind = probe.KindWalledGarden
			}
			ok(fmt.Sprintf("probe %s host=%s every %s", kind, pcfg.Host, pcfg.Interval))
		}
		if cfg.Host != "" && cfg.Strategy != probe.KindSocket && cfg.ExpectedStatus == probe.DefaultExpectedStatus {
			warn("PROBE_HOST is custom but PROBE_EXPECTED_STATUS is the default 204; make sure the host answers with it.")
		}
	}

	if len(cfg.AdminAPIKeys) == 0 {
		fail("ADMIN_API_KEYS is empty (admin routes are open to anyone).")
	}
	if len(cfg.PublicAPIKeys) == 0 {
		fail("PUBLIC_API_KEYS is empty (read routes are open to anyone).")
	}

	// Normalize and sanity-check lists (no spaces inside a key).
	for name, keys := range map[string][]string{"ADMIN_API_KEYS": cfg.AdminAPIKeys, "PUBLIC_API_KEYS": cfg.PublicAPIKeys} {
		for _, k := range keys {
			if strings.ContainsAny(k, " \t") {
				warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
				break
			}
		}
	}

	if cfg.Addr == "" {
		warn("API_ADDR is empty; the daemon will listen on :http.")
	} else {
		ok("API_ADDR=" + cfg.Addr)
	}

	if cfg.SlackWebhook == "" {
		warn("SLACK_WEBHOOK empty; alerts only go to the log.")
	} else {
		ok("SLACK_WEBHOOK present")
	}

	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty; any origin may call the API and open streams.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}

	if passed {
		ok("preflight passed")
	}
	return passed
}
