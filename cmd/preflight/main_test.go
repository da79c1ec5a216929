package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/hamed0406/reachability/internal/config"
	"github.com/hamed0406/reachability/internal/probe"
)

func goodConfig() config.Config {
	return config.Config{
		Addr:           ":8080",
		Strategy:       probe.KindWalledGarden,
		Port:           probe.DefaultPort,
		Timeout:        probe.DefaultTimeout,
		Interval:       probe.DefaultInterval,
		ExpectedStatus: probe.DefaultExpectedStatus,
		PublicAPIKeys:  []string{"pub"},
		AdminAPIKeys:   []string{"adm"},
		AllowedOrigins: []string{"https://app.example"},
	}
}

func TestPreflight(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		want    bool
		wantErr string
	}{
		{"good", func(*config.Config) {}, true, ""},
		{"zero interval", func(c *config.Config) { c.Interval = 0 }, false, "probe interval"},
		{"negative delay", func(c *config.Config) { c.InitialDelay = -time.Second }, false, "probe initial_delay"},
		{"unknown strategy", func(c *config.Config) { c.Strategy = "icmp" }, false, "unknown strategy"},
		{"no admin keys", func(c *config.Config) { c.AdminAPIKeys = nil }, false, "ADMIN_API_KEYS"},
		{"socket ignores status", func(c *config.Config) {
			c.Strategy = probe.KindSocket
			c.ExpectedStatus = 0
		}, true, ""},
	}
	for _, c := range cases {
		cfg := goodConfig()
		c.mutate(&cfg)
		var stdout, stderr bytes.Buffer
		if got := preflight(cfg, &stdout, &stderr); got != c.want {
			t.Fatalf("%s: preflight=%v want %v\nstderr: %s", c.name, got, c.want, stderr.String())
		}
		if c.wantErr != "" && !strings.Contains(stderr.String(), c.wantErr) {
			t.Fatalf("%s: stderr %q should mention %q", c.name, stderr.String(), c.wantErr)
		}
	}
}
