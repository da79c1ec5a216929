package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hamed0406/reachability/internal/probe"
)

type Config struct {
	Addr     string // API bind address, e.g., "127.0.0.1:8080" (Windows) or ":8080" (Docker)
	LogDir   string // logs directory
	LogLevel string

	Strategy       probe.Kind
	Host           string // empty means the strategy's default host
	Port           int
	Timeout        time.Duration
	InitialDelay   time.Duration
	Interval       time.Duration
	ExpectedStatus int

	SlackWebhook    string
	AlertOnRecovery bool
	AlertCooldown   time.Duration

	PublicAPIKeys  []string
	AdminAPIKeys   []string
	AllowedOrigins []string
	PublicRPM      int
	PublicBurst    int
	AdminRPM       int
	AdminBurst     int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_addr", "127.0.0.1:8080")
	v.SetDefault("log_dir", "logs")
	v.SetDefault("log_level", "info")

	v.SetDefault("probe.strategy", string(probe.KindWalledGarden))
	v.SetDefault("probe.host", "")
	v.SetDefault("probe.port", probe.DefaultPort)
	v.SetDefault("probe.timeout_ms", probe.DefaultTimeout.Milliseconds())
	v.SetDefault("probe.initial_delay_ms", 0)
	v.SetDefault("probe.interval_ms", probe.DefaultInterval.Milliseconds())
	v.SetDefault("probe.expected_status", probe.DefaultExpectedStatus)

	v.SetDefault("alert.slack_webhook", "")
	v.SetDefault("alert.on_recovery", true)
	v.SetDefault("alert.cooldown_ms", (5 * time.Minute).Milliseconds())

	v.SetDefault("public_api_keys", "")
	v.SetDefault("admin_api_keys", "")
	v.SetDefault("allowed_origins", "")
	v.SetDefault("public_rpm", 120)
	v.SetDefault("public_burst", 60)
	v.SetDefault("admin_rpm", 30)
	v.SetDefault("admin_burst", 10)
}

// FromEnv reads configuration from the environment only.
func FromEnv() Config {
	cfg, _ := Load("")
	return cfg
}

// Load reads an optional YAML file and applies environment overrides on top.
// A missing file falls back to defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("alert.slack_webhook", "SLACK_WEBHOOK")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return Config{
		Addr:     v.GetString("api_addr"),
		LogDir:   v.GetString("log_dir"),
		LogLevel: v.GetString("log_level"),

		Strategy:       probe.Kind(strings.ToLower(strings.TrimSpace(v.GetString("probe.strategy")))),
		Host:           strings.TrimSpace(v.GetString("probe.host")),
		Port:           intOr(v, "probe.port", probe.DefaultPort),
		Timeout:        millisOr(v, "probe.timeout_ms", probe.DefaultTimeout),
		InitialDelay:   millisOr(v, "probe.initial_delay_ms", 0),
		Interval:       millisOr(v, "probe.interval_ms", probe.DefaultInterval),
		ExpectedStatus: intOr(v, "probe.expected_status", probe.DefaultExpectedStatus),

		SlackWebhook:    strings.TrimSpace(v.GetString("alert.slack_webhook")),
		AlertOnRecovery: v.GetBool("alert.on_recovery"),
		AlertCooldown:   millisOr(v, "alert.cooldown_ms", 5*time.Minute),

		PublicAPIKeys:  list(v, "public_api_keys"),
		AdminAPIKeys:   list(v, "admin_api_keys"),
		AllowedOrigins: list(v, "allowed_origins"),
		PublicRPM:      intOr(v, "public_rpm", 120),
		PublicBurst:    intOr(v, "public_burst", 60),
		AdminRPM:       intOr(v, "admin_rpm", 30),
		AdminBurst:     intOr(v, "admin_burst", 10),
	}, nil
}

// Probe builds the probe config. Values are passed through as configured so
// that probe validation reports them instead of silently replacing them.
func (c Config) Probe(h probe.ErrorHandler, defaultHost string) probe.Config {
	host := c.Host
	if host == "" {
		host = defaultHost
	}
	return probe.Config{
		InitialDelay:   c.InitialDelay,
		Interval:       c.Interval,
		Host:           host,
		Port:           c.Port,
		Timeout:        c.Timeout,
		ExpectedStatus: c.ExpectedStatus,
		ErrorHandler:   h,
	}
}

// intOr returns def only when the value does not parse as an integer.
func intOr(v *viper.Viper, key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return def
	}
	return n
}

func millisOr(v *viper.Viper, key string, def time.Duration) time.Duration {
	n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return def
	}
	return time.Duration(n) * time.Millisecond
}

// list accepts a YAML sequence or a comma-separated string.
func list(v *viper.Viper, key string) []string {
	var raw []string
	switch val := v.Get(key).(type) {
	case string:
		raw = strings.Split(val, ",")
	case []any:
		for _, item := range val {
			raw = append(raw, fmt.Sprint(item))
		}
	case []string:
		raw = val
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
