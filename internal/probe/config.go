package probe

import (
	"net/http"
	"time"
)

// Defaults mirror the settings most connectivity checkers ship with. The walled
// garden host and DefaultExpectedStatus are a pair: a custom host needs its own
// expected status.
const (
	DefaultWalledGardenHost = "https://clients3.google.com/generate_204"
	DefaultExpectedStatus   = http.StatusNoContent
	DefaultSocketHost       = "www.google.com"
	DefaultPort             = 80
	DefaultTimeout          = 2 * time.Second
	DefaultInitialDelay     = 0
	DefaultInterval         = 2 * time.Second
)

// Config holds the parameters of a single check or an observation stream.
// InitialDelay and Interval are only read by Observe.
type Config struct {
	InitialDelay   time.Duration
	Interval       time.Duration
	Host           string
	Port           int
	Timeout        time.Duration
	ExpectedStatus int
	ErrorHandler   ErrorHandler
}

// DefaultConfig returns a walled garden config that reports transport
// failures to h.
func DefaultConfig(h ErrorHandler) Config {
	return Config{
		InitialDelay:   DefaultInitialDelay,
		Interval:       DefaultInterval,
		Host:           DefaultWalledGardenHost,
		Port:           DefaultPort,
		Timeout:        DefaultTimeout,
		ExpectedStatus: DefaultExpectedStatus,
		ErrorHandler:   h,
	}
}
