package probe

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// outcome is one scripted transport answer.
type outcome struct {
	status int
	err    error
}

// scriptedTransport replays outcomes in order and then repeats the last one.
type scriptedTransport struct {
	mu     sync.Mutex
	script []outcome
	urls   []string
	delay  time.Duration

	calls       atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (s *scriptedTransport) Send(ctx context.Context, r Request) (int, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		m := s.maxInFlight.Load()
		if n <= m || s.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	i := int(s.calls.Add(1)) - 1
	s.mu.Lock()
	s.urls = append(s.urls, r.URL)
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if len(s.script) == 0 {
		return DefaultExpectedStatus, nil
	}
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	return s.script[i].status, s.script[i].err
}

func (s *scriptedTransport) seenURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.urls...)
}

func statuses(codes ...int) []outcome {
	out := make([]outcome, len(codes))
	for i, c := range codes {
		out[i] = outcome{status: c}
	}
	return out
}

// recordingHandler counts HandleError calls.
type recordingHandler struct {
	mu       sync.Mutex
	errs     []error
	messages []string
}

func (h *recordingHandler) HandleError(err error, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, err)
	h.messages = append(h.messages, message)
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.errs)
}

func fastConfig(h ErrorHandler) Config {
	return Config{
		InitialDelay:   0,
		Interval:       5 * time.Millisecond,
		Host:           DefaultWalledGardenHost,
		Port:           DefaultPort,
		Timeout:        time.Second,
		ExpectedStatus: DefaultExpectedStatus,
		ErrorHandler:   h,
	}
}

// collect reads n values or fails after timeout.
func collect(t *testing.T, ch <-chan bool, n int, timeout time.Duration) []bool {
	t.Helper()
	var got []bool
	deadline := time.After(timeout)
	for len(got) < n {
		select {
		case v, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed after %v", got)
			}
			got = append(got, v)
		case <-deadline:
			t.Fatalf("timed out after %v, want %d values", got, n)
		}
	}
	return got
}

// expectQuiet fails if ch delivers a value within d.
func expectQuiet(t *testing.T, ch <-chan bool, d time.Duration) {
	t.Helper()
	select {
	case v, ok := <-ch:
		if ok {
			t.Fatalf("unexpected emission %v", v)
		}
	case <-time.After(d):
	}
}
