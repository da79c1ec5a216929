package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPTransport_ReturnsStatus(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("want GET, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer s.Close()

	tr := NewHTTPTransport()
	defer tr.Close()
	code, err := tr.Send(context.Background(), Request{URL: s.URL, Port: 80, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if code != http.StatusNoContent {
		t.Fatalf("want 204, got %d", code)
	}
}

func TestHTTPTransport_FollowsRedirects(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			w.WriteHeader(http.StatusOK)
		case "/generate_204":
			w.WriteHeader(http.StatusNoContent)
		case "/moved":
			http.Redirect(w, r, "/generate_204", http.StatusMovedPermanently)
		default:
			http.Redirect(w, r, "/login", http.StatusFound)
		}
	}))
	defer s.Close()

	tr := NewHTTPTransport()
	defer tr.Close()

	code, err := tr.Send(context.Background(), Request{URL: s.URL + "/portal", Port: 80, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if code != http.StatusOK {
		t.Fatalf("want the login page's 200, got %d", code)
	}

	code, err = tr.Send(context.Background(), Request{URL: s.URL + "/moved", Port: 80, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if code != http.StatusNoContent {
		t.Fatalf("want 204 from the redirect target, got %d", code)
	}
}

func TestHTTPTransport_IgnoresPort(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer s.Close()

	tr := NewHTTPTransport()
	defer tr.Close()
	// nothing listens on port 1; the URL's own port must be used
	code, err := tr.Send(context.Background(), Request{URL: s.URL, Port: 1, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if code != http.StatusNoContent {
		t.Fatalf("want 204, got %d", code)
	}
}

func TestHTTPTransport_TimeoutFails(t *testing.T) {
	// Server sleeps longer than the request timeout
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(300 * time.Millisecond):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer s.Close()

	tr := NewHTTPTransport()
	start := time.Now()
	_, err := tr.Send(context.Background(), Request{URL: s.URL, Port: 80, Timeout: 50 * time.Millisecond})
	if err == nil {
		t.Fatalf("want timeout error")
	}
	if time.Since(start) > 250*time.Millisecond {
		t.Fatalf("timeout not honoured, took %s", time.Since(start))
	}
}

func TestHTTPTransport_BadURL(t *testing.T) {
	tr := NewHTTPTransport()
	if _, err := tr.Send(context.Background(), Request{URL: "://nope", Port: 80, Timeout: time.Second}); err == nil {
		t.Fatalf("want error for malformed URL")
	}
}
