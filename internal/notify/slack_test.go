package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSlack_OK(t *testing.T) {
	var got slackPayload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(200)
	}))
	defer ts.Close()

	s := NewSlack(ts.URL)
	if s == nil {
		t.Fatal("expected slack client")
	}
	if err := s.Send(context.Background(), "Internet DOWN", "Host: example"); err != nil {
		t.Fatalf("send err: %v", err)
	}
	if !strings.HasPrefix(got.Text, "*Internet DOWN*\n") {
		t.Fatalf("payload not as expected: %q", got.Text)
	}
	if got.Username != "reachability" {
		t.Fatalf("username %q", got.Username)
	}
}

func TestSlack_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer ts.Close()

	s := NewSlack(ts.URL)
	if err := s.Send(context.Background(), "X", "Y"); err == nil {
		t.Fatalf("expected error on non-2xx")
	}
}

func TestSlack_DisabledWithoutWebhook(t *testing.T) {
	if NewSlack("") != nil {
		t.Fatalf("empty webhook should disable slack")
	}
	var s *Slack
	if err := s.Send(context.Background(), "X", "Y"); err == nil {
		t.Fatalf("nil slack must report disabled")
	}
}
