package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthz(t *testing.T) {
	h, _ := setupRouter(t, "https://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}
}

func TestMillisParam(t *testing.T) {
	cases := []struct {
		query   string
		want    time.Duration
		wantErr bool
	}{
		{"", time.Second, false},
		{"interval_ms=250", 250 * time.Millisecond, false},
		{"interval_ms=-1", -time.Millisecond, false},
		{"interval_ms=1.5", 0, true},
	}
	for _, c := range cases {
		r := httptest.NewRequest(http.MethodGet, "/?"+c.query, nil)
		d := time.Second
		err := millisParam(r, "interval_ms", &d)
		if (err != nil) != c.wantErr {
			t.Fatalf("%q: err=%v wantErr=%v", c.query, err, c.wantErr)
		}
		if !c.wantErr && d != c.want {
			t.Fatalf("%q: got %v want %v", c.query, d, c.want)
		}
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example"})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if !check(r) {
		t.Fatal("missing Origin should pass")
	}
	r.Header.Set("Origin", "https://app.example")
	if !check(r) {
		t.Fatal("listed origin should pass")
	}
	r.Header.Set("Origin", "https://evil.example")
	if check(r) {
		t.Fatal("unlisted origin should be rejected")
	}
	if !originChecker(nil)(r) {
		t.Fatal("no list means any origin")
	}
}
