package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hamed0406/reachability/internal/domain"
	apimw "github.com/hamed0406/reachability/internal/httpapi/middleware"
	"github.com/hamed0406/reachability/internal/probe"
	"github.com/hamed0406/reachability/internal/repo"
)

const writeWait = 5 * time.Second

type Server struct {
	Logger   *zap.Logger
	Strategy probe.Strategy
	Kind     probe.Kind
	Probe    probe.Config
	Store    repo.StateStore
	Upgrader websocket.Upgrader
}

func NewServer(l *zap.Logger, strategy probe.Strategy, kind probe.Kind, cfg probe.Config, store repo.StateStore) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Strategy: strategy, Kind: kind, Probe: cfg, Store: store}
}

// Router wires the API. Rate limits of zero disable limiting; no origins
// means any origin is accepted, for both CORS and websocket upgrades.
func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, publicRPM, publicBurst, adminRPM, adminBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.accessLog)

	if len(allowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
			MaxAge:         300,
		}))
	}
	if s.Upgrader.CheckOrigin == nil {
		s.Upgrader.CheckOrigin = originChecker(allowedOrigins)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(publicRPM, publicBurst))
		r.Use(apimw.RequireAny(keys))
		r.Get("/api/connectivity", s.handleCurrent)
		r.Get("/api/connectivity/stream", s.handleStream)
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(adminRPM, adminBurst))
		r.Use(apimw.RequireAdmin(keys))
		r.Post("/api/connectivity/check", s.handleCheck)
	})

	return r
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin) || slices.Contains(allowed, "*")
	}
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Logger.Debug("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Store.Current(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "state unavailable")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleStream opens a private observation for one websocket client. Query
// overrides are validated before the upgrade so a bad value is a plain 400.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	cfg := s.Probe
	if err := millisParam(r, "interval_ms", &cfg.Interval); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := millisParam(r, "initial_delay_ms", &cfg.InitialDelay); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := probe.ValidateObserve(cfg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := s.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied
		s.Logger.Debug("ws_upgrade_failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// a hijacked connection does not cancel r.Context() on disconnect
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	updates, stop, err := s.Strategy.Observe(ctx, cfg)
	if err != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error())
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		return
	}
	defer stop()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	s.Logger.Info("stream_opened", zap.String("remote", r.RemoteAddr), zap.Duration("interval", cfg.Interval))
	for connected := range updates {
		t := domain.Transition{
			Strategy:  string(s.Kind),
			Host:      cfg.Host,
			Connected: connected,
			At:        time.Now().UTC(),
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(t); err != nil {
			s.Logger.Debug("stream_write_error", zap.Error(err))
			break
		}
	}
	s.Logger.Info("stream_closed", zap.String("remote", r.RemoteAddr))
}

type checkPayload struct {
	Host           *string `json:"host"`
	Port           *int    `json:"port"`
	TimeoutMS      *int64  `json:"timeout_ms"`
	ExpectedStatus *int    `json:"expected_status"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var p checkPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}

	cfg := s.Probe
	if p.Host != nil {
		cfg.Host = *p.Host
	}
	if p.Port != nil {
		cfg.Port = *p.Port
	}
	if p.TimeoutMS != nil {
		cfg.Timeout = time.Duration(*p.TimeoutMS) * time.Millisecond
	}
	if p.ExpectedStatus != nil {
		cfg.ExpectedStatus = *p.ExpectedStatus
	}

	// Check reports synchronously, so the closure needs no locking.
	var reason string
	cfg.ErrorHandler = probe.ErrorHandlerFunc(func(err error, message string) {
		reason = fmt.Sprintf("%s: %v", message, err)
		s.Logger.Warn("check_failed", zap.String("host", cfg.Host), zap.Error(err))
	})

	start := time.Now()
	connected, err := s.Strategy.Check(r.Context(), cfg)
	if err != nil {
		if errors.Is(err, probe.ErrInvalidConfig) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "check failed")
		return
	}
	latency := float64(time.Since(start).Microseconds()) / 1000.0

	if !connected {
		if reason == "" {
			reason = fmt.Sprintf("unexpected response, want status %d", cfg.ExpectedStatus)
		}
		dns := probe.CheckDNS(r.Context(), cfg.Host)
		reason = fmt.Sprintf("%s dns=%s", reason, dns.Class)
		s.Logger.Info("dns_check",
			zap.String("domain", dns.Domain),
			zap.String("class", string(dns.Class)),
			zap.Bool("has_a_or_aaaa", dns.HasAOrAAAA),
			zap.Strings("nameservers", dns.Nameservers),
			zap.String("resolver_error", dns.ResolverError),
		)
	}

	writeJSON(w, http.StatusOK, domain.CheckResult{
		Host:      cfg.Host,
		Connected: connected,
		Reason:    reason,
		LatencyMS: latency,
		CheckedAt: time.Now().UTC(),
	})
}

// millisParam overwrites *dst when the query carries key. Range checks are
// left to probe validation.
func millisParam(r *http.Request, key string, dst *time.Duration) error {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("%s must be an integer", key)
	}
	*dst = time.Duration(ms) * time.Millisecond
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
