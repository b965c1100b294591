package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"whatevereat/internal/bot"
	"whatevereat/internal/config"
	"whatevereat/internal/line"
	"whatevereat/internal/observability"
	"whatevereat/internal/session"
)

const (
	maxWebhookBody     = 1 << 20
	consoleReadTimeout = 120 * time.Second
)

// Replier sends reply messages back through the LINE channel.
type Replier interface {
	Reply(ctx context.Context, replyToken string, texts ...string) error
}

type Server struct {
	cfg        config.Config
	dispatcher *bot.Dispatcher
	sessions   session.Store
	replier    Replier
	metrics    *observability.Metrics
	logger     *zap.Logger
	upgrader   websocket.Upgrader
}

// New builds the HTTP surface. replier may be nil when the LINE channel
// is not configured; the webhook then rejects deliveries and the console
// remains the only channel.
func New(cfg config.Config, dispatcher *bot.Dispatcher, sessions session.Store, replier Replier, metrics *observability.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		sessions:   sessions,
		replier:    replier,
		metrics:    metrics,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browser clients may drive the console
				// unless any-origin is explicitly enabled.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/config", s.handleConfig)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/callback", s.handleCallback)
	r.Get("/console/ws", s.handleConsoleWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":              "running",
		"line_enabled":        s.cfg.LineEnabled(),
		"resolver_mode":       s.cfg.ResolverMode,
		"session_ttl_s":       int(s.cfg.SessionTTL.Seconds()),
		"history_window":      s.cfg.HistoryWindow,
		"search_radius_m":     s.cfg.SearchRadius,
		"database_configured": s.cfg.DatabaseURL != "",
	})
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.LineEnabled() || s.replier == nil {
		respondError(w, http.StatusServiceUnavailable, "channel_not_configured", "LINE channel credentials are not set")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "read_error", err.Error())
		return
	}

	signature := r.Header.Get("X-Line-Signature")
	if err := line.ValidateSignature(s.cfg.LineChannelSecret, body, signature); err != nil {
		s.logger.Warn("webhook signature rejected", zap.Error(err))
		respondError(w, http.StatusBadRequest, "invalid_signature", "signature verification failed")
		return
	}

	events, err := line.ParseWebhook(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	for _, ev := range events {
		if s.metrics != nil {
			s.metrics.WebhookEvents.WithLabelValues(string(ev.Type)).Inc()
		}
		reply := s.dispatcher.Handle(r.Context(), ev)
		if ev.ReplyToken == "" || reply.Text == "" {
			continue
		}
		if err := s.replier.Reply(r.Context(), ev.ReplyToken, reply.Text); err != nil {
			if s.metrics != nil {
				s.metrics.ReplyErrors.WithLabelValues("line").Inc()
			}
			s.logger.Error("line reply failed", zap.String("user", ev.UserID), zap.Error(err))
		}
	}
	s.updateSessionGauge(r.Context())

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleConsoleWS runs the dev console: one websocket connection per
// simulated user, speaking the console JSON envelope. It exists so the
// full command flow can be driven without LINE credentials.
func (s *Server) handleConsoleWS(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		userID = "console-" + uuid.NewString()
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.logger.Info("console connected", zap.String("user", userID))
	if s.metrics != nil {
		s.metrics.WebhookEvents.WithLabelValues("console_connected").Inc()
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(consoleReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(consoleReadTimeout))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(consoleReadTimeout))
		if msgType != websocket.TextMessage {
			continue
		}

		ev, err := parseConsoleMessage(data, userID)
		if err != nil {
			s.writeConsole(conn, consoleError{
				Type:   typeConsoleError,
				Code:   "invalid_message",
				Detail: err.Error(),
			})
			continue
		}

		reply := s.dispatcher.Handle(ctx, ev)
		s.updateSessionGauge(ctx)
		if reply.Text == "" {
			continue
		}
		if !s.writeConsole(conn, consoleReply{Type: typeConsoleReply, Text: reply.Text}) {
			break
		}
	}

	s.logger.Info("console disconnected", zap.String("user", userID))
}

func (s *Server) writeConsole(conn *websocket.Conn, payload any) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(payload); err != nil {
		if s.metrics != nil {
			s.metrics.ReplyErrors.WithLabelValues("console").Inc()
		}
		return false
	}
	return true
}

func (s *Server) updateSessionGauge(ctx context.Context) {
	if s.metrics == nil || s.sessions == nil {
		return
	}
	if count, err := s.sessions.ActiveCount(ctx); err == nil {
		s.metrics.ActiveSessions.Set(float64(count))
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorBody struct {
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

func respondError(w http.ResponseWriter, status int, code, detail string) {
	respondJSON(w, status, errorBody{Code: code, Detail: detail})
}

