package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/helpdesk/internal/agent"
	"github.com/ashureev/helpdesk/internal/game"
	"github.com/ashureev/helpdesk/internal/identity"
	"github.com/coder/websocket"
)

const (
	defaultQueueSize = 8
	readLimit        = 16 << 10
	writeTimeout     = 10 * time.Second
)

// Handler upgrades requests to game websockets.
type Handler struct {
	svc           *game.Service
	conns         *ConnectionManager
	limiter       *agent.RateLimiter
	allowedOrigin string
	isDev         bool
	queueSize     int
	logger        *slog.Logger
}

// NewHandler creates a websocket handler. limiter may be nil.
func NewHandler(svc *game.Service, conns *ConnectionManager, limiter *agent.RateLimiter, allowedOrigin string, isDev bool, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:           svc,
		conns:         conns,
		limiter:       limiter,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
		queueSize:     defaultQueueSize,
		logger:        logger,
	}
}

// envelope is the frame shape in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type job func(ctx context.Context) (game.Event, bool)

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	visitor := identity.FromContext(r.Context())
	player := game.Player{UserID: visitor.DeviceID, TabID: visitor.TabID}
	logger := h.logger.With("user_id", player.UserID, "tab_id", player.TabID, "visitor", visitor.Label())
	logger.Info("WebSocket connection request", "ip", identity.IPFromRequest(r))

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}
	if h.limiter != nil && !h.limiter.Allow(player.UserID) {
		logger.Warn("WebSocket connection rate limited")
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		logger.Error("Failed to accept WebSocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			logger.Debug("Failed to close websocket", "error", closeErr)
		}
	}()
	ws.SetReadLimit(readLimit)

	h.conns.Register(player.UserID, player.TabID, ws)
	defer h.conns.Unregister(player.UserID, player.TabID, ws)

	// Game work outlives the socket so a turn in flight still reaches the store.
	jobs := make(chan job, h.queueSize)
	go h.worker(context.WithoutCancel(r.Context()), ws, jobs, logger)
	defer close(jobs)

	jobs <- func(ctx context.Context) (game.Event, bool) {
		return h.svc.Connect(ctx, player), true
	}

	h.readLoop(r.Context(), ws, player, jobs, logger)
	logger.Info("Game connection ended")
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	h.logger.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *Handler) readLoop(ctx context.Context, ws *websocket.Conn, player game.Player, jobs chan<- job, logger *slog.Logger) {
	for {
		typ, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
				logger.Debug("WebSocket closed by client")
			} else {
				logger.Warn("WebSocket read error", "error", err)
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var env envelope
		if err := json.Unmarshal(message, &env); err != nil {
			logger.Warn("Dropping malformed frame", "error", err)
			continue
		}

		var next job
		switch env.Event {
		case game.EventPing:
			h.write(ws, game.PongEvent(), logger)
			continue
		case game.EventClientHasGame:
			next = h.clientHasGameJob(player, env.Data, logger)
		case game.EventPlayerMessage:
			next = h.playerMessageJob(player, env.Data, logger)
		case game.EventResetGame:
			next = func(ctx context.Context) (game.Event, bool) {
				return h.svc.Reset(ctx, player), true
			}
		default:
			logger.Warn("Unknown event", "event", env.Event)
			continue
		}

		select {
		case jobs <- next:
		default:
			logger.Warn("Game queue full, dropping event", "event", env.Event)
		}
	}
}

func (h *Handler) clientHasGameJob(player game.Player, data json.RawMessage, logger *slog.Logger) job {
	var msg game.ClientHasGame
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Warn("Malformed client_has_game payload", "error", err)
		return func(context.Context) (game.Event, bool) {
			return game.LostSessionEvent(), true
		}
	}
	return func(ctx context.Context) (game.Event, bool) {
		return h.svc.ClientHasGame(ctx, player, msg), true
	}
}

func (h *Handler) playerMessageJob(player game.Player, data json.RawMessage, logger *slog.Logger) job {
	var msg game.PlayerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Warn("Malformed player_message payload", "error", err)
		return func(ctx context.Context) (game.Event, bool) {
			return h.svc.Connect(ctx, player), true
		}
	}
	return func(ctx context.Context) (game.Event, bool) {
		ev, err := h.svc.HandlePlayerMessage(ctx, player, msg.Message)
		if err != nil {
			// The client is waiting on a reply; hand it the current state instead.
			logger.Debug("Player message not played", "error", err)
			return h.svc.Connect(ctx, player), true
		}
		return ev, true
	}
}

func (h *Handler) worker(ctx context.Context, ws *websocket.Conn, jobs <-chan job, logger *slog.Logger) {
	for j := range jobs {
		if ev, ok := j(ctx); ok {
			h.write(ws, ev, logger)
		}
	}
}

func (h *Handler) write(ws *websocket.Conn, ev game.Event, logger *slog.Logger) {
	data, err := json.Marshal(ev)
	if err != nil {
		logger.Error("Failed to encode event", "event", ev.Name, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
		logger.Debug("Dropping undeliverable event", "event", ev.Name, "error", err)
	}
}
