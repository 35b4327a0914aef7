package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/outofforest/logger"
	"github.com/outofforest/parallel"
	"github.com/outofforest/rendezvous"
)

// Config is the configuration of websocket connections.
type Config struct {
	// MaxMessageSize is the maximum size of the frame accepted from the peer.
	MaxMessageSize int64

	// WriteWait is the time allowed to write a frame to the peer.
	WriteWait time.Duration

	// PongWait is the time allowed to read the next pong from the peer.
	PongWait time.Duration

	// PingPeriod must be less than PongWait.
	PingPeriod time.Duration
}

// DefaultConfig returns default websocket configuration.
func DefaultConfig() Config {
	return Config{
		MaxMessageSize: 64 * 1024,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second,
	}
}

// Handler upgrades HTTP requests to websocket sessions of the hub.
type Handler struct {
	hub      *rendezvous.Hub
	config   Config
	upgrader websocket.Upgrader
}

// NewHandler creates websocket handler.
func NewHandler(hub *rendezvous.Hub, config Config) *Handler {
	return &Handler{
		hub:    hub,
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
			// Browsers connect from any origin, identity is not authenticated anyway.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.Get(ctx)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("Failed to upgrade connection", zap.Error(err))
		return
	}

	s := h.hub.Connect(ctx, rendezvous.TransportWebSocket)
	log = log.With(zap.Stringer("session", s.ID()), zap.String("remote", conn.RemoteAddr().String()))

	err = parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		spawn("reader", parallel.Fail, func(ctx context.Context) error {
			defer h.hub.Disconnect(ctx, s)

			return h.readPump(ctx, conn, s)
		})
		spawn("writer", parallel.Exit, func(ctx context.Context) error {
			defer conn.Close()

			return h.writePump(ctx, conn, s)
		})

		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Debug("WebSocket connection closed", zap.Error(err))
	}
}

// readPump pumps frames from the websocket connection to the hub.
func (h *Handler) readPump(ctx context.Context, conn *websocket.Conn, s *rendezvous.Session) error {
	log := logger.Get(ctx).With(zap.Stringer("session", s.ID()))

	conn.SetReadLimit(h.config.MaxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(h.config.PongWait)); err != nil {
		return errors.WithStack(err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.config.PongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure,
				websocket.CloseAbnormalClosure) {
				log.Warn("WebSocket read failed", zap.Error(err))
			}
			return errors.WithStack(err)
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Debug("Malformed frame ignored", zap.Error(err))
			continue
		}

		event, err := decodeEvent(frame)
		if err != nil {
			log.Debug("Invalid frame ignored", zap.String("type", frame.Type), zap.Error(err))
			continue
		}

		h.hub.Handle(ctx, s, event)
	}
}

// writePump pumps messages from the session outbox to the websocket connection.
func (h *Handler) writePump(ctx context.Context, conn *websocket.Conn, s *rendezvous.Session) error {
	ticker := time.NewTicker(h.config.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		case msg, ok := <-s.Outbox():
			if err := conn.SetWriteDeadline(time.Now().Add(h.config.WriteWait)); err != nil {
				return errors.WithStack(err)
			}
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return nil
			}

			frame, err := encodeMessage(msg)
			if err != nil {
				return err
			}
			if err := conn.WriteJSON(frame); err != nil {
				return errors.WithStack(err)
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(h.config.WriteWait)); err != nil {
				return errors.WithStack(err)
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return errors.WithStack(err)
			}
		}
	}
}
