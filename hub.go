package rendezvous

import (
	"context"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/outofforest/logger"
)

// DefaultQueueSize is the default capacity of the outbound queue of a session.
const DefaultQueueSize = 256

// Config is the configuration of the hub.
type Config struct {
	// QueueSize is the capacity of the outbound queue of each session.
	QueueSize int
}

// Hub dispatches events of connected sessions to registry, router and relay.
type Hub struct {
	config   Config
	metrics  *Metrics
	registry *Registry
	rooms    *Rooms
	router   *Router
	relay    *Relay
	sessions *xsync.MapOf[uuid.UUID, *Session]
}

// NewHub creates hub. Metrics are registered in reg.
func NewHub(config Config, reg prometheus.Registerer) *Hub {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultQueueSize
	}

	metrics := NewMetrics(reg)
	registry := NewRegistry()
	rooms := NewRooms()

	return &Hub{
		config:   config,
		metrics:  metrics,
		registry: registry,
		rooms:    rooms,
		router:   NewRouter(registry, metrics),
		relay:    NewRelay(rooms, metrics),
		sessions: xsync.NewMapOf[uuid.UUID, *Session](),
	}
}

// Registry returns the identity registry.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Rooms returns the room table.
func (h *Hub) Rooms() *Rooms {
	return h.rooms
}

// Sessions returns the number of connected sessions.
func (h *Hub) Sessions() int {
	return h.sessions.Size()
}

// Connect creates new session for the connection.
func (h *Hub) Connect(ctx context.Context, transport string) *Session {
	s := newSession(transport, h.config.QueueSize)
	h.sessions.Store(s.ID(), s)
	h.metrics.sessions.WithLabelValues(transport).Inc()

	logger.Get(ctx).Info("Client connected", zap.Stringer("session", s.ID()), zap.String("transport", transport))

	return s
}

// Handle processes the event received from the session.
func (h *Hub) Handle(ctx context.Context, s *Session, event Event) {
	log := logger.Get(ctx).With(zap.Stringer("session", s.ID()))
	result := resultAccepted

	switch e := event.(type) {
	case RegisterEvent:
		displaced, ok := h.registry.Register(e.Identifier, s)
		if !ok {
			result = resultIgnored
			break
		}
		h.metrics.identities.Set(float64(h.registry.Len()))
		if displaced != nil {
			h.metrics.identityOverwrite.Inc()
			log = log.With(zap.Stringer("displaced", displaced.ID()))
		}
		log.Info("Registered", zap.String("identifier", short(Normalize(e.Identifier))))
	case RequestConnectionEvent:
		if !h.router.RouteRequest(logger.WithLogger(ctx, log), e.From, e.To) {
			result = resultDropped
		}
	case JoinEvent:
		if !h.relay.Join(s, e.Room) {
			result = resultIgnored
			break
		}
		log.Info("Joined room", zap.String("room", e.Room))
	case LeaveEvent:
		if !h.rooms.Leave(s, e.Room) {
			result = resultIgnored
			break
		}
		log.Info("Left room", zap.String("room", e.Room))
	case RelayEvent:
		if e.Channel != ChannelSignal && e.Channel != ChannelAuth {
			log.Debug("Unknown relay channel", zap.String("channel", string(e.Channel)))
			result = resultIgnored
			break
		}
		if h.relay.Relay(logger.WithLogger(ctx, log), s, e.Room, e.Channel, e.Payload) == 0 {
			result = resultIgnored
		}
	default:
		log.Error("Unknown event", zap.Any("event", event))
		return
	}

	h.metrics.events.WithLabelValues(event.eventType(), result).Inc()
}

// Disconnect releases the identity and rooms of the session and closes its outbox.
// Only the first call for the session has an effect.
func (h *Hub) Disconnect(ctx context.Context, s *Session) {
	if _, exists := h.sessions.LoadAndDelete(s.ID()); !exists {
		return
	}

	log := logger.Get(ctx).With(zap.Stringer("session", s.ID()))

	if h.registry.Unregister(s) {
		h.metrics.identities.Set(float64(h.registry.Len()))
		log.Info("Unregistered", zap.String("identifier", short(h.registry.Identifier(s))))
	}

	h.rooms.LeaveAll(s)
	s.close()

	h.metrics.sessions.WithLabelValues(s.Transport()).Dec()
	log.Info("Client disconnected")
}
