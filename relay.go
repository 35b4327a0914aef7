package rendezvous

import (
	"context"

	"go.uber.org/zap"

	"github.com/outofforest/logger"
)

// Relay broadcasts opaque payloads between the members of a room.
type Relay struct {
	rooms   *Rooms
	metrics *Metrics
}

// NewRelay creates relay operating on the rooms.
func NewRelay(rooms *Rooms, metrics *Metrics) *Relay {
	return &Relay{
		rooms:   rooms,
		metrics: metrics,
	}
}

// Join adds session to the room.
func (r *Relay) Join(s *Session, room string) bool {
	return r.rooms.Join(s, room)
}

// Relay delivers payload to every member of the room except the sender and returns the number of recipients.
// Payload is never inspected.
func (r *Relay) Relay(ctx context.Context, sender *Session, room string, channel Channel, payload []byte) int {
	delivered, dropped := r.rooms.Broadcast(sender, room, Message{
		Type:    channel.messageType(),
		Room:    room,
		Payload: payload,
	})

	r.metrics.relayed.WithLabelValues(string(channel)).Add(float64(delivered))
	if dropped > 0 {
		r.metrics.outboundDropped.WithLabelValues(channel.messageType().String()).Add(float64(dropped))
		logger.Get(ctx).Warn("Relayed message dropped, outbound queue is full",
			zap.String("room", room), zap.String("channel", string(channel)), zap.Int("sessions", dropped))
	}

	return delivered
}
