package rendezvous

import (
	"context"
	"net"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/outofforest/logger"
	"github.com/outofforest/parallel"
	"github.com/outofforest/resonance"
	"github.com/outofforest/rendezvous/wire"
)

// ServerConfig defines configuration of the native server.
type ServerConfig struct {
	MaxMessageSize uint64
}

// RunServer serves native peers connecting to the listener.
func RunServer(ctx context.Context, ls net.Listener, hub *Hub, config ServerConfig) error {
	connConfig := resonance.Config{
		MaxMessageSize: config.MaxMessageSize,
	}

	return resonance.RunServer(ctx, ls, connConfig,
		func(ctx context.Context, c *resonance.Connection) error {
			return runServerConn(ctx, c, hub, config)
		})
}

func runServerConn(ctx context.Context, c *resonance.Connection, hub *Hub, config ServerConfig) error {
	m := wire.NewMarshaller()
	s := hub.Connect(ctx, TransportNative)

	return parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		spawn("receiver", parallel.Fail, func(ctx context.Context) error {
			defer hub.Disconnect(ctx, s)

			for {
				msg, err := c.ReceiveProton(m)
				if err != nil {
					return err
				}

				event, err := toEvent(msg)
				if err != nil {
					return err
				}

				hub.Handle(ctx, s, event)
			}
		})
		spawn("sender", parallel.Fail, func(ctx context.Context) error {
			defer func() {
				for range s.Outbox() {
				}
			}()
			defer c.Close()

			log := logger.Get(ctx).With(zap.Stringer("session", s.ID()))
			for msg := range s.Outbox() {
				toSend, err := toWire(msg)
				if err != nil {
					return err
				}

				size, err := m.Size(toSend)
				if err != nil {
					return err
				}
				if size > config.MaxMessageSize {
					hub.metrics.outboundDropped.WithLabelValues(msg.Type.String()).Inc()
					log.Warn("Message exceeds maximum size, dropped",
						zap.Stringer("type", msg.Type), zap.Uint64("size", size))
					continue
				}

				if err := c.SendProton(toSend, m); err != nil {
					return err
				}
			}

			return nil
		})

		return nil
	})
}

func toEvent(msg any) (Event, error) {
	switch msg := msg.(type) {
	case *wire.Register:
		return RegisterEvent{Identifier: msg.Identifier}, nil
	case *wire.RequestConnection:
		return RequestConnectionEvent{To: msg.To, From: msg.From}, nil
	case *wire.Join:
		return JoinEvent{Room: msg.Room}, nil
	case *wire.Leave:
		return LeaveEvent{Room: msg.Room}, nil
	case *wire.Signal:
		return RelayEvent{Channel: ChannelSignal, Room: msg.Room, Payload: msg.Payload}, nil
	case *wire.Auth:
		return RelayEvent{Channel: ChannelAuth, Room: msg.Room, Payload: msg.Payload}, nil
	default:
		return nil, errors.Errorf("unexpected message %T", msg)
	}
}

func toWire(msg Message) (any, error) {
	switch msg.Type {
	case MessageIncomingRequest:
		return &wire.IncomingRequest{From: msg.From}, nil
	case MessageSignal:
		return &wire.Signal{Room: msg.Room, Payload: msg.Payload}, nil
	case MessageAuth:
		return &wire.Auth{Room: msg.Room, Payload: msg.Payload}, nil
	default:
		return nil, errors.Errorf("unexpected message type %d", msg.Type)
	}
}
