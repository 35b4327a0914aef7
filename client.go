package rendezvous

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/outofforest/logger"
	"github.com/outofforest/parallel"
	"github.com/outofforest/resonance"
	"github.com/outofforest/rendezvous/wire"
)

const clientQueueSize = 100

// Relayed is the payload relayed by another member of the room.
type Relayed struct {
	Channel Channel
	Room    string
	Payload []byte
}

type clientConns struct {
	recvCh chan<- any

	mu         sync.Mutex
	conns      map[<-chan any]chan<- any
	identifier string
	rooms      map[string]struct{}
}

func newClientConns(recvCh chan<- any) *clientConns {
	return &clientConns{
		recvCh: recvCh,
		conns:  map[<-chan any]chan<- any{},
		rooms:  map[string]struct{}{},
	}
}

// Add creates the send queue of the new connection. Registration and room memberships
// are replayed so the peer is reachable again after reconnecting.
func (c *clientConns) Add() <-chan any {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan any, clientQueueSize+len(c.rooms)+1)

	c.conns[ch] = ch

	if c.identifier != "" {
		ch <- &wire.Register{Identifier: c.identifier}
	}
	for room := range c.rooms {
		ch <- &wire.Join{Room: room}
	}

	return ch
}

func (c *clientConns) Remove(ch <-chan any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ch2, exists := c.conns[ch]; exists {
		delete(c.conns, ch)
		close(ch2)
	}
}

func (c *clientConns) Register(identifier string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.identifier = identifier
	c.broadcast(&wire.Register{Identifier: identifier})
}

func (c *clientConns) RequestConnection(to string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.broadcast(&wire.RequestConnection{To: to, From: c.identifier})
}

func (c *clientConns) Join(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rooms[room] = struct{}{}
	c.broadcast(&wire.Join{Room: room})
}

func (c *clientConns) Leave(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.rooms, room)
	c.broadcast(&wire.Leave{Room: room})
}

func (c *clientConns) Send(msg any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.broadcast(msg)
}

func (c *clientConns) Deliver(ctx context.Context, msg any) error {
	select {
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	case c.recvCh <- msg:
	}

	return nil
}

func (c *clientConns) broadcast(msg any) {
	for _, ch := range c.conns {
		ch <- msg
	}
}

// ClientConfig is the config of client.
type ClientConfig struct {
	Server         string
	MaxMessageSize uint64
}

// Client is the native peer of the rendezvous server.
// Messages sent while the client is disconnected are dropped, except registration and room memberships
// which are restored on every connection.
type Client struct {
	config ClientConfig
	conns  *clientConns
}

// NewClient creates new client. Received messages are *wire.IncomingRequest and Relayed.
func NewClient(config ClientConfig) (*Client, <-chan any, error) {
	if config.Server == "" {
		return nil, nil, errors.New("no server specified")
	}

	recvCh := make(chan any, clientQueueSize)
	return &Client{
		config: config,
		conns:  newClientConns(recvCh),
	}, recvCh, nil
}

// Run runs client.
func (client *Client) Run(ctx context.Context) error {
	defer close(client.conns.recvCh)

	log := logger.Get(ctx)
	connConfig := resonance.Config{
		MaxMessageSize: client.config.MaxMessageSize,
	}

	for {
		err := resonance.RunClient(ctx, client.config.Server, connConfig,
			func(ctx context.Context, c *resonance.Connection) error {
				return client.runConn(ctx, c)
			})

		if ctx.Err() != nil {
			return errors.WithStack(ctx.Err())
		}

		log.Error("Rendezvous connection failed", zap.String("server", client.config.Server), zap.Error(err))
		select {
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		case <-time.After(time.Second):
		}
	}
}

// Register registers the peer identifier on the server.
func (client *Client) Register(identifier string) {
	client.conns.Register(identifier)
}

// RequestConnection asks the peer registered under the identifier to connect.
func (client *Client) RequestConnection(to string) {
	client.conns.RequestConnection(to)
}

// Join joins the room.
func (client *Client) Join(room string) {
	client.conns.Join(room)
}

// Leave leaves the room.
func (client *Client) Leave(room string) {
	client.conns.Leave(room)
}

// Signal relays signaling payload to the other members of the room.
func (client *Client) Signal(room string, payload []byte) {
	client.conns.Send(&wire.Signal{Room: room, Payload: payload})
}

// Auth relays authentication payload to the other members of the room.
func (client *Client) Auth(room string, payload []byte) {
	client.conns.Send(&wire.Auth{Room: room, Payload: payload})
}

func (client *Client) runConn(ctx context.Context, c *resonance.Connection) error {
	m := wire.NewMarshaller()
	sendCh := client.conns.Add()

	return parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		spawn("receiver", parallel.Fail, func(ctx context.Context) error {
			defer client.conns.Remove(sendCh)

			for {
				msg, err := c.ReceiveProton(m)
				if err != nil {
					return err
				}

				var toDeliver any
				switch msg := msg.(type) {
				case *wire.IncomingRequest:
					toDeliver = msg
				case *wire.Signal:
					toDeliver = Relayed{Channel: ChannelSignal, Room: msg.Room, Payload: msg.Payload}
				case *wire.Auth:
					toDeliver = Relayed{Channel: ChannelAuth, Room: msg.Room, Payload: msg.Payload}
				default:
					return errors.Errorf("unexpected message %T", msg)
				}

				if err := client.conns.Deliver(ctx, toDeliver); err != nil {
					return err
				}
			}
		})
		spawn("sender", parallel.Fail, func(ctx context.Context) error {
			defer func() {
				for range sendCh {
				}
			}()
			defer c.Close()

			log := logger.Get(ctx)
			for toSend := range sendCh {
				size, err := m.Size(toSend)
				if err != nil {
					return err
				}
				if size > client.config.MaxMessageSize {
					log.Error("Message exceeds maximum size, dropped",
						zap.String("type", fmt.Sprintf("%T", toSend)), zap.Uint64("size", size))
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
