package rendezvous

import (
	"sync"

	"github.com/google/uuid"
)

// Transports.
const (
	TransportWebSocket = "websocket"
	TransportNative    = "native"
)

// MessageType defines the type of message delivered to the session.
type MessageType uint8

// Message types.
const (
	MessageIncomingRequest MessageType = iota + 1
	MessageSignal
	MessageAuth
)

func (t MessageType) String() string {
	switch t {
	case MessageIncomingRequest:
		return "incoming-request"
	case MessageSignal:
		return "signal"
	case MessageAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// Message is delivered by the hub to the session's transport.
type Message struct {
	Type MessageType

	// From is set on MessageIncomingRequest.
	From string

	// Room and Payload are set on MessageSignal and MessageAuth.
	Room    string
	Payload []byte
}

// Session is a single connection of a peer, valid until the connection terminates.
type Session struct {
	id        uuid.UUID
	transport string

	// identifier is guarded by Registry.mu.
	identifier string

	// rooms is guarded by Rooms.mu.
	rooms map[string]struct{}

	mu     sync.Mutex
	closed bool
	sendCh chan Message
}

func newSession(transport string, queueSize int) *Session {
	return &Session{
		id:        uuid.New(),
		transport: transport,
		rooms:     map[string]struct{}{},
		sendCh:    make(chan Message, queueSize),
	}
}

// ID returns the handle of the session.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Transport returns the name of the transport the session is connected over.
func (s *Session) Transport() string {
	return s.transport
}

// Outbox returns the channel the transport writes to the connection.
// It is closed once the session is disconnected.
func (s *Session) Outbox() <-chan Message {
	return s.sendCh
}

type deliveryResult uint8

// Results of delivery.
const (
	deliveryOK deliveryResult = iota
	deliveryQueueFull
	deliveryClosed
)

// deliver queues the message without blocking.
func (s *Session) deliver(msg Message) deliveryResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return deliveryClosed
	}

	select {
	case s.sendCh <- msg:
		return deliveryOK
	default:
		return deliveryQueueFull
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.sendCh)
}
