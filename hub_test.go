package rendezvous

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/outofforest/qa"
)

func newTestHub(queueSize int) *Hub {
	return NewHub(Config{QueueSize: queueSize}, prometheus.NewRegistry())
}

func requireMessage(requireT *require.Assertions, s *Session) Message {
	select {
	case msg, ok := <-s.Outbox():
		requireT.True(ok)
		return msg
	default:
		requireT.Fail("message expected")
		return Message{}
	}
}

func requireNoMessage(requireT *require.Assertions, s *Session) {
	select {
	case msg, ok := <-s.Outbox():
		if ok {
			requireT.Failf("unexpected message", "%#v", msg)
		}
	default:
	}
}

func TestRoutingHit(t *testing.T) {
	requireT := require.New(t)
	ctx := qa.NewContext(t)

	h := newTestHub(10)
	alice := h.Connect(ctx, TransportWebSocket)
	bob := h.Connect(ctx, TransportNative)

	h.Handle(ctx, alice, RegisterEvent{Identifier: "alice"})
	h.Handle(ctx, bob, RequestConnectionEvent{To: "alice", From: " b o b "})

	requireT.Equal(Message{Type: MessageIncomingRequest, From: "bob"}, requireMessage(requireT, alice))
	requireNoMessage(requireT, alice)
	requireNoMessage(requireT, bob)
	requireT.InDelta(1, testutil.ToFloat64(h.metrics.requests.WithLabelValues(resultDelivered)), 0)
}

func TestRoutingMissIsSilent(t *testing.T) {
	requireT := require.New(t)
	ctx := qa.NewContext(t)

	h := newTestHub(10)
	bob := h.Connect(ctx, TransportWebSocket)
	other := h.Connect(ctx, TransportWebSocket)
	h.Handle(ctx, other, RegisterEvent{Identifier: "other"})

	requireT.False(h.router.RouteRequest(ctx, "from-id", "ghost-id"))
	h.Handle(ctx, bob, RequestConnectionEvent{To: "ghost-id", From: "from-id"})

	requireNoMessage(requireT, bob)
	requireNoMessage(requireT, other)
	requireT.InDelta(2, testutil.ToFloat64(h.metrics.requests.WithLabelValues(resultOffline)), 0)
}

func TestRoomIsolation(t *testing.T) {
	requireT := require.New(t)
	ctx := qa.NewContext(t)

	h := newTestHub(10)
	x := h.Connect(ctx, TransportWebSocket)
	y := h.Connect(ctx, TransportNative)
	z := h.Connect(ctx, TransportWebSocket)

	h.Handle(ctx, x, JoinEvent{Room: "r1"})
	h.Handle(ctx, y, JoinEvent{Room: "r1"})
	h.Handle(ctx, z, JoinEvent{Room: "r2"})

	h.Handle(ctx, x, RelayEvent{Channel: ChannelSignal, Room: "r1", Payload: []byte(`{"sdp":"offer"}`)})

	requireT.Equal(Message{
		Type:    MessageSignal,
		Room:    "r1",
		Payload: []byte(`{"sdp":"offer"}`),
	}, requireMessage(requireT, y))
	requireNoMessage(requireT, x)
	requireNoMessage(requireT, z)
	requireT.InDelta(1, testutil.ToFloat64(h.metrics.relayed.WithLabelValues(string(ChannelSignal))), 0)
}

func TestAuthChannelIsDistinct(t *testing.T) {
	requireT := require.New(t)
	ctx := qa.NewContext(t)

	h := newTestHub(10)
	x := h.Connect(ctx, TransportWebSocket)
	y := h.Connect(ctx, TransportWebSocket)

	h.Handle(ctx, x, JoinEvent{Room: "room"})
	h.Handle(ctx, y, JoinEvent{Room: "room"})

	h.Handle(ctx, y, RelayEvent{Channel: ChannelAuth, Room: "room", Payload: []byte(`"credential"`)})
	h.Handle(ctx, y, RelayEvent{Channel: ChannelSignal, Room: "room", Payload: []byte(`"candidate"`)})

	requireT.Equal(MessageAuth, requireMessage(requireT, x).Type)
	requireT.Equal(MessageSignal, requireMessage(requireT, x).Type)
	requireNoMessage(requireT, y)
}

func TestUnknownChannelIsIgnored(t *testing.T) {
	requireT := require.New(t)
	ctx := qa.NewContext(t)

	h := newTestHub(10)
	x := h.Connect(ctx, TransportWebSocket)
	y := h.Connect(ctx, TransportWebSocket)

	h.Handle(ctx, x, JoinEvent{Room: "room"})
	h.Handle(ctx, y, JoinEvent{Room: "room"})
	h.Handle(ctx, x, RelayEvent{Channel: "media", Room: "room", Payload: []byte("x")})

	requireNoMessage(requireT, y)
	requireT.InDelta(1, testutil.ToFloat64(h.metrics.events.WithLabelValues("relay", resultIgnored)), 0)
}

func TestRelayToEmptyRoomIsNoop(t *testing.T) {
	requireT := require.New(t)
	ctx := qa.NewContext(t)

	h := newTestHub(10)
	x := h.Connect(ctx, TransportWebSocket)

	requireT.Zero(h.relay.Relay(ctx, x, "nowhere", ChannelSignal, []byte("{}")))

	h.Handle(ctx, x, JoinEvent{Room: "alone"})
	requireT.Zero(h.relay.Relay(ctx, x, "alone", ChannelSignal, []byte("{}")))
	requireNoMessage(requireT, x)
}

func TestJoinIsIdempotent(t *testing.T) {
	requireT := require.New(t)
	ctx := qa.NewContext(t)

	h := newTestHub(10)
	x := h.Connect(ctx, TransportWebSocket)
	y := h.Connect(ctx, TransportWebSocket)

	h.Handle(ctx, x, JoinEvent{Room: "room"})
	h.Handle(ctx, x, JoinEvent{Room: "room"})
	h.Handle(ctx, y, JoinEvent{Room: "room"})
	requireT.Equal(2, h.Rooms().Members("room"))

	requireT.Equal(1, h.relay.Relay(ctx, y, "room", ChannelSignal, []byte("1")))
	requireMessage(requireT, x)
	requireNoMessage(requireT, x)
}

func TestLeave(t *testing.T) {
	requireT := require.New(t)
	ctx := qa.NewContext(t)

	h := newTestHub(10)
	x := h.Connect(ctx, TransportWebSocket)
	y := h.Connect(ctx, TransportWebSocket)

	h.Handle(ctx, x, JoinEvent{Room: "room"})
	h.Handle(ctx, y, JoinEvent{Room: "room"})
	h.Handle(ctx, x, LeaveEvent{Room: "room"})

	h.Handle(ctx, y, RelayEvent{Channel: ChannelSignal, Room: "room", Payload: []byte("1")})
	requireNoMessage(requireT, x)
	requireT.Equal(1, h.Rooms().Members("room"))
}

func TestSessionMayJoinManyRooms(t *testing.T) {
	requireT := require.New(t)
	ctx := qa.NewContext(t)

	h := newTestHub(10)
	x := h.Connect(ctx, TransportWebSocket)
	y := h.Connect(ctx, TransportWebSocket)
	z := h.Connect(ctx, TransportWebSocket)

	h.Handle(ctx, x, JoinEvent{Room: "r1"})
	h.Handle(ctx, x, JoinEvent{Room: "r2"})
	h.Handle(ctx, y, JoinEvent{Room: "r1"})
	h.Handle(ctx, z, JoinEvent{Room: "r2"})

	h.Handle(ctx, y, RelayEvent{Channel: ChannelSignal, Room: "r1", Payload: []byte("1")})
	h.Handle(ctx, z, RelayEvent{Channel: ChannelSignal, Room: "r2", Payload: []byte("2")})

	requireT.Equal("r1", requireMessage(requireT, x).Room)
	requireT.Equal("r2", requireMessage(requireT, x).Room)
	requireNoMessage(requireT, y)
	requireNoMessage(requireT, z)
}

func TestPostDisconnectUnreachability(t *testing.T) {
	requireT := require.New(t)
	ctx := qa.NewContext(t)

	h := newTestHub(10)
	s := h.Connect(ctx, TransportWebSocket)
	other := h.Connect(ctx, TransportWebSocket)

	h.Handle(ctx, s, RegisterEvent{Identifier: "key"})
	h.Handle(ctx, s, JoinEvent{Room: "room"})
	requireT.Equal(2, h.Sessions())

	h.Disconnect(ctx, s)

	_, exists := h.Registry().Lookup("key")
	requireT.False(exists)
	requireT.Zero(h.Rooms().Members("room"))
	requireT.Zero(h.Rooms().Len())
	requireT.Equal(1, h.Sessions())

	_, ok := <-s.Outbox()
	requireT.False(ok)

	h.Handle(ctx, other, RequestConnectionEvent{To: "key", From: "other"})
	requireNoMessage(requireT, other)
}

func TestDisconnectKeepsIdentifierTakenOver(t *testing.T) {
	requireT := require.New(t)
	ctx := qa.NewContext(t)

	h := newTestHub(10)
	s1 := h.Connect(ctx, TransportWebSocket)
	s2 := h.Connect(ctx, TransportNative)

	h.Handle(ctx, s1, RegisterEvent{Identifier: "key"})
	h.Handle(ctx, s2, RegisterEvent{Identifier: "key"})
	h.Disconnect(ctx, s1)

	found, exists := h.Registry().Lookup("key")
	requireT.True(exists)
	requireT.Same(s2, found)
	requireT.InDelta(1, testutil.ToFloat64(h.metrics.identityOverwrite), 0)
	requireT.InDelta(1, testutil.ToFloat64(h.metrics.identities), 0)
}

func TestDisconnectHappensOnce(t *testing.T) {
	requireT := require.New(t)
	ctx := qa.NewContext(t)

	h := newTestHub(10)
	s := h.Connect(ctx, TransportWebSocket)
	h.Handle(ctx, s, RegisterEvent{Identifier: "key"})

	h.Disconnect(ctx, s)

	s2 := h.Connect(ctx, TransportWebSocket)
	h.Handle(ctx, s2, RegisterEvent{Identifier: "key"})

	h.Disconnect(ctx, s)

	found, exists := h.Registry().Lookup("key")
	requireT.True(exists)
	requireT.Same(s2, found)
	requireT.InDelta(1, testutil.ToFloat64(h.metrics.sessions.WithLabelValues(TransportWebSocket)), 0)
}

func TestDisconnectWithoutRegistration(t *testing.T) {
	requireT := require.New(t)
	ctx := qa.NewContext(t)

	h := newTestHub(10)
	s := h.Connect(ctx, TransportWebSocket)
	h.Disconnect(ctx, s)

	requireT.Zero(h.Sessions())
	requireT.Zero(h.Registry().Len())
}

func TestInvalidRegistrationIsIgnored(t *testing.T) {
	requireT := require.New(t)
	ctx := qa.NewContext(t)

	h := newTestHub(10)
	s := h.Connect(ctx, TransportWebSocket)
	h.Handle(ctx, s, RegisterEvent{Identifier: "  "})

	requireT.Zero(h.Registry().Len())
	requireT.InDelta(1, testutil.ToFloat64(h.metrics.events.WithLabelValues("register", resultIgnored)), 0)
}

func TestFullQueueDropsMessage(t *testing.T) {
	requireT := require.New(t)
	ctx := qa.NewContext(t)

	h := newTestHub(1)
	alice := h.Connect(ctx, TransportWebSocket)
	bob := h.Connect(ctx, TransportWebSocket)
	h.Handle(ctx, alice, RegisterEvent{Identifier: "alice"})

	requireT.True(h.router.RouteRequest(ctx, "bob", "alice"))
	requireT.False(h.router.RouteRequest(ctx, "bob", "alice"))

	requireT.Equal("bob", requireMessage(requireT, alice).From)
	requireNoMessage(requireT, alice)
	requireNoMessage(requireT, bob)
	requireT.InDelta(1, testutil.ToFloat64(
		h.metrics.outboundDropped.WithLabelValues(MessageIncomingRequest.String())), 0)
}

func TestRequestToOrphanedIdentifierOfClosedSession(t *testing.T) {
	requireT := require.New(t)
	ctx := qa.NewContext(t)

	h := newTestHub(10)
	s := h.Connect(ctx, TransportWebSocket)
	h.Handle(ctx, s, RegisterEvent{Identifier: "old"})
	h.Handle(ctx, s, RegisterEvent{Identifier: "new"})
	h.Disconnect(ctx, s)

	found, exists := h.Registry().Lookup("old")
	requireT.True(exists)
	requireT.Same(s, found)

	requireT.False(h.router.RouteRequest(ctx, "bob", "old"))
	requireT.InDelta(1, testutil.ToFloat64(h.metrics.requests.WithLabelValues(resultOffline)), 0)
	requireT.InDelta(0, testutil.ToFloat64(h.metrics.requests.WithLabelValues(resultDropped)), 0)
	requireT.InDelta(0, testutil.ToFloat64(
		h.metrics.outboundDropped.WithLabelValues(MessageIncomingRequest.String())), 0)
}
