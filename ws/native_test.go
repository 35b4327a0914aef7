package ws_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/outofforest/parallel"
	"github.com/outofforest/qa"
	"github.com/outofforest/rendezvous"
	"github.com/outofforest/rendezvous/wire"
	"github.com/outofforest/rendezvous/ws"
)

const maxMsgSize = 1024

func receiveRelayed(
	ctx context.Context,
	requireT *require.Assertions,
	recvCh <-chan any,
) rendezvous.Relayed {
	select {
	case <-ctx.Done():
		requireT.Fail("context canceled")
	case <-time.After(5 * time.Second):
		requireT.Fail("timeout")
	case msg := <-recvCh:
		relayed, ok := msg.(rendezvous.Relayed)
		requireT.True(ok, "%T", msg)
		return relayed
	}
	return rendezvous.Relayed{}
}

func TestRelayBetweenBrowserAndNativePeers(t *testing.T) {
	requireT := require.New(t)

	ctx := qa.NewContext(t)
	group := qa.NewGroup(ctx, t)

	defer func() {
		group.Exit(nil)
		requireT.NoError(group.Wait())
	}()

	hub := rendezvous.NewHub(rendezvous.Config{}, prometheus.NewRegistry())

	ls, err := net.Listen("tcp", "localhost:0")
	requireT.NoError(err)

	native, nativeCh, err := rendezvous.NewClient(rendezvous.ClientConfig{
		Server:         ls.Addr().String(),
		MaxMessageSize: maxMsgSize,
	})
	requireT.NoError(err)

	group.Spawn("server", parallel.Fail, func(ctx context.Context) error {
		return rendezvous.RunServer(ctx, ls, hub, rendezvous.ServerConfig{
			MaxMessageSize: maxMsgSize,
		})
	})
	group.Spawn("native", parallel.Fail, native.Run)

	browser := dial(t, serve(t, hub))

	native.Join("room")
	send(requireT, browser, `{"type":"join","payload":"room"}`)
	requireT.Eventually(func() bool {
		return hub.Rooms().Members("room") == 2
	}, 5*time.Second, 10*time.Millisecond)

	// Browser to native.
	send(requireT, browser, `{"type":"signal","payload":{"room":"room","payload":{"sdp":"offer"}}}`)
	requireT.Equal(rendezvous.Relayed{
		Channel: rendezvous.ChannelSignal,
		Room:    "room",
		Payload: []byte(`{"sdp":"offer"}`),
	}, receiveRelayed(ctx, requireT, nativeCh))

	send(requireT, browser, `{"type":"auth","payload":{"room":"room","payload":"credential"}}`)
	requireT.Equal(rendezvous.Relayed{
		Channel: rendezvous.ChannelAuth,
		Room:    "room",
		Payload: []byte(`"credential"`),
	}, receiveRelayed(ctx, requireT, nativeCh))

	send(requireT, browser, `{"type":"signal","payload":{"room":"room"}}`)
	requireT.Equal(rendezvous.Relayed{
		Channel: rendezvous.ChannelSignal,
		Room:    "room",
	}, receiveRelayed(ctx, requireT, nativeCh))

	requireT.Equal(2, hub.Sessions())
	requireT.Equal(2, hub.Rooms().Members("room"))

	// Native to browser.
	native.Signal("room", []byte("not json"))
	frame := receive(requireT, browser)
	requireT.Equal(ws.TypeSignal, frame.Type)
	requireT.Equal(`"not json"`, string(frame.Payload))

	native.Auth("room", []byte(`{"token":"abc"}`))
	frame = receive(requireT, browser)
	requireT.Equal(ws.TypeAuth, frame.Type)
	requireT.Equal(`{"token":"abc"}`, string(frame.Payload))

	native.Signal("room", nil)
	frame = receive(requireT, browser)
	requireT.Equal(ws.TypeSignal, frame.Type)
	requireT.Empty(frame.Payload)

	// Both peers are still connected after the empty payloads.
	send(requireT, browser, `{"type":"signal","payload":{"room":"room","payload":[1,2,3]}}`)
	requireT.Equal(rendezvous.Relayed{
		Channel: rendezvous.ChannelSignal,
		Room:    "room",
		Payload: []byte(`[1,2,3]`),
	}, receiveRelayed(ctx, requireT, nativeCh))
	requireT.Equal(2, hub.Sessions())
	requireT.Empty(nativeCh)
}

func TestConnectionRequestBetweenBrowserAndNativePeers(t *testing.T) {
	requireT := require.New(t)

	ctx := qa.NewContext(t)
	group := qa.NewGroup(ctx, t)

	defer func() {
		group.Exit(nil)
		requireT.NoError(group.Wait())
	}()

	hub := rendezvous.NewHub(rendezvous.Config{}, prometheus.NewRegistry())

	ls, err := net.Listen("tcp", "localhost:0")
	requireT.NoError(err)

	native, nativeCh, err := rendezvous.NewClient(rendezvous.ClientConfig{
		Server:         ls.Addr().String(),
		MaxMessageSize: maxMsgSize,
	})
	requireT.NoError(err)

	group.Spawn("server", parallel.Fail, func(ctx context.Context) error {
		return rendezvous.RunServer(ctx, ls, hub, rendezvous.ServerConfig{
			MaxMessageSize: maxMsgSize,
		})
	})
	group.Spawn("native", parallel.Fail, native.Run)

	browser := dial(t, serve(t, hub))

	native.Register("native")
	send(requireT, browser, `{"type":"register","payload":"browser"}`)
	requireT.Eventually(func() bool {
		_, nativeExists := hub.Registry().Lookup("native")
		_, browserExists := hub.Registry().Lookup("browser")
		return nativeExists && browserExists
	}, 5*time.Second, 10*time.Millisecond)

	native.RequestConnection("browser")
	frame := receive(requireT, browser)
	requireT.Equal(ws.TypeIncomingRequest, frame.Type)
	requireT.JSONEq(`{"from":"native"}`, string(frame.Payload))

	send(requireT, browser, `{"type":"request-connection","payload":{"to":"native","from":"browser"}}`)
	select {
	case msg := <-nativeCh:
		requireT.Equal(&wire.IncomingRequest{From: "browser"}, msg)
	case <-time.After(5 * time.Second):
		requireT.Fail("timeout")
	}
}
