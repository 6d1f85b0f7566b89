// Package signaling orchestrates the signaling phase for direct peer
// sessions — WebSocket rendezvous plus SDP/ICE exchange. All transport
// details are internal; callers receive an open webrtc.Channel ready to
// carry protocol envelopes.
package signaling

import (
	"context"
	"fmt"

	"github.com/averlon/averlon.net.p2p/internal/util"
	"github.com/averlon/averlon.net.p2p/internal/webrtc"
)

// HostInfo describes a running host-side rendezvous point.
type HostInfo struct {
	Port int
	PIN  string
}

// EstablishAsHost runs the full host-side flow: start a WS server,
// report the rendezvous info through onListen, wait for the peer,
// exchange SDP/ICE, and return the open channel. The WS server and
// connection are closed before returning — they are only needed for
// signaling.
func EstablishAsHost(ctx context.Context, addr string, onListen func(HostInfo)) (*webrtc.Channel, error) {
	pin := generatePIN(4)
	srv := newServer(pin)
	port, err := srv.start(addr)
	if err != nil {
		return nil, err
	}
	defer srv.close()

	if onListen != nil {
		onListen(HostInfo{Port: port, PIN: pin})
	}

	wsConn, err := srv.waitForPeer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for peer: %w", err)
	}
	defer wsConn.Close()
	util.LogInfo("peer connected")

	ch, err := webrtc.NewChannel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	if err := exchange(wsConn, ch, true); err != nil {
		ch.Close()
		return nil, fmt.Errorf("signaling failed: %w", err)
	}

	util.LogInfo("DataChannel established, closing WS")
	return ch, nil
}

// EstablishAsClient runs the full client-side flow: dial the host's WS
// server, exchange SDP/ICE, and return the open channel.
func EstablishAsClient(ctx context.Context, wsURL string) (*webrtc.Channel, error) {
	wsConn, err := connect(ctx, wsURL)
	if err != nil {
		return nil, err
	}
	defer wsConn.Close()
	util.LogInfo("WS connected: %s", wsURL)

	ch, err := webrtc.NewChannel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	if err := exchange(wsConn, ch, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("signaling failed: %w", err)
	}

	util.LogInfo("DataChannel established, closing WS")
	return ch, nil
}
