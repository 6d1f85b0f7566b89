package ipc

import (
	"errors"
	"time"

	"github.com/averlon/averlon.net.p2p/internal/protocol"
	"github.com/averlon/averlon.net.p2p/internal/relay"
	"github.com/averlon/averlon.net.p2p/internal/socket"
	"github.com/averlon/averlon.net.p2p/internal/util"
)

const (
	connectTimeout = 5 * time.Second
	connectPoll    = 10 * time.Millisecond
)

// Client is the relay's inner worker: it owns the socket, translating
// between protocol messages and multipart frames. It runs entirely on
// the relay goroutine.
type Client struct {
	sink relay.Sink
	sock socket.Socket
}

// NewClient wraps an already-connected socket. With blockConnect set it
// pings the remote and waits (bounded) for any first response before
// returning, so the caller knows the far side is alive.
func NewClient(sink relay.Sink, sock socket.Socket, blockConnect bool) (*Client, error) {
	c := &Client{sink: sink, sock: sock}
	if blockConnect {
		if err := c.waitConnect(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Receive encodes an outbound message and puts it on the wire.
func (c *Client) Receive(msg protocol.Message) error {
	frames, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	return c.sock.Send(frames)
}

// Tick drains at most one pending frame set from the socket. Malformed
// envelopes are skipped for that tick — framing issues must not kill an
// otherwise healthy session. Inbound pings are answered here; every
// decoded message is delivered to the sink.
func (c *Client) Tick() (bool, error) {
	frames, ok, err := c.sock.Receive()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return true, c.handleFrames(frames)
}

// Stop releases the socket.
func (c *Client) Stop() error {
	return c.sock.Close()
}

func (c *Client) handleFrames(frames [][]byte) error {
	msg, err := protocol.Decode(frames)
	if err != nil {
		util.LogDebug("skipping malformed envelope: %v", err)
		return nil
	}

	if ping, isPing := msg.(protocol.Ping); isPing {
		if err := c.Receive(protocol.Pong{Orig: ping.Orig, Recv: util.Millis()}); err != nil {
			return err
		}
	}

	return c.sink.Deliver(msg)
}

// waitConnect sends a ping and polls for the first inbound message.
// Whatever arrives is handled normally so nothing is dropped.
func (c *Client) waitConnect() error {
	if err := c.Receive(protocol.Ping{Orig: util.Millis()}); err != nil {
		return err
	}

	deadline := time.Now().Add(connectTimeout)
	for {
		frames, ok, err := c.sock.Receive()
		if err != nil {
			return err
		}
		if ok {
			return c.handleFrames(frames)
		}
		if time.Now().After(deadline) {
			return errors.New("transport worker did not respond to connect ping")
		}
		time.Sleep(connectPoll)
	}
}
