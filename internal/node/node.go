// Package node drives a net worker the way the owning process does:
// a cooperative tick loop, a readiness gate, and fan-out of forwarded
// messages to the rest of the application.
package node

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/averlon/averlon.net.p2p/internal/protocol"
	"github.com/averlon/averlon.net.p2p/internal/relay"
	"github.com/averlon/averlon.net.p2p/internal/util"
)

const (
	msgBufferSize = 256
	idlePoll      = 10 * time.Millisecond // backoff when a tick reports no work
)

// Node owns one net worker. Construct the node first, hand its Sink to
// the worker constructor, Bind the worker, then Run.
type Node struct {
	worker relay.Worker

	msgs      chan protocol.Message
	ready     chan struct{}
	readyOnce sync.Once
}

// New creates an unbound node.
func New() *Node {
	return &Node{
		msgs:  make(chan protocol.Message, msgBufferSize),
		ready: make(chan struct{}),
	}
}

// Sink returns the delivery capability to hand to the worker. The
// synthetic readiness message closes Ready; everything is fanned out on
// Messages. A full message buffer drops (application traffic is only
// useful fresh) — the handshake itself never depends on this buffer.
func (n *Node) Sink() relay.Sink {
	return relay.SinkFunc(func(msg protocol.Message) error {
		if _, isReady := msg.(protocol.P2PReady); isReady {
			n.readyOnce.Do(func() { close(n.ready) })
		}

		select {
		case n.msgs <- msg:
		default:
			util.LogDebug("message buffer full, dropping %s", msg.Method())
		}
		return nil
	})
}

// Bind attaches the worker this node drives.
func (n *Node) Bind(w relay.Worker) {
	n.worker = w
}

// Ready is closed once the remote transport announces readiness.
func (n *Node) Ready() <-chan struct{} {
	return n.ready
}

// Messages is the stream of messages the worker forwards upward,
// control traffic and application traffic alike.
func (n *Node) Messages() <-chan protocol.Message {
	return n.msgs
}

// Send relays an outbound message to the transport.
func (n *Node) Send(msg protocol.Message) error {
	if n.worker == nil {
		return errors.New("node is not bound to a worker")
	}
	return n.worker.Receive(msg)
}

// Run ticks the worker until ctx is cancelled or the worker fails,
// re-ticking immediately after productive ticks and backing off when
// idle. The worker is stopped before Run returns.
func (n *Node) Run(ctx context.Context) error {
	if n.worker == nil {
		return errors.New("node is not bound to a worker")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return n.worker.Stop()
			default:
			}

			did, err := n.worker.Tick()
			if err != nil {
				n.worker.Stop()
				return err
			}
			if !did {
				time.Sleep(idlePoll)
			}
		}
	})

	g.Go(func() error {
		select {
		case <-n.ready:
			util.LogSuccess("remote transport is ready")
		case <-gctx.Done():
		}
		return nil
	})

	return g.Wait()
}
