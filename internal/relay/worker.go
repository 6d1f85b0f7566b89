// Package relay decouples transport I/O timing from the owner's call
// pattern: a factory-created worker runs on its own goroutine and
// exchanges typed protocol messages with the owner over channels.
package relay

import "github.com/averlon/averlon.net.p2p/internal/protocol"

// Worker is the uniform contract by which a net worker is driven: the
// owner pushes outbound messages with Receive, pumps it with Tick, and
// tears it down with Stop. Tick reports whether any work was done so
// the caller can decide to poll again immediately or back off.
type Worker interface {
	Receive(msg protocol.Message) error
	Tick() (bool, error)
	Stop() error
}

// Factory creates the inner worker, wiring it to the sink its inbound
// messages should be delivered to.
type Factory func(sink Sink) (Worker, error)

// Sink receives messages forwarded up from a worker. It is the only
// capability a worker holds on its owner.
type Sink interface {
	Deliver(msg protocol.Message) error
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(msg protocol.Message) error

func (f SinkFunc) Deliver(msg protocol.Message) error { return f(msg) }
