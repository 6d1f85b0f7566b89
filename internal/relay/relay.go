package relay

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/averlon/averlon.net.p2p/internal/protocol"
)

const (
	sendBufferSize = 64                   // outbound message channel capacity
	idleSleep      = 1 * time.Millisecond // backoff when the worker has nothing to do
)

// ErrStopped is returned by Send after the relay has shut down.
var ErrStopped = errors.New("relay stopped")

// Relay owns a background goroutine that drives a factory-created
// worker: it flushes outbound messages to the worker, ticks it, and
// lets the worker push inbound messages to its sink. The owner only
// ever touches channels — no shared mutable memory crosses the
// goroutine boundary.
type Relay struct {
	sendCh chan protocol.Message
	stopCh chan struct{}
	doneCh chan struct{}

	stopOnce sync.Once
	didWork  atomic.Bool

	mu  sync.Mutex
	err error // first background error, latched
}

// New creates the worker via factory and starts the relay goroutine.
func New(sink Sink, factory Factory) (*Relay, error) {
	w, err := factory(sink)
	if err != nil {
		return nil, err
	}

	r := &Relay{
		sendCh: make(chan protocol.Message, sendBufferSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go r.loop(w)
	return r, nil
}

// loop is the single goroutine that owns the worker. Outbound flushes
// take priority over ticks so handshake replies keep their order.
func (r *Relay) loop(w Worker) {
	defer close(r.doneCh)

	for {
		select {
		case <-r.stopCh:
			if err := w.Stop(); err != nil {
				r.setErr(err)
			}
			return

		case msg := <-r.sendCh:
			if err := w.Receive(msg); err != nil {
				r.setErr(err)
			}

		default:
			did, err := w.Tick()
			if err != nil {
				r.setErr(err)
				time.Sleep(idleSleep)
				continue
			}
			if did {
				r.didWork.Store(true)
			} else {
				time.Sleep(idleSleep)
			}
		}
	}
}

// Send enqueues an outbound message for the worker.
func (r *Relay) Send(msg protocol.Message) error {
	if err := r.Err(); err != nil {
		return err
	}

	select {
	case r.sendCh <- msg:
		return nil
	case <-r.doneCh:
		if err := r.Err(); err != nil {
			return err
		}
		return ErrStopped
	}
}

// Tick reports whether the background worker did any work since the
// last call, surfacing any latched background error instead.
func (r *Relay) Tick() (bool, error) {
	if err := r.Err(); err != nil {
		return false, err
	}
	return r.didWork.Swap(false), nil
}

// Stop shuts the relay down and joins the goroutine. Safe to call more
// than once; later calls return the same latched error, if any.
func (r *Relay) Stop() error {
	r.stopOnce.Do(func() { close(r.stopCh) })
	<-r.doneCh
	return r.Err()
}

// Err returns the first error the background worker hit, if any.
func (r *Relay) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Relay) setErr(err error) {
	r.mu.Lock()
	if r.err == nil {
		r.err = err
	}
	r.mu.Unlock()
}
