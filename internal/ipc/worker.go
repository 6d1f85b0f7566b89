package ipc

import (
	"sync"

	"github.com/averlon/averlon.net.p2p/internal/protocol"
	"github.com/averlon/averlon.net.p2p/internal/relay"
	"github.com/averlon/averlon.net.p2p/internal/socket"
	"github.com/averlon/averlon.net.p2p/internal/util"
)

const (
	// probeIntervalMillis is the requestState cadence while the remote
	// is not ready — the only self-driven transition in the machine.
	probeIntervalMillis = 500.0

	// inboxBufferSize bounds the relay→worker channel. The relay
	// goroutine blocks when the owner falls this far behind; dropping a
	// live control message would wedge the handshake. Only Stop releases
	// a blocked send.
	inboxBufferSize = 256
)

// Worker is the IPC net worker: it drives the handshake with the remote
// transport worker and relays protocol messages between the owner and
// the transport. All of its state is mutated only inside Tick, Receive,
// and construction — the relay goroutine touches nothing but the inbox
// channel.
type Worker struct {
	sink  relay.Sink
	relay *relay.Relay
	inbox chan protocol.Message

	quit     chan struct{}
	quitOnce sync.Once

	announced       bool
	state           ConnState
	lastProbeMillis float64
}

// New creates a production worker from a JSON construction blob (see
// Config). Configuration errors abort creation before any I/O.
func New(sink relay.Sink, configBlob []byte) (*Worker, error) {
	cfg, err := ParseConfig(configBlob)
	if err != nil {
		return nil, err
	}

	return newWorker(sink, func(inner relay.Sink) (relay.Worker, error) {
		sock := socket.NewWSSocket()
		if err := sock.Connect(cfg.IPCURI); err != nil {
			return nil, err
		}
		return NewClient(inner, sock, cfg.BlockConnect)
	})
}

// NewWithSocket wires an arbitrary socket — the mock for tests, or a
// direct-peer RTC socket — with protocol behavior identical to the
// production path.
func NewWithSocket(sink relay.Sink, sock socket.Socket, blockConnect bool) (*Worker, error) {
	return newWorker(sink, func(inner relay.Sink) (relay.Worker, error) {
		return NewClient(inner, sock, blockConnect)
	})
}

func newWorker(sink relay.Sink, factory relay.Factory) (*Worker, error) {
	w := &Worker{
		sink:  sink,
		inbox: make(chan protocol.Message, inboxBufferSize),
		quit:  make(chan struct{}),
		state: ClassifyState(LabelUndefined),
	}

	rl, err := relay.New(relay.SinkFunc(func(msg protocol.Message) error {
		// The send must stay abortable: once the owner stops ticking the
		// inbox never drains, and a bare send would park the relay
		// goroutine where Stop can no longer reach it.
		select {
		case w.inbox <- msg:
		case <-w.quit:
		}
		return nil
	}), factory)
	if err != nil {
		return nil, err
	}
	w.relay = rl

	return w, nil
}

// Receive enqueues an outbound message from the owner to the relay.
func (w *Worker) Receive(msg protocol.Message) error {
	return w.relay.Send(msg)
}

// Tick performs one non-blocking unit of work: probe the remote state
// if due, collect relay activity, drain at most one inbound message,
// advance the handshake on control messages, forward the raw message to
// the owner's sink, and announce readiness exactly once. The returned
// bool tells the owner whether anything happened.
func (w *Worker) Tick() (bool, error) {
	did := false

	if !w.state.Ready() {
		if err := w.checkInit(); err != nil {
			return did, err
		}
	}

	rdid, err := w.relay.Tick()
	if err != nil {
		return did, err
	}
	if rdid {
		did = true
	}

	select {
	case msg := <-w.inbox:
		did = true

		if ctl, ok := protocol.ParseControl(msg); ok {
			if err := w.handleControl(ctl); err != nil {
				return did, err
			}
		}

		if err := w.sink.Deliver(msg); err != nil {
			return did, err
		}

		if !w.announced && w.state.Ready() {
			w.announced = true
			if err := w.sink.Deliver(protocol.P2PReady{}); err != nil {
				return did, err
			}
		}
	default:
	}

	return did, nil
}

// Stop tears down the relay and the underlying transport. Undrained
// inbox messages are discarded. No further ticks are valid afterwards.
func (w *Worker) Stop() error {
	w.quitOnce.Do(func() { close(w.quit) })
	return w.relay.Stop()
}

// State returns the last remote-reported connection state.
func (w *Worker) State() ConnState {
	return w.state
}

// checkInit re-asks the remote for its state twice a second until it
// reports ready, so an unresponsive remote never causes a silent hang.
func (w *Worker) checkInit() error {
	now := util.Millis()
	if now-w.lastProbeMillis > probeIntervalMillis {
		msg, err := protocol.WrapControl(protocol.RequestState{})
		if err != nil {
			return err
		}
		if err := w.relay.Send(msg); err != nil {
			return err
		}
		w.lastProbeMillis = now
	}
	return nil
}

// handleControl advances the handshake. Control tags with no local
// meaning are ignored.
func (w *Worker) handleControl(ctl protocol.Control) error {
	switch c := ctl.(type) {
	case protocol.State:
		return w.handleState(c)
	case protocol.DefaultConfig:
		return w.handleDefaultConfig(c)
	}
	return nil
}

// handleState records the reported state and, if the remote needs
// configuration, immediately asks for its default config.
func (w *Worker) handleState(s protocol.State) error {
	prev := w.state
	w.state = ClassifyState(s.State)

	// A downgrade away from ready is recorded but never renegotiated;
	// readiness stays announced.
	if w.announced && prev.Ready() && !w.state.Ready() {
		util.LogWarning("remote state left ready: %q", s.State)
	}

	if w.state.NeedConfig() {
		msg, err := protocol.WrapControl(protocol.RequestDefaultConfig{})
		if err != nil {
			return err
		}
		return w.relay.Send(msg)
	}
	return nil
}

// handleDefaultConfig echoes the default config back as setConfig, but
// only while the remote still claims to need configuration.
func (w *Worker) handleDefaultConfig(c protocol.DefaultConfig) error {
	if !w.state.NeedConfig() {
		return nil
	}

	msg, err := protocol.WrapControl(protocol.SetConfig{Config: c.Config})
	if err != nil {
		return err
	}
	return w.relay.Send(msg)
}
