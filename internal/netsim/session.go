// Package netsim simulates the out-of-process transport worker: it
// speaks the remote side of the control handshake so the session layer
// can be exercised end to end without a real network stack.
package netsim

import (
	"github.com/google/uuid"

	"github.com/averlon/averlon.net.p2p/internal/protocol"
	"github.com/averlon/averlon.net.p2p/internal/util"
)

// The remote defines the state labels; these mirror what a real
// transport worker reports.
const (
	stateNeedConfig = "need_config"
	stateReady      = "ready"
)

// Session is the per-connection protocol state of the simulated worker.
// It starts in need_config and becomes ready once a setConfig arrives.
// Pure message-in/messages-out logic; the server front end does the
// framing.
type Session struct {
	state         string
	id            string
	bindings      []string
	defaultConfig string
	config        string
}

// NewSession creates a session that will hand out defaultConfig and
// advertise the given bindings once ready.
func NewSession(defaultConfig string, bindings []string) *Session {
	return &Session{
		state:         stateNeedConfig,
		id:            uuid.NewString(),
		bindings:      bindings,
		defaultConfig: defaultConfig,
	}
}

// State returns the session's current state label.
func (s *Session) State() string { return s.state }

// Config returns the config blob received via setConfig, if any.
func (s *Session) Config() string { return s.config }

// Handle processes one inbound message and returns the responses to
// send back, in order. Messages the simulator does not understand
// produce no response.
func (s *Session) Handle(msg protocol.Message) []protocol.Message {
	if ping, ok := msg.(protocol.Ping); ok {
		return []protocol.Message{protocol.Pong{Orig: ping.Orig, Recv: util.Millis()}}
	}

	ctl, ok := protocol.ParseControl(msg)
	if !ok {
		return nil
	}

	switch c := ctl.(type) {
	case protocol.RequestState:
		return s.stateReport()

	case protocol.RequestDefaultConfig:
		resp, err := protocol.WrapControl(protocol.DefaultConfig{Config: s.defaultConfig})
		if err != nil {
			return nil
		}
		return []protocol.Message{resp}

	case protocol.SetConfig:
		s.config = c.Config
		s.state = stateReady
		// Report the transition right away instead of waiting for the
		// next probe.
		return s.stateReport()
	}

	return nil
}

func (s *Session) stateReport() []protocol.Message {
	report := protocol.State{State: s.state, ID: s.id}
	if s.state == stateReady {
		report.Bindings = s.bindings
	}

	resp, err := protocol.WrapControl(report)
	if err != nil {
		return nil
	}
	return []protocol.Message{resp}
}
