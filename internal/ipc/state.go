// Package ipc implements the net worker that talks to an out-of-process
// transport worker: a relay-driven transport client plus the handshake
// state machine that brings the remote from undefined to ready.
package ipc

// Connection-state labels known to this layer. The remote protocol uses
// an open string space; anything else is preserved verbatim.
const (
	LabelUndefined  = "undefined"
	LabelNeedConfig = "need_config"
	LabelReady      = "ready"
)

// StateKind classifies a remote state label.
type StateKind int

const (
	StateUndefined StateKind = iota
	StateNeedConfig
	StateReady
	StateOther
)

// ConnState is the tagged form of the remote's state label: the
// locally-known subset gets a kind, unrecognized labels carry
// StateOther with the label kept verbatim for forward compatibility.
type ConnState struct {
	Kind  StateKind
	Label string
}

// ClassifyState maps a raw remote label to its tagged form.
func ClassifyState(label string) ConnState {
	s := ConnState{Label: label}
	switch label {
	case LabelUndefined:
		s.Kind = StateUndefined
	case LabelNeedConfig:
		s.Kind = StateNeedConfig
	case LabelReady:
		s.Kind = StateReady
	default:
		s.Kind = StateOther
	}
	return s
}

func (s ConnState) Ready() bool      { return s.Kind == StateReady }
func (s ConnState) NeedConfig() bool { return s.Kind == StateNeedConfig }
