package protocol

import "encoding/json"

// Control sub-protocol method discriminants, carried in the "method"
// field of the JSON body.
const (
	ControlRequestState         = "requestState"
	ControlState                = "state"
	ControlRequestDefaultConfig = "requestDefaultConfig"
	ControlDefaultConfig        = "defaultConfig"
	ControlSetConfig            = "setConfig"
)

// Control is a handshake message layered atop the generic JSON variant.
type Control interface {
	controlMethod() string
}

// RequestState asks the remote worker to report its current state.
type RequestState struct{}

func (RequestState) controlMethod() string { return ControlRequestState }

// State is the remote worker's current-state report.
type State struct {
	State    string
	ID       string
	Bindings []string
}

func (State) controlMethod() string { return ControlState }

// RequestDefaultConfig asks the remote worker for its default config.
type RequestDefaultConfig struct{}

func (RequestDefaultConfig) controlMethod() string { return ControlRequestDefaultConfig }

// DefaultConfig carries the remote worker's default config blob.
// The blob is opaque to this layer.
type DefaultConfig struct {
	Config string
}

func (DefaultConfig) controlMethod() string { return ControlDefaultConfig }

// SetConfig hands a config blob to the remote worker.
type SetConfig struct {
	Config string
}

func (SetConfig) controlMethod() string { return ControlSetConfig }

// controlEnvelope is the JSON wire form: a method discriminant plus the
// union of all method-specific fields.
type controlEnvelope struct {
	Method   string   `json:"method"`
	State    string   `json:"state,omitempty"`
	ID       string   `json:"id,omitempty"`
	Bindings []string `json:"bindings,omitempty"`
	Config   string   `json:"config,omitempty"`
}

// WrapControl marshals a control message into the generic JSON variant.
func WrapControl(c Control) (JSON, error) {
	env := controlEnvelope{Method: c.controlMethod()}

	switch m := c.(type) {
	case State:
		env.State = m.State
		env.ID = m.ID
		env.Bindings = m.Bindings
	case DefaultConfig:
		env.Config = m.Config
	case SetConfig:
		env.Config = m.Config
	}

	body, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	return JSON(body), nil
}

// ParseControl attempts to refine a generic message into a control
// message. Parsing is partial: a non-JSON message, a malformed body,
// or an unrecognized method all report "not this protocol" (ok=false)
// rather than an error — application JSON flows through here too.
func ParseControl(msg Message) (Control, bool) {
	body, isJSON := msg.(JSON)
	if !isJSON {
		return nil, false
	}

	var env controlEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return nil, false
	}

	switch env.Method {
	case ControlRequestState:
		return RequestState{}, true
	case ControlState:
		return State{State: env.State, ID: env.ID, Bindings: env.Bindings}, true
	case ControlRequestDefaultConfig:
		return RequestDefaultConfig{}, true
	case ControlDefaultConfig:
		return DefaultConfig{Config: env.Config}, true
	case ControlSetConfig:
		return SetConfig{Config: env.Config}, true
	default:
		return nil, false
	}
}
