// Package protocol defines the wire message union and the multipart
// envelope exchanged with the remote transport worker.
package protocol

// Method-name tags carried in frame 3 of the envelope.
const (
	MethodJSON     = "json"
	MethodPing     = "ping"
	MethodPong     = "pong"
	MethodP2PReady = "p2pReady"
)

// Message is one wire-level protocol message. The union is closed over
// the defined variants below; anything with an unrecognized method tag
// decodes to Raw and is forwarded upward unmodified.
type Message interface {
	// Method returns the canonical method-name tag for the variant.
	Method() string
}

// JSON is the generic JSON payload variant. The bytes are kept verbatim
// so encode/decode round-trips byte-for-byte; control sub-protocol
// messages (see control.go) are a refinement of this variant.
type JSON []byte

func (JSON) Method() string { return MethodJSON }

// Ping is a latency probe request. Orig is the sender's wall-clock
// timestamp in floating-point milliseconds.
type Ping struct {
	Orig float64 `json:"orig"`
}

func (Ping) Method() string { return MethodPing }

// Pong is the probe response, echoing the origin timestamp and adding
// the receipt timestamp.
type Pong struct {
	Orig float64 `json:"orig"`
	Recv float64 `json:"recv"`
}

func (Pong) Method() string { return MethodPong }

// P2PReady is the synthetic readiness signal delivered to the owner
// exactly once, the first time the remote reports the ready state.
// It carries no payload.
type P2PReady struct{}

func (P2PReady) Method() string { return MethodP2PReady }

// Raw is an unrecognized message kind: the method tag and payload are
// preserved as-is so decoding never fails the whole pipeline.
type Raw struct {
	Name string
	Data []byte
}

func (r Raw) Method() string { return r.Name }
