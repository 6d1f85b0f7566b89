package protocol

import (
	"encoding/json"
	"fmt"
)

// FrameCount is the fixed number of frames in the multipart envelope:
// two empty frames reserved for routing identity, the ASCII method
// name, and the payload.
const FrameCount = 4

// Encode serializes a Message into its 4-frame envelope
// [empty, empty, method, payload].
func Encode(msg Message) ([][]byte, error) {
	var payload []byte
	var err error

	switch m := msg.(type) {
	case JSON:
		payload = []byte(m)
	case Ping:
		payload, err = json.Marshal(m)
	case Pong:
		payload, err = json.Marshal(m)
	case P2PReady:
		payload = []byte{}
	case Raw:
		payload = m.Data
	default:
		return nil, fmt.Errorf("cannot encode message kind %T", msg)
	}
	if err != nil {
		return nil, err
	}

	return [][]byte{{}, {}, []byte(msg.Method()), payload}, nil
}

// Decode deserializes a 4-frame envelope back into a Message.
// An unrecognized method name is not an error — it yields a Raw
// message to be forwarded upward unmodified. A wrong frame count or a
// malformed payload for a known method is a codec error.
func Decode(frames [][]byte) (Message, error) {
	if len(frames) != FrameCount {
		return nil, fmt.Errorf("bad envelope: %d frames (need %d)", len(frames), FrameCount)
	}

	method := string(frames[2])
	payload := frames[3]

	switch method {
	case MethodJSON:
		body := make([]byte, len(payload))
		copy(body, payload)
		return JSON(body), nil

	case MethodPing:
		var m Ping
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, fmt.Errorf("bad ping payload: %w", err)
		}
		return m, nil

	case MethodPong:
		var m Pong
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, fmt.Errorf("bad pong payload: %w", err)
		}
		return m, nil

	case MethodP2PReady:
		return P2PReady{}, nil

	default:
		data := make([]byte, len(payload))
		copy(data, payload)
		return Raw{Name: method, Data: data}, nil
	}
}
