package protocol

import (
	"bytes"
	"reflect"
	"testing"
)

// TestEncodeDecodeRoundTrip verifies that encoding and decoding are
// inverse operations for every defined message variant.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		msg  Message
	}{
		{
			name: "json with application payload",
			msg:  JSON(`{"custom":"payload","n":42}`),
		},
		{
			name: "json with control payload",
			msg:  JSON(`{"method":"state","state":"ready","id":"a","bindings":["b"]}`),
		},
		{
			name: "json empty object",
			msg:  JSON(`{}`),
		},
		{
			name: "ping",
			msg:  Ping{Orig: 1234567890123.5},
		},
		{
			name: "pong",
			msg:  Pong{Orig: 1234567890123.5, Recv: 1234567890125.25},
		},
		{
			name: "p2pReady",
			msg:  P2PReady{},
		},
		{
			name: "raw unrecognized method",
			msg:  Raw{Name: "namedBinary", Data: []byte{0x01, 0x02, 0x03}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			frames, err := Encode(tc.msg)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			if len(frames) != FrameCount {
				t.Fatalf("frame count mismatch: got %d, want %d", len(frames), FrameCount)
			}
			if len(frames[0]) != 0 || len(frames[1]) != 0 {
				t.Errorf("reserved frames must be empty: %v, %v", frames[0], frames[1])
			}
			if string(frames[2]) != tc.msg.Method() {
				t.Errorf("method frame mismatch: got %q, want %q", frames[2], tc.msg.Method())
			}

			decoded, err := Decode(frames)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}

			if !reflect.DeepEqual(decoded, tc.msg) {
				t.Errorf("round trip mismatch: got %#v, want %#v", decoded, tc.msg)
			}
		})
	}
}

// TestEncodeJSONPreservesBytes verifies the json payload is carried
// byte-for-byte, whitespace and key order included.
func TestEncodeJSONPreservesBytes(t *testing.T) {
	body := []byte(`{ "b": 1,  "a": 2 }`)

	frames, err := Encode(JSON(body))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(frames[3], body) {
		t.Fatalf("payload altered: got %q, want %q", frames[3], body)
	}

	decoded, err := Decode(frames)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal([]byte(decoded.(JSON)), body) {
		t.Fatalf("decoded payload altered: got %q", decoded.(JSON))
	}
}

// TestDecodeUnrecognizedMethod verifies that an unknown method name
// does not fail decoding — it surfaces as a Raw message.
func TestDecodeUnrecognizedMethod(t *testing.T) {
	frames := [][]byte{{}, {}, []byte("futureMethod"), []byte("opaque")}

	decoded, err := Decode(frames)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	raw, ok := decoded.(Raw)
	if !ok {
		t.Fatalf("expected Raw, got %#v", decoded)
	}
	if raw.Name != "futureMethod" || string(raw.Data) != "opaque" {
		t.Errorf("Raw mismatch: %#v", raw)
	}
}

// TestDecodeBadFrameCount verifies the envelope must have exactly four frames.
func TestDecodeBadFrameCount(t *testing.T) {
	testCases := []struct {
		name   string
		frames [][]byte
	}{
		{"empty", nil},
		{"one frame", [][]byte{[]byte("json")}},
		{"three frames", [][]byte{{}, {}, []byte("json")}},
		{"five frames", [][]byte{{}, {}, []byte("json"), {}, {}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(tc.frames); err == nil {
				t.Fatal("expected error for bad frame count, got nil")
			}
		})
	}
}

// TestDecodeBadPayload verifies that a malformed payload for a known
// method is a codec error.
func TestDecodeBadPayload(t *testing.T) {
	testCases := []struct {
		name   string
		method string
	}{
		{"bad ping body", MethodPing},
		{"bad pong body", MethodPong},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			frames := [][]byte{{}, {}, []byte(tc.method), []byte("not json")}
			if _, err := Decode(frames); err == nil {
				t.Fatal("expected error for malformed payload, got nil")
			}
		})
	}
}

// TestDecodeDoesNotAliasInput verifies decoded payloads are copies, not
// views into the input frames.
func TestDecodeDoesNotAliasInput(t *testing.T) {
	payload := []byte(`{"k":"v"}`)
	frames := [][]byte{{}, {}, []byte(MethodJSON), payload}

	decoded, err := Decode(frames)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	payload[2] = 'X'
	if string(decoded.(JSON)) != `{"k":"v"}` {
		t.Errorf("decoded payload aliased the input buffer: %q", decoded.(JSON))
	}
}
