package socket

import (
	"reflect"
	"testing"
)

// TestPackUnpackRoundTrip verifies frame packing is lossless for
// typical envelope shapes.
func TestPackUnpackRoundTrip(t *testing.T) {
	testCases := []struct {
		name   string
		frames [][]byte
	}{
		{
			name:   "typical envelope",
			frames: [][]byte{{}, {}, []byte("json"), []byte(`{"method":"requestState"}`)},
		},
		{
			name:   "all empty frames",
			frames: [][]byte{{}, {}, {}, {}},
		},
		{
			name:   "single large frame",
			frames: [][]byte{make([]byte, 64*1024)},
		},
		{
			name:   "binary payload",
			frames: [][]byte{{}, {}, []byte("blob"), {0x00, 0xFF, 0x7F, 0x80}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			packed := PackFrames(tc.frames)
			unpacked, err := UnpackFrames(packed)
			if err != nil {
				t.Fatalf("UnpackFrames failed: %v", err)
			}

			if len(unpacked) != len(tc.frames) {
				t.Fatalf("frame count mismatch: got %d, want %d", len(unpacked), len(tc.frames))
			}
			for i := range tc.frames {
				if !reflect.DeepEqual(unpacked[i], normalize(tc.frames[i])) {
					t.Errorf("frame %d mismatch: got %v, want %v", i, unpacked[i], tc.frames[i])
				}
			}
		})
	}
}

// normalize maps a nil/empty frame to the empty slice UnpackFrames produces.
func normalize(f []byte) []byte {
	if len(f) == 0 {
		return []byte{}
	}
	return f
}

// TestUnpackTruncated verifies torn input is rejected.
func TestUnpackTruncated(t *testing.T) {
	packed := PackFrames([][]byte{[]byte("hello"), []byte("world")})

	testCases := []struct {
		name string
		data []byte
	}{
		{"torn header", packed[:2]},
		{"torn frame body", packed[:len(packed)-3]},
		{"lone length prefix", []byte{0, 0, 0, 9}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := UnpackFrames(tc.data); err == nil {
				t.Fatal("expected error for truncated input, got nil")
			}
		})
	}
}

// TestUnpackEmpty verifies zero bytes unpack to zero frames.
func TestUnpackEmpty(t *testing.T) {
	frames, err := UnpackFrames(nil)
	if err != nil {
		t.Fatalf("UnpackFrames failed: %v", err)
	}
	if len(frames) != 0 {
		t.Errorf("expected no frames, got %d", len(frames))
	}
}
