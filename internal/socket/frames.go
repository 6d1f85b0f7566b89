package socket

import (
	"encoding/binary"
	"fmt"
)

// PackFrames serializes a multipart frame set into one binary blob:
// each frame is a uint32 big-endian length prefix followed by the frame
// bytes. Any message-oriented byte transport can then carry the
// envelope as a single message.
func PackFrames(frames [][]byte) []byte {
	size := 0
	for _, f := range frames {
		size += 4 + len(f)
	}

	buf := make([]byte, 0, size)
	var hdr [4]byte
	for _, f := range frames {
		binary.BigEndian.PutUint32(hdr[:], uint32(len(f)))
		buf = append(buf, hdr[:]...)
		buf = append(buf, f...)
	}
	return buf
}

// UnpackFrames is the inverse of PackFrames. Truncated input is an
// error; the caller decides whether that is fatal for the session.
func UnpackFrames(data []byte) ([][]byte, error) {
	var frames [][]byte

	for len(data) > 0 {
		if len(data) < 4 {
			return nil, fmt.Errorf("torn frame header: %d trailing bytes", len(data))
		}
		n := int(binary.BigEndian.Uint32(data[:4]))
		data = data[4:]

		if len(data) < n {
			return nil, fmt.Errorf("torn frame: need %d bytes, have %d", n, len(data))
		}
		frame := make([]byte, n)
		copy(frame, data[:n])
		frames = append(frames, frame)
		data = data[n:]
	}

	return frames, nil
}
