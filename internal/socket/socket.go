// Package socket abstracts the framed binary transport that carries
// multipart protocol envelopes to and from the remote transport worker.
// Implementations: a WebSocket transport for out-of-process workers, a
// WebRTC DataChannel transport for direct peer sessions, and an
// in-memory mock for tests.
package socket

import "errors"

// ErrClosed is returned by Send/Receive after the socket has been
// closed, locally or by the remote side.
var ErrClosed = errors.New("socket closed")

// Socket moves multipart frame sets between the local session layer and
// the remote transport worker. Receive is non-blocking: the second
// return value reports whether a message was available. All
// implementations must allow Send and Receive from different
// goroutines, but each from at most one goroutine at a time.
type Socket interface {
	// Connect establishes the underlying transport to the given endpoint.
	Connect(uri string) error

	// Send transmits one multipart message.
	Send(frames [][]byte) error

	// Receive returns the next pending multipart message without
	// blocking. ok is false when nothing is pending.
	Receive() (frames [][]byte, ok bool, err error)

	// Close releases the underlying transport.
	Close() error
}
