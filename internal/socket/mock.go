package socket

import "sync"

// mockBufferSize bounds the injection and capture channels. Tests never
// come close to this.
const mockBufferSize = 16

// MockSocket is an in-memory Socket backed by a pair of channels. It
// bypasses real I/O while preserving the exact Send/Receive contract,
// which is what makes the handshake state machine deterministically
// testable.
type MockSocket struct {
	in  chan [][]byte
	out chan [][]byte

	closed    chan struct{}
	closeOnce sync.Once
}

// MakeTestChannels creates a MockSocket together with its test-side
// endpoints: inject feeds inbound messages the socket will Receive,
// sent captures everything the socket Sends.
func MakeTestChannels() (sock *MockSocket, inject chan<- [][]byte, sent <-chan [][]byte) {
	s := &MockSocket{
		in:     make(chan [][]byte, mockBufferSize),
		out:    make(chan [][]byte, mockBufferSize),
		closed: make(chan struct{}),
	}
	return s, s.in, s.out
}

// Connect is a no-op; the channels are already wired.
func (s *MockSocket) Connect(uri string) error { return nil }

func (s *MockSocket) Send(frames [][]byte) error {
	select {
	case s.out <- frames:
		return nil
	case <-s.closed:
		return ErrClosed
	}
}

func (s *MockSocket) Receive() ([][]byte, bool, error) {
	select {
	case frames := <-s.in:
		return frames, true, nil
	default:
	}

	select {
	case <-s.closed:
		return nil, false, ErrClosed
	default:
		return nil, false, nil
	}
}

func (s *MockSocket) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}
