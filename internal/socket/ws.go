package socket

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/averlon/averlon.net.p2p/internal/util"
)

// recvBufferSize is the inbound message channel capacity. The reader
// goroutine blocks when the consumer falls this far behind.
const recvBufferSize = 64

// WSSocket carries multipart envelopes over a WebSocket connection,
// one packed binary message per envelope. A background reader feeds an
// inbound channel so Receive stays non-blocking.
type WSSocket struct {
	writeMu sync.Mutex
	conn    *websocket.Conn

	recvCh chan [][]byte
	closed chan struct{}

	mu        sync.Mutex
	readErr   error
	closeOnce sync.Once
}

// NewWSSocket creates an unconnected WebSocket socket.
func NewWSSocket() *WSSocket {
	return &WSSocket{
		recvCh: make(chan [][]byte, recvBufferSize),
		closed: make(chan struct{}),
	}
}

// Connect dials the WebSocket endpoint and starts the reader goroutine.
func (s *WSSocket) Connect(uri string) error {
	conn, _, err := websocket.DefaultDialer.Dial(uri, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", uri, err)
	}
	s.conn = conn

	go s.readLoop()
	return nil
}

// readLoop pulls binary messages off the connection, unpacks them, and
// feeds the inbound channel. A malformed blob is skipped (transport
// framing issues must not kill the session); a read error ends the
// loop and is surfaced by the next Receive.
func (s *WSSocket) readLoop() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			s.readErr = err
			s.mu.Unlock()
			return
		}

		frames, err := UnpackFrames(data)
		if err != nil {
			util.LogDebug("dropping malformed transport message: %v", err)
			continue
		}

		util.Stats.AddRecv(len(data))
		select {
		case s.recvCh <- frames:
		case <-s.closed:
			// Nobody is receiving anymore; exit instead of parking on
			// the full channel forever.
			return
		}
	}
}

// Send packs the frame set into one binary WebSocket message. Writes
// are serialized; gorilla connections allow one concurrent writer.
func (s *WSSocket) Send(frames [][]byte) error {
	if s.conn == nil {
		return ErrClosed
	}

	data := PackFrames(frames)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("websocket send: %w", err)
	}

	util.Stats.AddSent(len(data))
	return nil
}

// Receive drains one pending message. Pending messages are delivered
// before any read error is surfaced, so nothing already received is
// lost when the connection drops.
func (s *WSSocket) Receive() ([][]byte, bool, error) {
	select {
	case frames := <-s.recvCh:
		return frames, true, nil
	default:
	}

	s.mu.Lock()
	err := s.readErr
	s.mu.Unlock()
	if err != nil {
		return nil, false, fmt.Errorf("websocket receive: %w", err)
	}
	return nil, false, nil
}

// Close shuts down the connection; the reader goroutine exits on its
// next read or blocked delivery.
func (s *WSSocket) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		if s.conn != nil {
			err = s.conn.Close()
		}
	})
	return err
}
