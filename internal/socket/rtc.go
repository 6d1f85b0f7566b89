package socket

import (
	"context"

	"github.com/averlon/averlon.net.p2p/internal/signaling"
	"github.com/averlon/averlon.net.p2p/internal/util"
	"github.com/averlon/averlon.net.p2p/internal/webrtc"
)

// RTCSocket carries multipart envelopes over a WebRTC DataChannel, so a
// direct peer session looks like any other transport to the net worker.
type RTCSocket struct {
	ctx    context.Context
	ch     *webrtc.Channel
	recvCh chan [][]byte
}

// NewRTCSocket creates an unconnected RTC socket; Connect dials the
// peer's signaling endpoint as a client.
func NewRTCSocket(ctx context.Context) *RTCSocket {
	return &RTCSocket{
		ctx:    ctx,
		recvCh: make(chan [][]byte, recvBufferSize),
	}
}

// NewRTCSocketWithChannel wraps an already-established channel — the
// host side, where signaling ran before the socket exists.
func NewRTCSocketWithChannel(ch *webrtc.Channel) *RTCSocket {
	s := &RTCSocket{
		ctx:    context.Background(),
		recvCh: make(chan [][]byte, recvBufferSize),
	}
	s.attach(ch)
	return s
}

// Connect performs client-side signaling against the given WebSocket
// URL and attaches the resulting DataChannel.
func (s *RTCSocket) Connect(uri string) error {
	if s.ch != nil {
		return nil
	}

	ch, err := signaling.EstablishAsClient(s.ctx, uri)
	if err != nil {
		return err
	}
	s.attach(ch)
	return nil
}

func (s *RTCSocket) attach(ch *webrtc.Channel) {
	s.ch = ch
	ch.OnMessage(func(data []byte) {
		frames, err := UnpackFrames(data)
		if err != nil {
			util.LogDebug("dropping malformed peer message: %v", err)
			return
		}
		util.Stats.AddRecv(len(data))
		select {
		case s.recvCh <- frames:
		case <-ch.Done():
		}
	})
}

func (s *RTCSocket) Send(frames [][]byte) error {
	if s.ch == nil {
		return ErrClosed
	}

	data := PackFrames(frames)
	if err := s.ch.Send(data); err != nil {
		return err
	}
	util.Stats.AddSent(len(data))
	return nil
}

func (s *RTCSocket) Receive() ([][]byte, bool, error) {
	select {
	case frames := <-s.recvCh:
		return frames, true, nil
	default:
	}

	if s.ch != nil {
		select {
		case <-s.ch.Done():
			return nil, false, ErrClosed
		default:
		}
	}
	return nil, false, nil
}

func (s *RTCSocket) Close() error {
	if s.ch == nil {
		return nil
	}
	return s.ch.Close()
}
