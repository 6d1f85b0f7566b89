package signaling

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	pion "github.com/pion/webrtc/v4"

	"github.com/averlon/averlon.net.p2p/internal/util"
	"github.com/averlon/averlon.net.p2p/internal/webrtc"
)

// exchange runs the SDP/ICE conversation for one side. The host sends
// the offer first; the peer answers. Both trickle ICE candidates as
// they are gathered. It returns once the DataChannel opens, or with the
// first signaling error.
func exchange(wsConn *websocket.Conn, ch *webrtc.Channel, isHost bool) error {
	var wsMu sync.Mutex
	wsSend := func(msg message) {
		wsMu.Lock()
		defer wsMu.Unlock()
		if err := wsConn.WriteJSON(msg); err != nil {
			// If WS closed because ch.Ready() already fired, that's fine.
			select {
			case <-ch.Ready():
			default:
				util.LogWarning("WS send failed: %v", err)
			}
		}
	}

	// Trickle ICE candidates.
	ch.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			return
		}
		data, _ := json.Marshal(c.ToJSON())
		wsSend(message{
			Type:      msgTypeCandidate,
			Candidate: string(data),
		})
	})

	if isHost {
		offer, err := ch.CreateOffer()
		if err != nil {
			return fmt.Errorf("CreateOffer: %w", err)
		}
		if err := ch.SetLocalDescription(offer); err != nil {
			return fmt.Errorf("SetLocalDescription: %w", err)
		}
		wsSend(message{Type: msgTypeOffer, SDP: offer.SDP})
	}

	// Read loop: remote SDP + ICE candidates.
	errCh := make(chan error, 1)
	go func() {
		errCh <- watch(wsConn, ch, wsSend)
	}()

	select {
	case <-ch.Ready():
		return nil
	case err := <-errCh:
		// The read loop dies when the WS is torn down after Ready fires;
		// only report errors from before that point.
		select {
		case <-ch.Ready():
			return nil
		default:
			return err
		}
	case <-ch.Done():
		return fmt.Errorf("channel closed during signaling")
	}
}

// watch consumes signaling messages until the WS closes or a message
// cannot be applied.
func watch(wsConn *websocket.Conn, ch *webrtc.Channel, wsSend func(message)) error {
	for {
		var msg message
		if err := wsConn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("WS read failed: %w", err)
		}

		switch msg.Type {
		case msgTypeOffer:
			if err := ch.SetRemoteDescription(pion.SessionDescription{
				Type: pion.SDPTypeOffer, SDP: msg.SDP,
			}); err != nil {
				return err
			}
			answer, err := ch.CreateAnswer()
			if err != nil {
				return fmt.Errorf("CreateAnswer: %w", err)
			}
			if err := ch.SetLocalDescription(answer); err != nil {
				return fmt.Errorf("SetLocalDescription: %w", err)
			}
			wsSend(message{Type: msgTypeAnswer, SDP: answer.SDP})

		case msgTypeAnswer:
			if err := ch.SetRemoteDescription(pion.SessionDescription{
				Type: pion.SDPTypeAnswer, SDP: msg.SDP,
			}); err != nil {
				return err
			}

		case msgTypeCandidate:
			var init pion.ICECandidateInit
			if err := json.Unmarshal([]byte(msg.Candidate), &init); err != nil {
				return fmt.Errorf("bad ICE candidate: %w", err)
			}
			if err := ch.AddICECandidate(init); err != nil {
				return err
			}
		}
	}
}
