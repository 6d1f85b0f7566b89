package netsim

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/averlon/averlon.net.p2p/internal/protocol"
	"github.com/averlon/averlon.net.p2p/internal/socket"
	"github.com/averlon/averlon.net.p2p/internal/util"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server serves the simulated transport worker over WebSocket at /ipc.
// Each connection gets its own Session.
type Server struct {
	defaultConfig string
	bindings      []string
	listener      net.Listener
}

// NewServer creates a simulator that hands out defaultConfig during the
// handshake.
func NewServer(defaultConfig string, bindings []string) *Server {
	return &Server{
		defaultConfig: defaultConfig,
		bindings:      bindings,
	}
}

// Start begins listening on addr. Returns the assigned port number.
func (s *Server) Start(addr string) (int, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("failed to start netsim server: %w", err)
	}
	s.listener = listener
	port := listener.Addr().(*net.TCPAddr).Port

	mux := http.NewServeMux()
	mux.HandleFunc("/ipc", s.handleIPC)

	go func() {
		_ = http.Serve(listener, mux)
	}()

	return port, nil
}

// Close shuts down the listener. Live connections end when their peer
// disconnects.
func (s *Server) Close() {
	if s.listener != nil {
		s.listener.Close()
	}
}

// WatchContext closes the server when ctx is cancelled.
func (s *Server) WatchContext(ctx context.Context) {
	go func() {
		<-ctx.Done()
		s.Close()
	}()
}

func (s *Server) handleIPC(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	session := NewSession(s.defaultConfig, s.bindings)
	util.LogInfo("worker connected: %s", r.RemoteAddr)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			util.LogDebug("worker disconnected: %v", err)
			return
		}

		frames, err := socket.UnpackFrames(data)
		if err != nil {
			util.LogDebug("dropping malformed message: %v", err)
			continue
		}

		msg, err := protocol.Decode(frames)
		if err != nil {
			util.LogDebug("dropping bad envelope: %v", err)
			continue
		}

		for _, resp := range session.Handle(msg) {
			respFrames, err := protocol.Encode(resp)
			if err != nil {
				util.LogError("failed to encode response: %v", err)
				continue
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, socket.PackFrames(respFrames)); err != nil {
				util.LogDebug("worker write failed: %v", err)
				return
			}
		}
	}
}
