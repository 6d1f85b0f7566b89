package ipc_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/averlon/averlon.net.p2p/internal/ipc"
	"github.com/averlon/averlon.net.p2p/internal/protocol"
	"github.com/averlon/averlon.net.p2p/internal/relay"
	"github.com/averlon/averlon.net.p2p/internal/socket"
	"github.com/averlon/averlon.net.p2p/internal/util"
)

func TestParseConfig(t *testing.T) {
	testCases := []struct {
		name    string
		blob    string
		want    ipc.Config
		wantErr bool
	}{
		{
			name: "valid",
			blob: `{"socketType":"websocket","ipcUri":"ws://127.0.0.1:8900/ipc","blockConnect":true}`,
			want: ipc.Config{SocketType: "websocket", IPCURI: "ws://127.0.0.1:8900/ipc", BlockConnect: true},
		},
		{
			name: "blockConnect defaults off",
			blob: `{"socketType":"websocket","ipcUri":"ws://127.0.0.1:8900/ipc"}`,
			want: ipc.Config{SocketType: "websocket", IPCURI: "ws://127.0.0.1:8900/ipc"},
		},
		{
			name:    "malformed json",
			blob:    `{"socketType":`,
			wantErr: true,
		},
		{
			name:    "unsupported socket type",
			blob:    `{"socketType":"zmq","ipcUri":"tcp://127.0.0.1:8900"}`,
			wantErr: true,
		},
		{
			name:    "missing uri",
			blob:    `{"socketType":"websocket"}`,
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ipc.ParseConfig([]byte(tc.blob))
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseConfig failed: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("config mismatch: got %#v, want %#v", got, tc.want)
			}
		})
	}
}

// TestNewRejectsBadConfig verifies construction fails on a bad blob
// before any connection attempt.
func TestNewRejectsBadConfig(t *testing.T) {
	sink := relay.SinkFunc(func(protocol.Message) error { return nil })

	if _, err := ipc.New(sink, []byte(`{"socketType":"carrier-pigeon"}`)); err == nil {
		t.Fatal("expected config error, got nil")
	}
}

// TestNewConnectFailure verifies an unreachable endpoint surfaces as a
// construction error rather than a wedged worker.
func TestNewConnectFailure(t *testing.T) {
	sink := relay.SinkFunc(func(protocol.Message) error { return nil })
	blob := []byte(`{"socketType":"websocket","ipcUri":"ws://127.0.0.1:1/ipc"}`)

	if _, err := ipc.New(sink, blob); err == nil {
		t.Fatal("expected connect error, got nil")
	}
}

// TestBlockConnectWaitsForResponse verifies the blocking-connect probe:
// construction pings the remote, waits for its reply, and the reply is
// handled like any other inbound message.
func TestBlockConnectWaitsForResponse(t *testing.T) {
	sock, inject, sent := socket.MakeTestChannels()
	msgs := make(chan protocol.Message, 8)

	// Answer the connect ping before construction so the bounded wait
	// returns immediately.
	reply := protocol.Pong{Orig: util.Millis(), Recv: util.Millis()}
	frames, err := protocol.Encode(reply)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	inject <- frames

	w, err := ipc.NewWithSocket(relay.SinkFunc(func(m protocol.Message) error {
		msgs <- m
		return nil
	}), sock, true)
	if err != nil {
		t.Fatalf("NewWithSocket failed: %v", err)
	}
	defer w.Stop()

	// The connect ping went out on the wire.
	select {
	case out := <-sent:
		if string(out[2]) != protocol.MethodPing {
			t.Fatalf("expected a connect ping, got %q", out[2])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no connect ping was sent")
	}

	// The reply consumed during connect was not dropped: it surfaces on
	// the owner's sink once ticking starts.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := w.Tick(); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}

		select {
		case m := <-msgs:
			if !reflect.DeepEqual(m, reply) {
				t.Fatalf("connect reply mismatch: %#v", m)
			}
			return
		default:
		}

		if time.Now().After(deadline) {
			t.Fatal("connect reply was not forwarded")
		}
		time.Sleep(time.Millisecond)
	}
}
