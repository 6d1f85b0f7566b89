// Averlon — node session-layer entry point.
//
// This tool runs the network-facing session layer of an Averlon node:
// it connects to an out-of-process transport worker (or directly to a
// peer over WebRTC), walks the configuration handshake, and relays
// protocol traffic until interrupted.
//
// It can be launched interactively (no flags), from a TOML config file
// (-config), or fully via CLI flags (-uri, -block, -mode).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/pterm/pterm"

	"github.com/averlon/averlon.net.p2p/internal/ipc"
	"github.com/averlon/averlon.net.p2p/internal/node"
	"github.com/averlon/averlon.net.p2p/internal/protocol"
	"github.com/averlon/averlon.net.p2p/internal/relay"
	"github.com/averlon/averlon.net.p2p/internal/signaling"
	"github.com/averlon/averlon.net.p2p/internal/socket"
	"github.com/averlon/averlon.net.p2p/internal/util"
)

var version = "dev"

func main() {
	// Root context — cancelled on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// CLI flags.
	mode := flag.String("mode", "ipc", "Mode: ipc (transport worker), peer-host, or peer-join")
	configPath := flag.String("config", "", "Path to TOML config file (ipc mode)")
	uri := flag.String("uri", "", "Transport worker WebSocket URI (ipc) or signaling URL (peer-join)")
	block := flag.Bool("block", false, "Block until the transport responds to the first ping (ipc mode)")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debugMode {
		util.EnableDebug()
	}

	pterm.Info.Println(fmt.Sprintf("Averlon — v%s", version))
	pterm.Println()

	n := node.New()

	var w *ipc.Worker
	var err error

	switch *mode {
	case "ipc":
		w, err = buildIPCWorker(n.Sink(), *configPath, *uri, *block)

	case "peer-host":
		w, err = buildHostWorker(ctx, n.Sink())

	case "peer-join":
		joinURL := *uri
		if joinURL == "" {
			joinURL = askURL("Signaling URL (e.g. ws://host:port/ws?pin=1234)")
		}
		w, err = buildJoinWorker(ctx, n.Sink(), joinURL)

	default:
		util.LogError("invalid -mode: must be 'ipc', 'peer-host', or 'peer-join'")
		os.Exit(1)
	}

	if err != nil {
		util.LogError("failed to create net worker: %v", err)
		os.Exit(1)
	}

	n.Bind(w)
	util.StartStatsReporter(ctx)
	go watchMessages(ctx, n)

	if err := n.Run(ctx); err != nil {
		util.LogError("session ended with error: %v", err)
		os.Exit(1)
	}

	util.LogInfo("session closed")
}

// ---------------------------------------------------------------------------
// Worker construction
// ---------------------------------------------------------------------------

// buildIPCWorker assembles the production worker from a config file,
// flags, or interactive prompts, in that order of preference.
func buildIPCWorker(sink relay.Sink, configPath, uri string, block bool) (*ipc.Worker, error) {
	if configPath != "" {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return nil, err
		}
		if cfg.Debug {
			util.EnableDebug()
		}
		blob, err := cfg.blob()
		if err != nil {
			return nil, err
		}
		return ipc.New(sink, blob)
	}

	if uri == "" {
		uri = askURL("Transport worker URI (e.g. ws://127.0.0.1:8900/ipc)")
	}

	blob, err := fileConfig{
		SocketType:   ipc.SocketTypeWS,
		IPCURI:       uri,
		BlockConnect: block,
	}.blob()
	if err != nil {
		return nil, err
	}
	return ipc.New(sink, blob)
}

// buildHostWorker hosts a signaling rendezvous and wraps the resulting
// DataChannel as the worker's transport.
func buildHostWorker(ctx context.Context, sink relay.Sink) (*ipc.Worker, error) {
	ch, err := signaling.EstablishAsHost(ctx, ":0", printHostInfo)
	if err != nil {
		return nil, err
	}
	return ipc.NewWithSocket(sink, socket.NewRTCSocketWithChannel(ch), false)
}

// buildJoinWorker dials a peer's signaling endpoint and wraps the
// resulting DataChannel as the worker's transport.
func buildJoinWorker(ctx context.Context, sink relay.Sink, joinURL string) (*ipc.Worker, error) {
	sock := socket.NewRTCSocket(ctx)
	if err := sock.Connect(joinURL); err != nil {
		return nil, err
	}
	return ipc.NewWithSocket(sink, sock, false)
}

// ---------------------------------------------------------------------------
// Message watching
// ---------------------------------------------------------------------------

// watchMessages logs the control-plane traffic the worker forwards
// upward. A real application would consume this stream instead.
func watchMessages(ctx context.Context, n *node.Node) {
	for {
		select {
		case msg := <-n.Messages():
			switch m := msg.(type) {
			case protocol.Pong:
				util.LogDebug("pong: round trip %.1f ms", util.Millis()-m.Orig)
			case protocol.P2PReady:
				// Already logged by the node's readiness gate.
			case protocol.JSON:
				if ctl, ok := protocol.ParseControl(m); ok {
					if s, isState := ctl.(protocol.State); isState {
						util.LogInfo("remote state: %s (id=%s, bindings=%v)", s.State, s.ID, s.Bindings)
					}
				}
			default:
				util.LogDebug("message: %s", msg.Method())
			}

		case <-ctx.Done():
			return
		}
	}
}

// ---------------------------------------------------------------------------
// Helper Functions
// ---------------------------------------------------------------------------

// printHostInfo shows the rendezvous coordinates for the joining peer.
func printHostInfo(info signaling.HostInfo) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════╗")
	fmt.Println("║        WebSocket Signaling Server        ║")
	fmt.Println("╠══════════════════════════════════════════╣")
	fmt.Printf("║  Port : %-32d ║\n", info.Port)
	fmt.Printf("║  PIN  : %-32s ║\n", info.PIN)
	fmt.Println("╚══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Println("Waiting for peer...")
}

// askURL prompts the user for a non-empty URL.
func askURL(prompt string) string {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText(prompt).
			Show()

		raw = strings.TrimSpace(raw)
		if raw != "" {
			pterm.Println()
			return raw
		}

		util.LogWarning("invalid input: please enter a URL")
		pterm.Println()
	}
}
