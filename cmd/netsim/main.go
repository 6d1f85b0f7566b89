// Netsim — simulated transport worker.
//
// Runs a WebSocket server that speaks the remote side of the session
// handshake (state reports, default config, ping/pong), for developing
// and demoing the node without a real transport stack.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/pterm/pterm"

	"github.com/averlon/averlon.net.p2p/internal/netsim"
	"github.com/averlon/averlon.net.p2p/internal/util"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	addr := flag.String("addr", "127.0.0.1:8900", "Listen address")
	defaultConfig := flag.String("defaultConfig", `{"network":"sim"}`, "Config blob handed out during the handshake")
	bindings := flag.String("bindings", "sim://localhost", "Comma-separated binding addresses advertised when ready")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debugMode {
		util.EnableDebug()
	}

	pterm.Info.Println(fmt.Sprintf("Netsim — v%s", version))

	srv := netsim.NewServer(*defaultConfig, strings.Split(*bindings, ","))
	port, err := srv.Start(*addr)
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}
	srv.WatchContext(ctx)

	util.LogSuccess("simulated transport worker listening on port %d (endpoint /ipc)", port)

	<-ctx.Done()
	util.LogInfo("netsim stopped")
}
