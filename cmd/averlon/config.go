package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/averlon/averlon.net.p2p/internal/ipc"
)

// fileConfig is the TOML config file for the node front end. It maps
// onto the worker's JSON construction blob plus CLI-level settings.
//
//	socketType   = "websocket"
//	ipcUri       = "ws://127.0.0.1:8900/ipc"
//	blockConnect = false
//	debug        = false
type fileConfig struct {
	SocketType   string `toml:"socketType"`
	IPCURI       string `toml:"ipcUri"`
	BlockConnect bool   `toml:"blockConnect"`
	Debug        bool   `toml:"debug"`
}

// loadConfig reads and decodes a TOML config file.
func loadConfig(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg fileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return fileConfig{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// blob converts the file config into the worker's JSON construction
// blob. Validation happens in ipc.ParseConfig, not here.
func (c fileConfig) blob() ([]byte, error) {
	return json.Marshal(ipc.Config{
		SocketType:   c.SocketType,
		IPCURI:       c.IPCURI,
		BlockConnect: c.BlockConnect,
	})
}
