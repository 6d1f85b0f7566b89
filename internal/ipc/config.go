package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SocketTypeWS is the only transport kind the production constructor
// supports.
const SocketTypeWS = "websocket"

// Config is the construction-time blob for production workers. The
// wire form is JSON, e.g.
//
//	{"socketType": "websocket", "ipcUri": "ws://127.0.0.1:8900/ipc", "blockConnect": false}
type Config struct {
	SocketType   string `json:"socketType"`
	IPCURI       string `json:"ipcUri"`
	BlockConnect bool   `json:"blockConnect"`
}

// ParseConfig validates a construction blob. Missing or mismatched
// required keys fail here, before any I/O is attempted.
func ParseConfig(blob []byte) (Config, error) {
	var c Config
	if err := json.Unmarshal(blob, &c); err != nil {
		return Config{}, fmt.Errorf("bad config blob: %w", err)
	}
	if c.SocketType != SocketTypeWS {
		return Config{}, fmt.Errorf("unexpected socketType: %q", c.SocketType)
	}
	if c.IPCURI == "" {
		return Config{}, errors.New("config.ipcUri is required")
	}
	return c, nil
}
