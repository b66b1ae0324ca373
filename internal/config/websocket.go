package config

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

type WebSocket struct {
	Upgrader  websocket.Upgrader
	ReadLimit int64
	IdleTime  time.Duration
}

func NewWebSocket() (*WebSocket, error) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	ws := &WebSocket{
		Upgrader:  upgrader,
		ReadLimit: int64(lookupInt("WS_READ_LIMIT", 4096)),
		IdleTime:  time.Duration(lookupInt("WS_IDLE_SECONDS", 300)) * time.Second,
	}

	return ws, nil
}
