package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// NOTE: all origins allowed for now
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	HEARTBEAT_INTERVAL = 30 * time.Second
	HEARTBEAT_TIMEOUT  = 45 * time.Second

	WRITE_TIMEOUT = 10 * time.Second
)

var heartbeatHandler = func(conn *websocket.Conn) func(string) error {
	return func(string) error {
		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		return nil
	}
}
