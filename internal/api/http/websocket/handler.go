package websocket

import (
	"encoding/json"
	"time"

	"undercover-be/internal/service/game"
	"undercover-be/internal/state"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// Serve upgrades the request and runs the connection's read loop. Every
// parsed envelope goes through the session manager; the read loop ending is
// the transport's liveness signal and triggers the disconnect path.
func Serve(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		conn, err := upgrader.Upgrade(
			ctx.ResponseWriter(),
			ctx.Request(),
			nil,
		)
		if err != nil {
			zap.L().Error("websockets upgrade failed", zap.Error(err))
			ctx.StatusCode(iris.StatusBadRequest)
			return
		}

		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		conn.SetPongHandler(heartbeatHandler(conn))

		client := NewClient(conn)
		clientIP := ctx.RemoteAddr()

		zap.L().Info(
			"websocket connected",
			zap.String("conn_id", client.ID()),
			zap.String("client_ip", clientIP),
		)

		pingDoneCh := make(chan struct{})
		defer close(pingDoneCh)

		// Heartbeat goroutine. WriteControl is safe to call concurrently
		// with the client's WriteJSON.
		go func() {
			ticker := time.NewTicker(HEARTBEAT_INTERVAL)
			defer ticker.Stop()

			for {
				select {
				case <-pingDoneCh:
					return

				case <-ticker.C:
					deadline := time.Now().Add(WRITE_TIMEOUT)
					if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
						zap.L().Debug(
							"ping failed",
							zap.String("conn_id", client.ID()),
							zap.Error(err),
						)
						return
					}
				}
			}
		}()

		// Read loop (main goroutine for this connection).
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(
					err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
					websocket.CloseNormalClosure,
				) {
					zap.L().Warn(
						"websocket read failed",
						zap.String("conn_id", client.ID()),
						zap.Error(err),
					)
				}

				break
			}

			var env game.Envelope

			if err := json.Unmarshal(raw, &env); err != nil {
				zap.L().Debug(
					"malformed envelope",
					zap.String("conn_id", client.ID()),
					zap.Error(err),
				)

				client.Send(game.WrapError(
					game.NewError(game.ERR_BAD_REQUEST, "malformed message"),
				))

				continue
			}

			appState.Sessions.HandleMessage(client, env)
		}

		zap.L().Info(
			"websocket closed",
			zap.String("conn_id", client.ID()),
			zap.String("client_ip", clientIP),
		)

		appState.Sessions.OnDisconnect(client)
	}
}
