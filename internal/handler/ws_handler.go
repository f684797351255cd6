/*
Package handler provides the HTTP handler function for WebSocket connection upgrading.

HandleWebSocket rate limits the upgrade, binds the optional token identity to the new
connection, and hands the connection to the realtime hub for its whole lifetime.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"socialex/internal/app/realtime"
	"socialex/internal/pkg/auth/jwt"
	"socialex/internal/pkg/errs"
	"socialex/internal/pkg/limiter"
	"socialex/internal/pkg/logx"
	"socialex/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
// A valid token pins the connection to the token's user; without one the client may announce
// any identity with user-connect.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.Allow(ip) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		pinned := ""
		if identity := jwt.GetPayloadFromContext(r); identity != nil {
			pinned = identity.UserID
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := realtime.NewClient(conn)
		session := deps.Hub.NewSession(client, pinned)

		logx.Info("WebSocket connection established", "conn_id", client.ID(), "pinned_user_id", pinned)

		client.Serve(deps.Hub, session)
	}
}
