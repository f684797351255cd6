/*
Package handler provides the HTTP handlers and routing setup for the SocialeX chat server.

This file defines the main Router, applying necessary middleware like logging, CORS,
and IP-based rate limiting before delegating requests to specific handlers (REST and WebSocket).
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"socialex/internal/pkg/auth/jwt"
	"socialex/internal/pkg/limiter"
	"socialex/internal/pkg/logx"
	"socialex/internal/pkg/resp"
)

const (
	StartChatRate  = 0.5
	StartChatBurst = 10
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global and per-route middleware.
func Router(deps *AppDeps) http.Handler {
	startChatLimiter := limiter.NewIPRateLimiter(rate.Limit(StartChatRate), StartChatBurst)
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(deps.Config.WSConnectRate), deps.Config.WSConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"status":      "ok",
			"service":     "SocialeX Chat Server",
			"onlineUsers": deps.Hub.OnlineCount(),
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(rt chi.Router) {
		rt.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		rt.Route("/api/chats", func(chats chi.Router) {
			chats.Use(jwt.RequireIdentity)

			chats.Get("/", HandleListChats(deps))
			chats.With(startChatLimiter.Middleware).Post("/", HandleStartChat(deps))
			chats.Get("/{chatId}/messages", HandleGetMessages(deps))
			chats.Delete("/{chatId}", HandleDeleteChat(deps))
		})

		rt.Get("/ws", HandleWebSocket(wsUpgrader, connectLimiter, deps))
	})

	return r
}
