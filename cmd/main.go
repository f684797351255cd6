/*
Package main is the entry point for the SocialeX chat server.

It is responsible for loading configuration, initializing the global logging system,
opening the stores, starting the realtime Hub, serving HTTP and WebSocket traffic,
and gracefully handling operating system interrupt signals (SIGINT, SIGTERM)
to ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"socialex/internal/app/conversation"
	"socialex/internal/app/db"
	"socialex/internal/app/realtime"
	"socialex/internal/app/user"
	"socialex/internal/configs"
	"socialex/internal/handler"
	"socialex/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("presence_audience", string(cfg.PresenceAudience)).
		Bool("enforce_room_membership", cfg.EnforceRoomMembership).
		Bool("in_memory_stores", cfg.DatabaseDSN == "").
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, convs, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		logx.Fatal(err, "Failed to open stores")
	}
	defer closeStores()

	// Initialize the realtime hub
	hub := realtime.NewHub(users, convs, realtime.HubConfig{
		Audience:              cfg.PresenceAudience,
		EnforceRoomMembership: cfg.EnforceRoomMembership,
		StoreTimeout:          cfg.StoreTimeout,
	})

	// Setup HTTP server and routes
	router := handler.Router(&handler.AppDeps{
		Hub:    hub,
		Config: cfg,
		Users:  users,
		Convs:  convs,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("SocialeX Chat Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	// Hijacked WebSocket connections are not tracked by the HTTP server.
	hub.Shutdown()

	logx.Info("Server gracefully stopped.")
}

// openStores returns the PostgreSQL stores when a DSN is configured, and seeded in-memory
// stores otherwise.
func openStores(ctx context.Context, cfg *configs.AppConfig) (user.Store, conversation.Store, func(), error) {
	if cfg.DatabaseDSN == "" {
		users := user.NewMemoryStore()
		user.SeedDevelopment(users)
		logx.Warn("DATABASE_URL not set: using in-memory stores with development seed data")
		return users, conversation.NewMemoryStore(), func() {}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, nil, err
	}

	return user.NewPgStore(pool), conversation.NewPgStore(pool), pool.Close, nil
}
