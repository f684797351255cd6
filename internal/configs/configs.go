/*
Package configs is responsible for loading and parsing the application's configuration settings.

Settings come from operating system environment variables. An optional .env file in the working
directory is loaded first; variables already present in the environment take precedence.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"socialex/internal/app/realtime"
)

const (
	// EnvDevelopment is the default environment. It relaxes origin checks and allows in-memory stores.
	EnvDevelopment = "development"

	// MaxHistoryPageSize caps both HISTORY_PAGE_SIZE and the limit a client may request.
	MaxHistoryPageSize = 200

	defaultDevJWTSecret = "your_default_insecure_secret_key_change_me"
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// Security Settings
	AllowedOrigins []string
	JWTSecret      string

	// Database Settings
	// An empty DSN in development selects the in-memory stores.
	DatabaseDSN  string
	StoreTimeout time.Duration

	// Realtime Settings
	PresenceAudience      realtime.Audience
	EnforceRoomMembership bool
	WSConnectRate         float64
	WSConnectBurst        int

	// REST Settings
	HistoryPageSize int
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// LoadConfig reads and parses the application configuration.
// It provides default values for each configuration item and performs necessary type conversions and validation.
func LoadConfig() (*AppConfig, error) {
	_ = godotenv.Load(".env")
	return loadFromEnv()
}

func loadFromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	// --- General Server Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = EnvDevelopment
	}

	if cfg.Port, err = intEnv("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	// --- Security Settings ---
	cfg.AllowedOrigins = []string{}
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in %s environment for security", cfg.Environment)
		}
		cfg.JWTSecret = defaultDevJWTSecret
	}

	// --- Database Settings ---
	cfg.DatabaseDSN = os.Getenv("DATABASE_URL")
	if cfg.DatabaseDSN == "" && !cfg.IsDevelopment() {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required in %s environment", cfg.Environment)
	}

	if cfg.StoreTimeout, err = durationEnv("STORE_TIMEOUT", realtime.DefaultStoreTimeout); err != nil {
		return nil, err
	}

	// --- Realtime Settings ---
	if cfg.PresenceAudience, err = realtime.ParseAudience(os.Getenv("PRESENCE_AUDIENCE")); err != nil {
		return nil, fmt.Errorf("invalid PRESENCE_AUDIENCE environment variable: %w", err)
	}

	if cfg.EnforceRoomMembership, err = boolEnv("ENFORCE_ROOM_MEMBERSHIP", true); err != nil {
		return nil, err
	}

	if cfg.WSConnectRate, err = floatEnv("WS_CONNECT_RATE", 0.2); err != nil {
		return nil, err
	}
	if cfg.WSConnectBurst, err = intEnv("WS_CONNECT_BURST", 5); err != nil {
		return nil, err
	}
	if cfg.WSConnectRate <= 0 || cfg.WSConnectBurst <= 0 {
		return nil, fmt.Errorf("WS_CONNECT_RATE and WS_CONNECT_BURST must be positive")
	}

	// --- REST Settings ---
	if cfg.HistoryPageSize, err = intEnv("HISTORY_PAGE_SIZE", 50); err != nil {
		return nil, err
	}
	if cfg.HistoryPageSize < 1 || cfg.HistoryPageSize > MaxHistoryPageSize {
		return nil, fmt.Errorf("HISTORY_PAGE_SIZE must be between 1 and %d, got %d", MaxHistoryPageSize, cfg.HistoryPageSize)
	}

	return cfg, nil
}

func intEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func floatEnv(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func boolEnv(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, v)
	}
	return v, nil
}
