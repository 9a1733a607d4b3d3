package params

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/uhyunpark/ledgerreplay/pkg/app/core/transaction"
)

type Log struct {
	Level string // debug, info, warn, error
	File  string // Optional: tee JSON logs to this file
}

type Store struct {
	// Backend for the transaction index: "memory" or "pebble"
	// Pebble keeps the index on disk for inputs with very large tx id sets;
	// its directory is scratch space removed at the end of the run.
	Backend string
	Dir     string // Parent directory for pebble scratch data ("" = OS temp dir)
}

type Ledger struct {
	// FreezeLocked rejects deposits and withdrawals on accounts locked by a chargeback
	FreezeLocked bool
}

type API struct {
	Addr           string
	AllowedOrigins []string
	MaxBodyBytes   int64
}

type Config struct {
	Log    Log
	Store  Store
	Ledger Ledger
	API    API
}

func Default() Config {
	return Config{
		Log: Log{
			Level: "info",
		},
		Store: Store{
			Backend: transaction.BackendMemory,
		},
		API: API{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
			MaxBodyBytes:   64 << 20, // 64MB
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// Try to load .env file (optional - won't fail if not exists)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)

	cfg.Store.Backend = strings.ToLower(getEnv("TX_STORE", cfg.Store.Backend))
	cfg.Store.Dir = getEnv("TX_STORE_DIR", cfg.Store.Dir)

	if freeze := os.Getenv("FREEZE_LOCKED_ACCOUNTS"); freeze != "" {
		if v, err := strconv.ParseBool(freeze); err == nil {
			cfg.Ledger.FreezeLocked = v
		}
	}

	cfg.API.Addr = getEnv("API_ADDR", cfg.API.Addr)

	// Example: "http://localhost:3000,https://ops.example.com"
	if origins := os.Getenv("API_ALLOWED_ORIGINS"); origins != "" {
		cfg.API.AllowedOrigins = splitList(origins)
	}

	if maxBody := os.Getenv("API_MAX_BODY_BYTES"); maxBody != "" {
		if n, err := strconv.ParseInt(maxBody, 10, 64); err == nil && n > 0 {
			cfg.API.MaxBodyBytes = n
		}
	}

	return cfg
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
