package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	RPCURL     string `envconfig:"SOLCLAIM_RPC_URL" default:"https://api.mainnet-beta.solana.com"`
	BackupRPCs string `envconfig:"SOLCLAIM_BACKUP_RPCS" default:"https://rpc.ankr.com/solana,https://solana-api.projectserum.com"`

	DBPath   string `envconfig:"SOLCLAIM_DB_PATH" default:"./data/solclaim.sqlite"`
	Port     int    `envconfig:"SOLCLAIM_PORT" default:"8080"`
	LogLevel string `envconfig:"SOLCLAIM_LOG_LEVEL" default:"info"`
	LogDir   string `envconfig:"SOLCLAIM_LOG_DIR" default:"./logs"`

	BatchDelayMs int `envconfig:"SOLCLAIM_BATCH_DELAY_MS" default:"1000"`

	SolscanBaseURL      string `envconfig:"SOLCLAIM_SOLSCAN_URL" default:"https://public-api.solscan.io"`
	JupiterTokenBaseURL string `envconfig:"SOLCLAIM_JUPITER_TOKEN_URL" default:"https://token.jup.ag"`
	JupiterPriceBaseURL string `envconfig:"SOLCLAIM_JUPITER_PRICE_URL" default:"https://price.jup.ag"`
	MetaplexBaseURL     string `envconfig:"SOLCLAIM_METAPLEX_URL" default:"https://api.metaplex.solana.com"`
}

// Load reads configuration from .env file (if present) then from environment variables.
// Environment variables override .env values.
func Load() (*Config, error) {
	// Load .env file if it exists. godotenv does NOT override already-set env vars,
	// so real environment variables take precedence over .env values.
	envFiles := []string{".env"}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				slog.Warn("failed to load .env file", "file", f, "error", err)
			} else {
				slog.Info("loaded .env file", "file", f)
			}
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port must be 1-65535, got %d", ErrInvalidConfig, c.Port)
	}
	if c.BatchDelayMs < 0 {
		return fmt.Errorf("%w: batch delay must be >= 0, got %d", ErrInvalidConfig, c.BatchDelayMs)
	}
	if c.RPCURL == "" {
		return fmt.Errorf("%w: RPC URL must not be empty", ErrInvalidConfig)
	}
	return nil
}

// RPCEndpoints returns the ordered endpoint list: primary first, then backups.
func (c *Config) RPCEndpoints() []string {
	endpoints := []string{c.RPCURL}
	for _, u := range strings.Split(c.BackupRPCs, ",") {
		u = strings.TrimSpace(u)
		if u != "" {
			endpoints = append(endpoints, u)
		}
	}
	return endpoints
}
