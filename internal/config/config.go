// Package config holds the settings shared by every splitledger command.
package config

import (
	"fmt"
	"time"
)

// Config is bound by kong: flags override environment, environment overrides defaults.
type Config struct {
	DBPath       string        `name:"db" help:"SQLite database path." env:"DB_PATH" default:"./data/ledger.db"`
	LogLevel     string        `help:"Log level (debug, info, warn, error)." env:"LOG_LEVEL" default:"info" enum:"debug,info,warn,error"`
	LogFormat    string        `help:"Log format (text, json)." env:"LOG_FORMAT" default:"text" enum:"text,json"`
	TxMaxRetries int           `help:"Retries for a write transaction that hits a lock conflict." env:"TX_MAX_RETRIES" default:"5"`
	BusyTimeout  time.Duration `help:"How long SQLite waits on a locked database before failing." env:"BUSY_TIMEOUT" default:"5s"`
	JWTSecret    string        `name:"jwt-secret" help:"HS256 secret for bearer tokens." env:"JWT_SECRET"`
	TokenTTL     time.Duration `name:"token-ttl" help:"Lifetime of issued tokens." env:"TOKEN_TTL" default:"24h"`
}

// RequireJWTSecret fails when no token secret is configured.
func (c *Config) RequireJWTSecret() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// Validate checks values kong cannot check on its own.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.TxMaxRetries < 0 {
		return fmt.Errorf("tx-max-retries must not be negative, got %d", c.TxMaxRetries)
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("busy-timeout must not be negative, got %s", c.BusyTimeout)
	}
	return nil
}
