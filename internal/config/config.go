// Package config loads service configuration from the environment.
//
// Configuration comes from environment variables with a .env file as a
// convenience for local development (godotenv.Load is best-effort — a
// missing .env is not an error, matching how production deployments pass
// real environment variables instead).
package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DefaultPorts is the candidate list tried in order when PORT is unset.
// The server binds the first one that is free.
var DefaultPorts = []int{9000, 9001, 9002, 9003, 9004, 9005}

// Config holds all service configuration.
type Config struct {
	// Port is the fixed listening port. Zero means "walk DefaultPorts".
	Port int
	// DBPath is the SQLite database file path (":memory:" for tests).
	DBPath string
	// JWTSecret signs and verifies session tokens. Required, min 16 chars.
	JWTSecret string
	// StaticDir holds the client HTML/JS pages served at /.
	StaticDir string
	// BcryptCost is the password hashing work factor.
	BcryptCost int
}

// Load reads the .env file (if present) and the environment.
//
// It returns an error only for configuration the server cannot run
// without: a missing JWT secret, or a malformed numeric value.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:     getenv("DB_PATH", "data/medora.db"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		StaticDir:  getenv("STATIC_DIR", "public"),
		BcryptCost: 10,
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET must be set")
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New("config: PORT must be an integer")
		}
		cfg.Port = port
	}

	if v := os.Getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New("config: BCRYPT_COST must be an integer")
		}
		cfg.BcryptCost = cost
	}

	return cfg, nil
}

// Ports returns the list of ports to try binding, in order.
func (c *Config) Ports() []int {
	if c.Port != 0 {
		return []int{c.Port}
	}
	return DefaultPorts
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
