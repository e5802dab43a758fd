// Package config builds process configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	PostgresDSN   string
	RedisURL      string
	JWTSigningKey string

	ShutdownGrace time.Duration
}

// FromEnv builds a Server config from environment variables. Empty
// PostgresDSN or RedisURL selects the in-memory twins.
func FromEnv() Server {
	addr := os.Getenv("DEALGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("DEALGATE_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          addr,
		PostgresDSN:   os.Getenv("DEALGATE_POSTGRES_DSN"),
		RedisURL:      os.Getenv("DEALGATE_REDIS_URL"),
		JWTSigningKey: jwtSigningKey,
		ShutdownGrace: 10 * time.Second,
	}
}
