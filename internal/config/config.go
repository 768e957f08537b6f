package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime settings, populated from the environment.
type Config struct {
	Port string `envconfig:"PORT" default:"8080"`

	DatabaseURL          string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxOpenConns       int    `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	DBMaxIdleConns       int    `envconfig:"DB_MAX_IDLE_CONNS" default:"25"`
	DBConnMaxLifetimeMin int    `envconfig:"DB_CONN_MAX_LIFETIME_MINUTES" default:"5"`

	RedisURL      string `envconfig:"REDIS_URL" default:""`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	FrontendURL    string   `envconfig:"FRONTEND_URL" default:"http://localhost:5173"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`

	// Session cache entry lifetime; terminal sessions are kept longer since
	// they can no longer change.
	SessionCacheTTLMin         int `envconfig:"SESSION_CACHE_TTL_MINUTES" default:"10"`
	SessionCacheTerminalTTLMin int `envconfig:"SESSION_CACHE_TERMINAL_TTL_MINUTES" default:"60"`

	// Idle per-session lock entries older than this are swept from memory.
	SessionLockTTLMin int `envconfig:"SESSION_LOCK_TTL_MINUTES" default:"60"`
}

// Load reads .env if present and resolves the configuration from the
// environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	// Frontend URL is always an allowed origin.
	if cfg.FrontendURL != "" {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, cfg.FrontendURL)
	}

	return &cfg, nil
}
