// Package config loads the application configuration from environment
// variables, optionally layered over a YAML file. All secrets and connection
// settings flow through here and are passed into service construction; there
// are no module-level constants.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds every tunable of the process.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" env-default:"info" yaml:"logLevel"`

	HTTP struct {
		// Addr is the address and port the HTTP server listens on.
		Addr string `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
		// ReadTimeout bounds reading the entire request, including the body.
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// WriteTimeout bounds writing the response.
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"1m" yaml:"writeTimeout"`
		// AuthRateLimit is the per-IP request cap per minute on the
		// register/login endpoints.
		AuthRateLimit int `env:"HTTP_AUTH_RATE_LIMIT" env-default:"10" yaml:"authRateLimit"`
		// CORSOrigins is the allowed origins list, comma separated.
		CORSOrigins string `env:"HTTP_CORS_ORIGINS" env-default:"*" yaml:"corsOrigins"`
	} `yaml:"http"`

	Database struct {
		// Path is the SQLite database file path.
		Path string `env:"DB_PATH" env-default:"./data/tripledger.db" yaml:"path"`
	} `yaml:"database"`

	Auth struct {
		// JWTSecret signs session tokens. Required; no default.
		JWTSecret string `env:"JWT_SECRET" env-required:"true" yaml:"jwtSecret"`
		// TokenTTL is how long issued tokens remain valid.
		TokenTTL time.Duration `env:"TOKEN_TTL" env-default:"24h" yaml:"tokenTTL"`
	} `yaml:"auth"`

	// GracefulShutdownTimeout bounds waiting for in-flight requests on shutdown.
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"`
}

// Load reads configuration from the YAML file at path (if path is non-empty)
// and the environment, environment taking precedence.
func Load(path string) (*Config, error) {
	var cfg Config

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	return &cfg, nil
}
