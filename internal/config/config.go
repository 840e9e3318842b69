// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds every tunable the server needs. Values come from environment
// variables; in development a .env file in the working directory is loaded
// first.
//
// SESSION_SECRETS is required and fatal when missing — a server that cannot
// sign sessions must not start. It is a comma-separated list to support
// rotation: the first secret signs new cookies, every listed secret is tried
// when verifying old ones.
type Config struct {
	Port           int      `env:"PORT" envDefault:"8080"`
	DBPath         string   `env:"DB_PATH" envDefault:"data/jokes.db"`
	SessionSecrets []string `env:"SESSION_SECRETS,required" envSeparator:","`
	SecureCookies  bool     `env:"SECURE_COOKIES"` // enable outside local development
	TemplateDir    string   `env:"TEMPLATE_DIR" envDefault:"web/templates"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"` // debug, info, warn, error
}

// Load reads the optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("config: loading .env: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}

	return cfg, nil
}
