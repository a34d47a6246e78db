package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"strings"
	"time"
)

// Config represents the proxy daemon configuration structure
type Config struct {
	Environment              string        `envconfig:"ENVIRONMENT" default:"dev"`
	ListenAddress            string        `envconfig:"LISTEN_ADDRESS" default:":8081"`
	PostgresDSN              string        `envconfig:"POSTGRES_DSN"`
	InventoryRefreshInterval time.Duration `envconfig:"INVENTORY_REFRESH_INTERVAL" default:"6h"`
	SeriesCacheLifetime      time.Duration `envconfig:"SERIES_CACHE_LIFETIME" default:"10m"`
}

// LoadFromEnv loads a new configuration structure using HIDROWEBD_* environment variables and an optional .env file
func LoadFromEnv() (*Config, error) {
	// Load a .env file if it exists
	_ = godotenv.Overload()

	// Load a new configuration structure using environment variables
	config := new(Config)
	if err := envconfig.Process("hidrowebd", config); err != nil {
		return nil, err
	}
	return config, nil
}

// IsEnvProduction returns whether the daemon runs in a production environment
func (config *Config) IsEnvProduction() bool {
	env := strings.ToLower(config.Environment)
	return env == "prod" || env == "production"
}
