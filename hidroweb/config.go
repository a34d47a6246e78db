package hidroweb

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"time"
)

// DefaultBaseURL points at the telemetric station tree of the Hidroweb service
const DefaultBaseURL = "https://www.ana.gov.br/hidrowebservice/EstacoesTelemetricas/"

// Config represents the client configuration structure
type Config struct {
	BaseURL    string        `envconfig:"BASE_URL" default:"https://www.ana.gov.br/hidrowebservice/EstacoesTelemetricas/"`
	User       string        `envconfig:"USER" default:"user"`
	Password   string        `envconfig:"PASSWORD" default:"password"`
	Timeout    time.Duration `envconfig:"TIMEOUT" default:"30s"`
	MaxRetries int           `envconfig:"MAX_RETRIES" default:"3"`
}

// LoadConfigFromEnv loads a new configuration structure using HIDROWEB_* environment variables and an optional .env file
func LoadConfigFromEnv() (*Config, error) {
	// Load a .env file if it exists
	_ = godotenv.Overload()

	// Load a new configuration structure using environment variables
	config := new(Config)
	if err := envconfig.Process("hidroweb", config); err != nil {
		return nil, err
	}
	return config, nil
}
