package mbp

import (
	"github.com/marvin21/MBP/internal/app/config"
)

// Config aliases so embedders can build or load a runtime configuration
// without reaching into internal packages.
type (
	Config           = config.Config
	PostgresConfig   = config.PostgresConfig
	DeploymentConfig = config.DeploymentConfig
	MetricsConfig    = config.MetricsConfig
	JournalConfig    = config.JournalConfig
	NoiseConfig      = config.NoiseConfig
	EngineConfig     = config.EngineConfig
)

// LoadConfig reads and validates a YAML runtime configuration.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
