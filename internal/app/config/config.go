package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/marvin21/MBP/internal/adapters/mqtt"
	"github.com/marvin21/MBP/internal/adapters/opcua"
	"github.com/marvin21/MBP/internal/noise"
)

type Config struct {
	MQTT       mqtt.Config      `yaml:"mqtt"`
	OPCUA      *opcua.Config    `yaml:"opcua"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Deployment DeploymentConfig `yaml:"deployment"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Journal    JournalConfig    `yaml:"journal"`
	Noise      NoiseConfig      `yaml:"noise"`
	Engine     EngineConfig     `yaml:"engine"`
}

type PostgresConfig struct {
	ConnString string `yaml:"conn_string"`
}

type DeploymentConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type JournalConfig struct {
	Dir string `yaml:"dir"`
}

type NoiseConfig struct {
	LightOffset float64 `yaml:"light_offset"`
	DistanceMin float64 `yaml:"distance_min"`
	DistanceMax float64 `yaml:"distance_max"`
}

type EngineConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxWait      time.Duration `yaml:"max_wait"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.MQTT.ApplyDefaults()
	if c.OPCUA != nil {
		c.OPCUA.ApplyDefaults()
	}
	if c.Deployment.Timeout <= 0 {
		c.Deployment.Timeout = 10 * time.Second
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Journal.Dir == "" {
		c.Journal.Dir = "./data/journal"
	}

	def := noise.DefaultPolicy()
	if c.Noise.LightOffset == 0 {
		c.Noise.LightOffset = def.LightOffset
	}
	if c.Noise.DistanceMin == 0 && c.Noise.DistanceMax == 0 {
		c.Noise.DistanceMin = def.DistanceMin
		c.Noise.DistanceMax = def.DistanceMax
	}
	if c.Engine.PollInterval <= 0 {
		c.Engine.PollInterval = 500 * time.Millisecond
	}
	if c.Engine.MaxWait <= 0 {
		c.Engine.MaxWait = 5 * time.Minute
	}
}

func (c *Config) validate() error {
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt config: %w", err)
	}
	if c.OPCUA != nil {
		if err := c.OPCUA.Validate(); err != nil {
			return fmt.Errorf("opcua config: %w", err)
		}
	}
	if c.Postgres.ConnString == "" {
		return fmt.Errorf("postgres.conn_string is required")
	}
	if c.Deployment.BaseURL == "" {
		return fmt.Errorf("deployment.base_url is required")
	}
	if _, err := c.NoisePolicy(); err != nil {
		return fmt.Errorf("noise config: %w", err)
	}
	return nil
}

// NoisePolicy materializes the anonymization bounds the receiver runs with.
func (c *Config) NoisePolicy() (noise.Policy, error) {
	return noise.NewPolicy(c.Noise.LightOffset, c.Noise.DistanceMin, c.Noise.DistanceMax)
}
