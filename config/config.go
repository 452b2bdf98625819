package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/bms12v/core/bms"
	"github.com/kilianp07/bms12v/core/factory"
	"github.com/kilianp07/bms12v/core/metrics"
	"github.com/kilianp07/bms12v/infra/mqtt"
)

type Config struct {
	Log      LogConfig         `json:"log"`
	Engine   bms.Thresholds    `json:"engine"`
	Physics  bms.PhysicsConfig `json:"physics"`
	Session  SessionConfig     `json:"session"`
	API      APIConfig         `json:"api"`
	Metrics  metrics.Config    `json:"metrics"`
	MQTT     mqtt.Config       `json:"mqtt"`
	Advisory AdvisoryConfig    `json:"advisory"`
	Sentry   SentryConfig      `json:"sentry"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Log.SetDefaults()
	c.Engine.SetDefaults()
	c.Physics.SetDefaults()
	c.Session.SetDefaults()
	c.API.SetDefaults()
	if c.Metrics.PrometheusAddress == "" {
		c.Metrics.PrometheusAddress = ":9100"
	}
	if len(c.Metrics.Sinks) == 0 {
		c.Metrics.Sinks = []factory.ModuleConfig{{Type: "prometheus"}}
	}
	c.MQTT.SetDefaults()
	c.Advisory.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if err := c.Advisory.Validate(); err != nil {
		return fmt.Errorf("advisory: %w", err)
	}
	return nil
}

// Load reads a YAML or JSON file, applies K_ environment overrides, then
// fills defaults and validates. An empty path loads defaults and the
// environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
