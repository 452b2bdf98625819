package config

import (
	corelog "github.com/kilianp07/bms12v/core/logger"
)

// LogConfig selects the global log level.
type LogConfig struct {
	Level string `json:"level"`
}

func (c *LogConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

func (c LogConfig) Validate() error {
	_, err := corelog.ParseLevel(c.Level)
	return err
}
