package config

import "fmt"

// APIConfig configures the HTTP API.
type APIConfig struct {
	Enabled     *bool    `json:"enabled"`
	Address     string   `json:"address"`
	CORSOrigins []string `json:"cors_origins"`
}

func (c *APIConfig) SetDefaults() {
	if c.Enabled == nil {
		on := true
		c.Enabled = &on
	}
	if c.Address == "" {
		c.Address = ":8080"
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
}

// On reports whether the API server should run.
func (c APIConfig) On() bool { return c.Enabled == nil || *c.Enabled }

func (c APIConfig) Validate() error {
	if c.On() && c.Address == "" {
		return fmt.Errorf("address is required")
	}
	return nil
}
