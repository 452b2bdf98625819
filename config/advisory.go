package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/bms12v/auth"
)

// AdvisoryConfig configures the text-generation client.
type AdvisoryConfig struct {
	Enabled           *bool   `json:"enabled"`
	BaseURL           string  `json:"base_url"`
	APIKey            string  `json:"api_key"`
	Model             string  `json:"model"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	RequestsPerMinute float64 `json:"requests_per_minute"`
	// OAuth replaces the API key with a bearer token when its token_url is set.
	OAuth auth.Conf `json:"oauth"`
}

func (c *AdvisoryConfig) SetDefaults() {
	if c.Enabled == nil {
		on := true
		c.Enabled = &on
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if c.Model == "" {
		c.Model = "gemini-2.5-flash"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 15
	}
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = 6
	}
}

// Credentialed reports whether an API key or an OAuth client is configured.
func (c AdvisoryConfig) Credentialed() bool { return c.APIKey != "" || c.OAuth.Enabled() }

// On reports whether advisory requests are allowed at all.
func (c AdvisoryConfig) On() bool { return c.Enabled == nil || *c.Enabled }

func (c AdvisoryConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c AdvisoryConfig) Validate() error {
	if c.On() && c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if c.OAuth.Enabled() && c.OAuth.ClientID == "" {
		return fmt.Errorf("oauth.client_id is required when oauth.token_url is set")
	}
	return nil
}
