package metrics

import "github.com/kilianp07/bms12v/core/factory"

// Config defines settings for metrics export.
type Config struct {
	// PrometheusAddress is where /metrics is served; empty disables the server.
	PrometheusAddress string                 `json:"prometheus_address"`
	Sinks             []factory.ModuleConfig `json:"sinks"`
}
