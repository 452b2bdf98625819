package metrics_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/bms12v/core/factory"
	metrics "github.com/kilianp07/bms12v/core/metrics"
	_ "github.com/kilianp07/bms12v/infra/metrics"
)

func TestMetricsFactory_Builtins(t *testing.T) {
	s, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}})
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "missing"}})
	assert.ErrorIs(t, err, factory.ErrUnknownType)

	assert.Subset(t, metrics.SinkTypes(), []string{"nop", "prometheus", "influx", "kafka"})
}

func TestNewMetricsSink_Multi(t *testing.T) {
	s, err := metrics.NewMetricsSink(nil)
	require.NoError(t, err)
	assert.IsType(t, metrics.NopSink{}, s)

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}})
	require.NoError(t, err)
	m, ok := s.(*metrics.MultiSink)
	require.True(t, ok, "expected MultiSink, got %T", s)
	assert.Len(t, m.Sinks, 2)
}

func TestMetricsConfigDecode(t *testing.T) {
	var cfg metrics.Config
	require.NoError(t, yaml.Unmarshal([]byte("sinks:\n  - type: nop\n  - type: nop\n"), &cfg))
	s, err := metrics.NewMetricsSink(cfg.Sinks)
	require.NoError(t, err)
	assert.IsType(t, &metrics.MultiSink{}, s)

	cfg = metrics.Config{}
	require.NoError(t, json.Unmarshal([]byte(`{"prometheus_address":":9100","sinks":[{"type":"missing"}]}`), &cfg))
	assert.Equal(t, ":9100", cfg.PrometheusAddress)
	_, err = metrics.NewMetricsSink(cfg.Sinks)
	assert.Error(t, err)
}
