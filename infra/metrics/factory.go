package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/bms12v/core/factory"
	coremetrics "github.com/kilianp07/bms12v/core/metrics"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	// The /metrics endpoint is served separately by StartPromServer.
	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		s, err := NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
		if err != nil {
			return nil, err
		}
		return s, nil
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c), nil
	})

	_ = coremetrics.RegisterMetricsSink("kafka", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c KafkaConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		s, err := NewKafkaSink(c)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}
