// Package metrics defines the sink contract used to export session activity.
// Every sink records tick records; sinks may also implement the optional
// recorder interfaces for rationale entries, operator inputs and advisory
// requests. Several sinks are combined with NewMultiSink, and
// NewMetricsSink builds sinks from configuration through the registry that
// infra/metrics fills with the built-in types.
package metrics
