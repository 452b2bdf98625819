package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/bms12v/core/metrics"
	"github.com/kilianp07/bms12v/core/model"
)

// PromSink exposes the live battery state as Prometheus gauges and counts
// ticks, rationale entries, operator inputs and advisory requests.
type PromSink struct {
	soc       prometheus.Gauge
	soh       prometheus.Gauge
	temp      prometheus.Gauge
	voltage   prometheus.Gauge
	load      prometheus.Gauge
	latched   prometheus.Gauge
	contactor prometheus.Gauge
	mode      *prometheus.GaugeVec

	ticks     prometheus.Counter
	rationale *prometheus.CounterVec
	inputs    *prometheus.CounterVec
	advisory  *prometheus.CounterVec
	latency   prometheus.Histogram
}

// NewPromSink registers the metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers the metrics on reg. A nil registerer
// defaults to the global one. Collectors that are already registered are
// reused, so several sinks may share a registry.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	gauge := func(name, help string) prometheus.Gauge {
		g, e := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help}))
		err = errors.Join(err, e)
		return g
	}
	s.soc = gauge("bms_soc_percent", "Battery state of charge")
	s.soh = gauge("bms_soh_percent", "Battery state of health")
	s.temp = gauge("bms_temperature_celsius", "Battery temperature")
	s.voltage = gauge("bms_voltage_volts", "Terminal voltage for the decided mode")
	s.load = gauge("bms_accessory_load_amperes", "Accessory load")
	s.latched = gauge("bms_mandatory_charge_latched", "1 while mandatory charging is latched")
	s.contactor = gauge("bms_contactor_closed", "1 while the main contactor is closed")

	var e error
	s.mode, e = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bms_mode",
		Help: "Decided BMS mode, one-hot",
	}, []string{"mode"}))
	err = errors.Join(err, e)
	s.ticks, e = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bms_ticks_total",
		Help: "Number of control cycles run",
	}))
	err = errors.Join(err, e)
	s.rationale, e = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bms_rationale_entries_total",
		Help: "Rationale entries appended to the log",
	}, []string{"severity"}))
	err = errors.Join(err, e)
	s.inputs, e = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bms_operator_inputs_total",
		Help: "Operator inputs applied to the session",
	}, []string{"field"}))
	err = errors.Join(err, e)
	s.advisory, e = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bms_advisory_requests_total",
		Help: "Advisory requests by outcome",
	}, []string{"outcome"}))
	err = errors.Join(err, e)
	s.latency, e = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bms_advisory_latency_seconds",
		Help:    "Advisory request latency",
		Buckets: prometheus.DefBuckets,
	}))
	err = errors.Join(err, e)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordTick updates the gauges and the tick counter.
func (s *PromSink) RecordTick(rec coremetrics.TickRecord) error {
	s.soc.Set(rec.SOC)
	s.soh.Set(rec.SOH)
	s.temp.Set(rec.Temperature)
	s.voltage.Set(rec.Voltage)
	s.load.Set(rec.AccessoryLoad)
	s.latched.Set(boolGauge(rec.Latched))
	s.contactor.Set(boolGauge(rec.Contactor.Closed()))
	for _, m := range model.AllBMSModes {
		s.mode.WithLabelValues(m.String()).Set(boolGauge(m == rec.BMSMode))
	}
	s.ticks.Inc()
	return nil
}

func (s *PromSink) RecordRationale(ev coremetrics.RationaleEvent) error {
	s.rationale.WithLabelValues(ev.Entry.Severity.String()).Inc()
	return nil
}

func (s *PromSink) RecordInput(ev coremetrics.InputEvent) error {
	s.inputs.WithLabelValues(ev.Field).Inc()
	return nil
}

func (s *PromSink) RecordAdvisory(ev coremetrics.AdvisoryEvent) error {
	s.advisory.WithLabelValues(ev.Outcome).Inc()
	if ev.Latency > 0 {
		s.latency.Observe(ev.Latency.Seconds())
	}
	return nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
