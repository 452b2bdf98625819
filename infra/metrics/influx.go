package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/bms12v/core/metrics"
	"github.com/kilianp07/bms12v/infra/logger"
)

// InfluxConfig locates the InfluxDB bucket receiving samples.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
	// TimeoutSeconds bounds each write; 5 when zero.
	TimeoutSeconds int `json:"timeout_seconds"`
}

func (c InfluxConfig) timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// InfluxSink writes tick samples and rationale entries to InfluxDB.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	timeout  time.Duration
	log      logger.Logger
}

// NewInfluxSink creates a sink for the configured endpoint. A URL ending in
// the write path is accepted.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: cfg.timeout()}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		timeout:  cfg.timeout(),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings InfluxDB and returns a NopSink when the
// health check fails, so a missing database never stops the simulator.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), sink.timeout)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordTick writes a bms_sample point.
func (s *InfluxSink) RecordTick(rec coremetrics.TickRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	p := write.NewPointWithMeasurement("bms_sample").
		AddTag("session", rec.SessionID).
		AddTag("bms_mode", rec.BMSMode.String()).
		AddTag("contactor", string(rec.Contactor)).
		AddTag("vehicle_mode", rec.VehicleMode.String()).
		AddField("soc", round3(rec.SOC)).
		AddField("voltage", round3(rec.Voltage)).
		AddField("temperature", round3(rec.Temperature)).
		AddField("soh", round3(rec.SOH)).
		AddField("accessory_load", round3(rec.AccessoryLoad)).
		AddField("latched", rec.Latched).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRationale writes a bms_rationale point.
func (s *InfluxSink) RecordRationale(ev coremetrics.RationaleEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	p := write.NewPointWithMeasurement("bms_rationale").
		AddTag("session", ev.SessionID).
		AddTag("severity", ev.Entry.Severity.String()).
		AddField("id", strconv.FormatUint(ev.Entry.ID, 10)).
		AddField("text", ev.Entry.Text).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordInput writes a bms_input point.
func (s *InfluxSink) RecordInput(ev coremetrics.InputEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	p := write.NewPointWithMeasurement("bms_input").
		AddTag("session", ev.SessionID).
		AddTag("source", ev.Source).
		AddTag("field", ev.Field).
		AddField("value", ev.Value).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the HTTP client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
