package metrics

import (
	"time"

	"github.com/kilianp07/bms12v/core/model"
	"github.com/kilianp07/bms12v/core/session"
)

// TickRecord is the flattened outcome of one tick.
type TickRecord struct {
	SessionID     string               `json:"session_id"`
	Seq           uint64               `json:"seq"`
	Time          time.Time            `json:"time"`
	SOC           float64              `json:"soc"`
	SOH           float64              `json:"soh"`
	Temperature   float64              `json:"temperature"`
	AccessoryLoad float64              `json:"accessory_load"`
	Voltage       float64              `json:"voltage"`
	VehicleMode   model.VehicleMode    `json:"vehicle_mode"`
	BMSMode       model.BMSMode        `json:"bms_mode"`
	Contactor     model.ContactorState `json:"contactor_state"`
	Latched       bool                 `json:"latched"`
	Warnings      []string             `json:"warnings"`
	Faults        []string             `json:"active_faults"`
}

// NewTickRecord flattens a tick result.
func NewTickRecord(sessionID string, res session.TickResult) TickRecord {
	faults := []string{}
	for _, f := range res.Faults.Active() {
		faults = append(faults, f.Name())
	}
	warnings := res.Decision.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return TickRecord{
		SessionID:     sessionID,
		Seq:           res.Seq,
		Time:          res.Time,
		SOC:           res.Telemetry.SOC,
		SOH:           res.Telemetry.SOH,
		Temperature:   res.Telemetry.Temperature,
		AccessoryLoad: res.Telemetry.AccessoryLoad,
		Voltage:       res.Sample.Voltage,
		VehicleMode:   res.VehicleMode,
		BMSMode:       res.Decision.Mode,
		Contactor:     res.Decision.Contactor,
		Latched:       res.Latched,
		Warnings:      warnings,
		Faults:        faults,
	}
}

// MetricsSink records tick records.
type MetricsSink interface {
	RecordTick(rec TickRecord) error
}

// RationaleEvent is a newly appended rationale entry.
type RationaleEvent struct {
	SessionID string
	Entry     model.RationaleEntry
	Time      time.Time
}

// RationaleRecorder records rationale entries.
type RationaleRecorder interface {
	RecordRationale(ev RationaleEvent) error
}

// InputEvent is an operator change accepted by the session.
type InputEvent struct {
	SessionID string
	Source    string
	Field     string
	Value     string
	Time      time.Time
}

// InputRecorder records operator inputs.
type InputRecorder interface {
	RecordInput(ev InputEvent) error
}

// AdvisoryEvent is the outcome of one advisory request.
type AdvisoryEvent struct {
	SessionID string
	Outcome   string
	Latency   time.Duration
	Time      time.Time
}

// AdvisoryRecorder records advisory requests.
type AdvisoryRecorder interface {
	RecordAdvisory(ev AdvisoryEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordTick(TickRecord) error          { return nil }
func (NopSink) RecordRationale(RationaleEvent) error { return nil }
func (NopSink) RecordInput(InputEvent) error         { return nil }
func (NopSink) RecordAdvisory(AdvisoryEvent) error   { return nil }
