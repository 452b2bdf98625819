package model

import (
	"math"
	"strings"
	"time"
)

// Telemetry is the live battery state supplied by the operator or advanced by
// the physical model.
type Telemetry struct {
	SOC           float64 `json:"soc" yaml:"soc"`                       // state of charge in percent
	Temperature   float64 `json:"temperature" yaml:"temperature"`       // battery temperature in °C
	AccessoryLoad float64 `json:"accessory_load" yaml:"accessory_load"` // accessory draw in A
	SOH           float64 `json:"soh" yaml:"soh"`                       // state of health in percent
}

// Severity classifies a rationale entry.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityFault Severity = "FAULT"
)

func (s Severity) String() string { return string(s) }

// RationaleEntry is one line of the decision log.
type RationaleEntry struct {
	ID       uint64   `json:"id"`
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
}

// Sample is one point of the recent history window.
type Sample struct {
	Time        time.Time `json:"time"`
	SOC         float64   `json:"soc"`
	Voltage     float64   `json:"voltage"`
	Temperature float64   `json:"temperature"`
}

// Snapshot is the read-only payload handed to advisory consumers. Numeric
// values are rounded to integers; the field names are a stable contract.
type Snapshot struct {
	SOC            int            `json:"soc"`
	SOH            int            `json:"soh"`
	Temperature    int            `json:"temperature"`
	AccessoryLoad  int            `json:"accessory_load"`
	VehicleMode    VehicleMode    `json:"vehicle_mode"`
	BMSMode        BMSMode        `json:"bms_mode"`
	ContactorState ContactorState `json:"contactor_state"`
	ActiveFaults   []string       `json:"active_faults"`
}

// NewSnapshot builds the advisory payload from the current state.
func NewSnapshot(t Telemetry, vm VehicleMode, mode BMSMode, c ContactorState, f Faults) Snapshot {
	names := []string{}
	for _, a := range f.Active() {
		names = append(names, a.Name())
	}
	return Snapshot{
		SOC:            roundInt(t.SOC),
		SOH:            roundInt(t.SOH),
		Temperature:    roundInt(t.Temperature),
		AccessoryLoad:  roundInt(t.AccessoryLoad),
		VehicleMode:    vm,
		BMSMode:        mode,
		ContactorState: c,
		ActiveFaults:   names,
	}
}

// FaultsText joins the active fault names, or returns "None".
func (s Snapshot) FaultsText() string {
	if len(s.ActiveFaults) == 0 {
		return "None"
	}
	return strings.Join(s.ActiveFaults, ", ")
}

func roundInt(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}
