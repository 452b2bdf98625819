package config

import (
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/bms12v/core/bms"
	"github.com/kilianp07/bms12v/core/model"
	"github.com/kilianp07/bms12v/core/session"
)

// SessionConfig describes the simulated battery served by the process.
type SessionConfig struct {
	ID              string        `json:"id"`
	TickIntervalMS  int           `json:"tick_interval_ms"`
	LogCapacity     int           `json:"log_capacity"`
	HistoryCapacity int           `json:"history_capacity"`
	Initial         InitialConfig `json:"initial"`
}

// InitialConfig is the state the session starts from. Unset values take the
// bench defaults.
type InitialConfig struct {
	SOC           *float64 `json:"soc"`
	Temperature   *float64 `json:"temperature"`
	AccessoryLoad *float64 `json:"accessory_load"`
	SOH           *float64 `json:"soh"`
	VehicleMode   string   `json:"vehicle_mode"`
	Faults        []string `json:"faults"`
}

func (c *SessionConfig) SetDefaults() {
	if c.ID == "" {
		c.ID = "bms-1"
	}
	if c.TickIntervalMS <= 0 {
		c.TickIntervalMS = 1000
	}
	if c.LogCapacity <= 0 {
		c.LogCapacity = session.DefaultLogCapacity
	}
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = session.DefaultHistoryCapacity
	}
	setDefault(&c.Initial.SOC, 60)
	setDefault(&c.Initial.Temperature, 25)
	setDefault(&c.Initial.AccessoryLoad, 5)
	setDefault(&c.Initial.SOH, 98)
	if c.Initial.VehicleMode == "" {
		c.Initial.VehicleMode = string(model.VehicleOff)
	}
}

func setDefault(p **float64, v float64) {
	if *p == nil {
		*p = &v
	}
}

func (c SessionConfig) Validate() error {
	if c.TickIntervalMS <= 0 {
		return fmt.Errorf("tick_interval_ms must be positive")
	}
	if _, err := model.ParseVehicleMode(c.Initial.VehicleMode); err != nil {
		return err
	}
	for _, name := range c.Initial.Faults {
		if _, err := model.ParseFault(name); err != nil {
			return err
		}
	}
	for _, p := range []*float64{c.Initial.SOC, c.Initial.Temperature, c.Initial.AccessoryLoad, c.Initial.SOH} {
		if p != nil && (math.IsNaN(*p) || math.IsInf(*p, 0)) {
			return fmt.Errorf("initial: %w", session.ErrInvalidValue)
		}
	}
	return nil
}

// TickInterval returns the control cycle period.
func (c SessionConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// Options converts the section into session options. The caller is expected
// to have run SetDefaults and Validate.
func (c SessionConfig) Options(th bms.Thresholds, ph bms.PhysicsConfig) (session.Options, error) {
	vm, err := model.ParseVehicleMode(c.Initial.VehicleMode)
	if err != nil {
		return session.Options{}, err
	}
	var faults model.Faults
	for _, name := range c.Initial.Faults {
		f, err := model.ParseFault(name)
		if err != nil {
			return session.Options{}, err
		}
		faults.Set(f, true)
	}
	return session.Options{
		ID:         c.ID,
		Thresholds: th,
		Physics:    ph,
		Initial: model.Telemetry{
			SOC:           deref(c.Initial.SOC),
			Temperature:   deref(c.Initial.Temperature),
			AccessoryLoad: deref(c.Initial.AccessoryLoad),
			SOH:           deref(c.Initial.SOH),
		},
		VehicleMode:     vm,
		Faults:          faults,
		LogCapacity:     c.LogCapacity,
		HistoryCapacity: c.HistoryCapacity,
	}, nil
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
