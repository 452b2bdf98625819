package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownVehicleMode is returned when a vehicle mode cannot be parsed.
var ErrUnknownVehicleMode = errors.New("unknown vehicle mode")

// VehicleMode is the ignition state of the vehicle as seen by the BMS.
type VehicleMode string

const (
	VehicleOff        VehicleMode = "OFF"
	VehicleACC        VehicleMode = "ACC"
	VehiclePropulsion VehicleMode = "PROPULSION"
)

// Valid reports whether m is one of the known vehicle modes.
func (m VehicleMode) Valid() bool {
	switch m {
	case VehicleOff, VehicleACC, VehiclePropulsion:
		return true
	default:
		return false
	}
}

func (m VehicleMode) String() string { return string(m) }

// ParseVehicleMode parses a vehicle mode, ignoring case and surrounding space.
func ParseVehicleMode(s string) (VehicleMode, error) {
	m := VehicleMode(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownVehicleMode, s)
	}
	return m, nil
}

// BMSMode is the energy flow decided by the engine for one tick.
type BMSMode string

const (
	BMSCharging    BMSMode = "CHARGING"
	BMSDischarging BMSMode = "DISCHARGING"
	BMSNeutral     BMSMode = "NEUTRAL"
)

// AllBMSModes lists every BMS mode, mainly for one-hot metric export.
var AllBMSModes = []BMSMode{BMSCharging, BMSDischarging, BMSNeutral}

func (m BMSMode) String() string { return string(m) }

// ContactorState is the position of the main battery relay.
type ContactorState string

const (
	ContactorOpen   ContactorState = "OPEN"
	ContactorClosed ContactorState = "CLOSED"
)

func (c ContactorState) String() string { return string(c) }

// Closed reports whether the battery is connected to the vehicle bus.
func (c ContactorState) Closed() bool { return c == ContactorClosed }
