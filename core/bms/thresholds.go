package bms

import (
	"errors"
	"fmt"
)

// ErrInvalidThresholds is returned by Validate for inconsistent limits.
var ErrInvalidThresholds = errors.New("invalid thresholds")

// Domain limits applied by the physical model after each update.
const (
	MinSOC         = 0.0
	MaxSOC         = 100.0
	MinTemperature = -20.0
	MaxTemperature = 80.0
)

// Thresholds defines the arbitration limits of the decision engine.
type Thresholds struct {
	// SOCMandatoryStart latches mandatory charging when SOC drops below it.
	SOCMandatoryStart float64 `json:"soc_mandatory_start"`
	// SOCMandatoryStop releases the latch once SOC reaches it.
	SOCMandatoryStop float64 `json:"soc_mandatory_stop"`
	// TempChargeHigh inhibits propulsion charging above it unless latched.
	TempChargeHigh float64 `json:"temp_charge_high"`
	// TempCritical inhibits all activity above it.
	TempCritical float64 `json:"temp_critical"`
	// TempLow inhibits all activity below it.
	TempLow float64 `json:"temp_low"`
	// SOHInhibit inhibits propulsion charging below it unless latched.
	SOHInhibit float64 `json:"soh_inhibit"`
	// DischargeLoad is the accessory load above which the battery discharges.
	DischargeLoad float64 `json:"discharge_load"`
}

// DefaultThresholds returns the factory calibration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SOCMandatoryStart: 65,
		SOCMandatoryStop:  78,
		TempChargeHigh:    45,
		TempCritical:      60,
		TempLow:           0,
		SOHInhibit:        70,
		DischargeLoad:     2,
	}
}

// SetDefaults fills zero values with the factory calibration. TempLow is
// left alone since 0 °C is a meaningful limit.
func (t *Thresholds) SetDefaults() {
	d := DefaultThresholds()
	if t.SOCMandatoryStart == 0 {
		t.SOCMandatoryStart = d.SOCMandatoryStart
	}
	if t.SOCMandatoryStop == 0 {
		t.SOCMandatoryStop = d.SOCMandatoryStop
	}
	if t.TempChargeHigh == 0 {
		t.TempChargeHigh = d.TempChargeHigh
	}
	if t.TempCritical == 0 {
		t.TempCritical = d.TempCritical
	}
	if t.SOHInhibit == 0 {
		t.SOHInhibit = d.SOHInhibit
	}
	if t.DischargeLoad == 0 {
		t.DischargeLoad = d.DischargeLoad
	}
}

// Validate checks that the limits describe a usable band.
func (t Thresholds) Validate() error {
	if t.SOCMandatoryStart < MinSOC || t.SOCMandatoryStop > MaxSOC {
		return fmt.Errorf("%w: mandatory charge band outside [0,100]", ErrInvalidThresholds)
	}
	if t.SOCMandatoryStop <= t.SOCMandatoryStart {
		return fmt.Errorf("%w: soc_mandatory_stop must be above soc_mandatory_start", ErrInvalidThresholds)
	}
	if !(t.TempLow < t.TempChargeHigh && t.TempChargeHigh <= t.TempCritical) {
		return fmt.Errorf("%w: expected temp_low < temp_charge_high <= temp_critical", ErrInvalidThresholds)
	}
	if t.SOHInhibit < 0 || t.SOHInhibit > 100 {
		return fmt.Errorf("%w: soh_inhibit outside [0,100]", ErrInvalidThresholds)
	}
	if t.DischargeLoad < 0 {
		return fmt.Errorf("%w: discharge_load must not be negative", ErrInvalidThresholds)
	}
	return nil
}
