package bms

import (
	"math"

	"github.com/kilianp07/bms12v/core/model"
)

// PhysicsConfig parameterises the per-tick evolution model.
type PhysicsConfig struct {
	// BaseChargeRate is the SOC gain per tick at 0% SOC, in percentage points.
	BaseChargeRate float64 `json:"base_charge_rate"`
	// ChargeHeatPerTick is the temperature rise per charging tick.
	ChargeHeatPerTick float64 `json:"charge_heat_per_tick"`
	// DischargeCoefficient scales the accessory load into SOC loss and heat.
	DischargeCoefficient float64 `json:"discharge_coefficient"`

	VoltageCharging    float64 `json:"voltage_charging"`
	VoltageDischarging float64 `json:"voltage_discharging"`
	VoltageNeutral     float64 `json:"voltage_neutral"`
}

// taperFull is the SOC at which the charge taper would reach zero. It sits
// above 100 so a small increment remains at full charge.
const taperFull = 105.0

// DefaultPhysics returns the default simulation calibration.
func DefaultPhysics() PhysicsConfig {
	return PhysicsConfig{
		BaseChargeRate:       0.1,
		ChargeHeatPerTick:    0.02,
		DischargeCoefficient: 0.001,
		VoltageCharging:      14.4,
		VoltageDischarging:   12.2,
		VoltageNeutral:       12.8,
	}
}

// SetDefaults fills zero values.
func (c *PhysicsConfig) SetDefaults() {
	d := DefaultPhysics()
	if c.BaseChargeRate == 0 {
		c.BaseChargeRate = d.BaseChargeRate
	}
	if c.ChargeHeatPerTick == 0 {
		c.ChargeHeatPerTick = d.ChargeHeatPerTick
	}
	if c.DischargeCoefficient == 0 {
		c.DischargeCoefficient = d.DischargeCoefficient
	}
	if c.VoltageCharging == 0 {
		c.VoltageCharging = d.VoltageCharging
	}
	if c.VoltageDischarging == 0 {
		c.VoltageDischarging = d.VoltageDischarging
	}
	if c.VoltageNeutral == 0 {
		c.VoltageNeutral = d.VoltageNeutral
	}
}

// Voltage returns the terminal voltage for mode. It is a fixed lookup.
func (c PhysicsConfig) Voltage(mode model.BMSMode) float64 {
	switch mode {
	case model.BMSCharging:
		return c.VoltageCharging
	case model.BMSDischarging:
		return c.VoltageDischarging
	default:
		return c.VoltageNeutral
	}
}

// ChargeIncrement returns the SOC gain for one charging tick at soc.
func (c PhysicsConfig) ChargeIncrement(soc float64) float64 {
	return c.BaseChargeRate * math.Max(0, 1-soc/taperFull)
}

// Advance moves SOC and temperature forward by one tick under mode. Only
// SOC and temperature change; both are clamped to their domain every time.
func (c PhysicsConfig) Advance(t model.Telemetry, mode model.BMSMode) model.Telemetry {
	next := t
	switch mode {
	case model.BMSCharging:
		next.SOC += c.ChargeIncrement(t.SOC)
		next.Temperature += c.ChargeHeatPerTick
	case model.BMSDischarging:
		next.SOC -= t.AccessoryLoad * c.DischargeCoefficient
		next.Temperature += t.AccessoryLoad * c.DischargeCoefficient
	}
	next.SOC = ClampSOC(next.SOC)
	next.Temperature = ClampTemperature(next.Temperature)
	return next
}

// ClampSOC limits v to [MinSOC, MaxSOC]. NaN maps to MinSOC.
func ClampSOC(v float64) float64 { return clamp(v, MinSOC, MaxSOC) }

// ClampTemperature limits v to [MinTemperature, MaxTemperature]. NaN maps to MinTemperature.
func ClampTemperature(v float64) float64 { return clamp(v, MinTemperature, MaxTemperature) }

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
