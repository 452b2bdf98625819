package bms

import (
	"fmt"
	"math"
	"strconv"

	"github.com/kilianp07/bms12v/core/model"
)

// Warning labels raised by the temperature guards.
const (
	WarningCriticalTemperature = "Critical Temperature"
	WarningLowTemperature      = "Low Temperature"
)

// Input gathers everything the engine looks at for one tick.
type Input struct {
	Telemetry   model.Telemetry
	VehicleMode model.VehicleMode
	Faults      model.Faults
	// MandatoryCharge is the hysteresis latch state for this tick.
	MandatoryCharge bool
}

// Rationale explains a decision.
type Rationale struct {
	Severity model.Severity `json:"severity"`
	Text     string         `json:"text"`
}

// Decision is the immutable outcome of one arbitration.
type Decision struct {
	Mode      model.BMSMode        `json:"bms_mode"`
	Contactor model.ContactorState `json:"contactor_state"`
	Warnings  []string             `json:"warnings"`
	Rationale Rationale            `json:"rationale"`
}

// Decide arbitrates the BMS mode. The first matching branch wins:
// faults, critical temperature, low temperature, propulsion, then ACC/OFF.
// It has no side effects and never changes the latch.
func Decide(in Input, th Thresholds) Decision {
	t := in.Telemetry
	active := in.Faults.Active()
	warnings := make([]string, 0, len(active)+1)
	for _, f := range active {
		warnings = append(warnings, f.Label())
	}

	switch {
	case len(active) > 0:
		return Decision{
			Mode:      model.BMSNeutral,
			Contactor: model.ContactorOpen,
			Warnings:  warnings,
			Rationale: Rationale{
				Severity: model.SeverityFault,
				Text:     fmt.Sprintf("FAULT: %s fault active. All charging/discharging disabled. Contactor Open.", active[0].Label()),
			},
		}
	case t.Temperature > th.TempCritical:
		return Decision{
			Mode:      model.BMSNeutral,
			Contactor: model.ContactorOpen,
			Warnings:  append(warnings, WarningCriticalTemperature),
			Rationale: Rationale{
				Severity: model.SeverityWarn,
				Text: fmt.Sprintf("WARN: All activity inhibited. Battery temperature (%s°C) is above the critical %s°C threshold.",
					num(t.Temperature), num(th.TempCritical)),
			},
		}
	case t.Temperature < th.TempLow:
		return Decision{
			Mode:      model.BMSNeutral,
			Contactor: model.ContactorOpen,
			Warnings:  append(warnings, WarningLowTemperature),
			Rationale: Rationale{
				Severity: model.SeverityWarn,
				Text: fmt.Sprintf("WARN: All activity inhibited. Battery temperature (%s°C) is below the %s°C safety threshold.",
					num(t.Temperature), num(th.TempLow)),
			},
		}
	case in.VehicleMode == model.VehiclePropulsion:
		return decidePropulsion(in, th, warnings)
	case in.VehicleMode == model.VehicleACC || in.VehicleMode == model.VehicleOff:
		return decideParked(in, th, warnings)
	default:
		return Decision{
			Mode:      model.BMSNeutral,
			Contactor: model.ContactorClosed,
			Warnings:  warnings,
			Rationale: Rationale{Severity: model.SeverityInfo, Text: "INFO: System in Neutral/Idle state."},
		}
	}
}

func decidePropulsion(in Input, th Thresholds, warnings []string) Decision {
	t := in.Telemetry
	var inhibit string
	switch {
	case t.SOH < th.SOHInhibit && !in.MandatoryCharge:
		inhibit = fmt.Sprintf("WARN: Charging inhibited. Battery SOH (%s%%) is below the %s%% threshold.",
			num(t.SOH), num(th.SOHInhibit))
	case t.Temperature > th.TempChargeHigh && !in.MandatoryCharge:
		inhibit = fmt.Sprintf("WARN: Charging inhibited. Battery temperature (%s°C) is above the %s°C safety threshold.",
			num(t.Temperature), num(th.TempChargeHigh))
	}
	if inhibit != "" {
		return Decision{
			Mode:      model.BMSNeutral,
			Contactor: model.ContactorOpen,
			Warnings:  warnings,
			Rationale: Rationale{Severity: model.SeverityWarn, Text: inhibit},
		}
	}
	text := "INFO: Charging enabled. Vehicle in PROPULSION mode and system checks are normal."
	if in.MandatoryCharge {
		text = mandatoryText(t.SOC, th)
	}
	return Decision{
		Mode:      model.BMSCharging,
		Contactor: model.ContactorClosed,
		Warnings:  warnings,
		Rationale: Rationale{Severity: model.SeverityInfo, Text: text},
	}
}

func decideParked(in Input, th Thresholds, warnings []string) Decision {
	t := in.Telemetry
	d := Decision{Contactor: model.ContactorClosed, Warnings: warnings}
	d.Rationale.Severity = model.SeverityInfo
	switch {
	case in.MandatoryCharge:
		d.Mode = model.BMSCharging
		d.Rationale.Text = mandatoryText(t.SOC, th)
	case t.AccessoryLoad > th.DischargeLoad:
		d.Mode = model.BMSDischarging
		d.Rationale.Text = fmt.Sprintf("INFO: Vehicle %s, load active (%sA). Discharging.", in.VehicleMode, num(t.AccessoryLoad))
	default:
		d.Mode = model.BMSNeutral
		d.Rationale.Text = fmt.Sprintf("INFO: System Idle. Load (%sA) is minimal.", num(t.AccessoryLoad))
	}
	return d
}

func mandatoryText(soc float64, th Thresholds) string {
	return fmt.Sprintf("INFO: Mandatory charging initiated. SOC (%s%%) is below %s%%.",
		strconv.FormatFloat(math.Round(soc), 'f', 0, 64), num(th.SOCMandatoryStart))
}

// num prints the shortest decimal form of v, so 65 renders as "65" and
// 25.02 as "25.02".
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
