package bms

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/bms12v/core/model"
)

func TestChargeTaper(t *testing.T) {
	p := DefaultPhysics()
	assert.InDelta(t, 0.1, p.ChargeIncrement(0), 1e-12)
	assert.InDelta(t, 0.1*(1-50.0/105), p.ChargeIncrement(50), 1e-12)

	atFull := p.ChargeIncrement(100)
	assert.Greater(t, atFull, 0.0)
	assert.InDelta(t, 0.1*5/105, atFull, 1e-12)
	assert.Equal(t, 0.0, p.ChargeIncrement(120))
}

func TestAdvanceCharging(t *testing.T) {
	p := DefaultPhysics()
	next := p.Advance(model.Telemetry{SOC: 50, Temperature: 25, AccessoryLoad: 5, SOH: 98}, model.BMSCharging)
	assert.InDelta(t, 50+0.1*(1-50.0/105), next.SOC, 1e-9)
	assert.InDelta(t, 25.02, next.Temperature, 1e-9)
	assert.Equal(t, 5.0, next.AccessoryLoad)
	assert.Equal(t, 98.0, next.SOH)

	full := p.Advance(model.Telemetry{SOC: 100, Temperature: 25}, model.BMSCharging)
	assert.Equal(t, 100.0, full.SOC)
}

func TestAdvanceDischarging(t *testing.T) {
	p := DefaultPhysics()
	next := p.Advance(model.Telemetry{SOC: 80, Temperature: 25, AccessoryLoad: 5}, model.BMSDischarging)
	assert.InDelta(t, 79.995, next.SOC, 1e-9)
	assert.InDelta(t, 25.005, next.Temperature, 1e-9)
}

func TestAdvanceNeutralStillClamps(t *testing.T) {
	p := DefaultPhysics()
	same := p.Advance(model.Telemetry{SOC: 42, Temperature: 10}, model.BMSNeutral)
	assert.Equal(t, 42.0, same.SOC)
	assert.Equal(t, 10.0, same.Temperature)

	clamped := p.Advance(model.Telemetry{SOC: 150, Temperature: -40}, model.BMSNeutral)
	assert.Equal(t, MaxSOC, clamped.SOC)
	assert.Equal(t, MinTemperature, clamped.Temperature)
}

func TestAdvanceExtremeInputsStayInDomain(t *testing.T) {
	p := DefaultPhysics()
	tel := model.Telemetry{SOC: 1, Temperature: 79, AccessoryLoad: 1e9}
	for i := 0; i < 100; i++ {
		mode := model.BMSDischarging
		if i%3 == 0 {
			mode = model.BMSCharging
		}
		tel = p.Advance(tel, mode)
		require.GreaterOrEqual(t, tel.SOC, MinSOC)
		require.LessOrEqual(t, tel.SOC, MaxSOC)
		require.GreaterOrEqual(t, tel.Temperature, MinTemperature)
		require.LessOrEqual(t, tel.Temperature, MaxTemperature)
	}
	nan := p.Advance(model.Telemetry{SOC: math.NaN(), Temperature: math.NaN()}, model.BMSNeutral)
	assert.Equal(t, MinSOC, nan.SOC)
	assert.Equal(t, MinTemperature, nan.Temperature)
}

func TestVoltageLookup(t *testing.T) {
	p := DefaultPhysics()
	assert.Equal(t, 14.4, p.Voltage(model.BMSCharging))
	assert.Equal(t, 12.2, p.Voltage(model.BMSDischarging))
	assert.Equal(t, 12.8, p.Voltage(model.BMSNeutral))
}

func TestThresholdsValidate(t *testing.T) {
	require.NoError(t, DefaultThresholds().Validate())

	bad := DefaultThresholds()
	bad.SOCMandatoryStop = 60
	assert.ErrorIs(t, bad.Validate(), ErrInvalidThresholds)

	bad = DefaultThresholds()
	bad.TempCritical = 40
	assert.ErrorIs(t, bad.Validate(), ErrInvalidThresholds)

	var zero Thresholds
	zero.SetDefaults()
	assert.Equal(t, DefaultThresholds(), zero)

	var pz PhysicsConfig
	pz.SetDefaults()
	assert.Equal(t, DefaultPhysics(), pz)
}
