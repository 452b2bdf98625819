package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/bms12v/core/model"
)

func TestParseCommand(t *testing.T) {
	u, err := ParseCommand("bms", "bms/set/temperature", []byte(" -5 "))
	require.NoError(t, err)
	require.NotNil(t, u.Temperature)
	assert.Equal(t, -5.0, *u.Temperature)

	u, err = ParseCommand("bms", "bms/set/accessory_load", []byte("2.5"))
	require.NoError(t, err)
	assert.Equal(t, 2.5, *u.AccessoryLoad)

	u, err = ParseCommand("bms", "bms/set/soh", []byte("60"))
	require.NoError(t, err)
	assert.Equal(t, 60.0, *u.SOH)

	u, err = ParseCommand("bms", "bms/set/vehicle_mode", []byte("propulsion"))
	require.NoError(t, err)
	assert.Equal(t, model.VehiclePropulsion, *u.VehicleMode)

	for payload, want := range map[string]bool{"true": true, "1": true, "ON": true, "false": false, "0": false, "off": false} {
		u, err = ParseCommand("bms", "bms/set/fault/undervoltage", []byte(payload))
		require.NoError(t, err, payload)
		assert.Equal(t, map[model.Fault]bool{model.FaultUndervoltage: want}, u.Faults, payload)
	}
}

func TestParseCommandErrors(t *testing.T) {
	cases := []struct {
		topic, payload string
	}{
		{"bms/set/soc", "high"},
		{"bms/set/vehicle_mode", "PARK"},
		{"bms/set/fault/meltdown", "true"},
		{"bms/set/fault/overvoltage", "yes please"},
		{"bms/set/ignition", "1"},
		{"other/set/soc", "1"},
	}
	for _, c := range cases {
		_, err := ParseCommand("bms", c.topic, []byte(c.payload))
		assert.Error(t, err, c.topic)
	}
	_, err := ParseCommand("bms", "bms/set/ignition", nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)
	_, err = ParseCommand("bms", "bms/set/vehicle_mode", []byte("x"))
	assert.ErrorIs(t, err, model.ErrUnknownVehicleMode)
}
