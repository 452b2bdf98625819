package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/bms12v/core/bms"
	"github.com/kilianp07/bms12v/core/model"
	"github.com/kilianp07/bms12v/core/session"
)

type recordSink struct {
	ticks, rationale, inputs int
	closed                   bool
	err                      error
}

func (r *recordSink) RecordTick(TickRecord) error {
	r.ticks++
	return r.err
}

func (r *recordSink) RecordRationale(RationaleEvent) error {
	r.rationale++
	return nil
}

func (r *recordSink) RecordInput(InputEvent) error {
	r.inputs++
	return nil
}

func (r *recordSink) Close() error {
	r.closed = true
	return nil
}

type tickOnly struct{ ticks int }

func (t *tickOnly) RecordTick(TickRecord) error {
	t.ticks++
	return nil
}

func TestMultiSinkForwards(t *testing.T) {
	s1 := &recordSink{}
	s2 := &tickOnly{}
	m := NewMultiSink(s1, s2)

	require.NoError(t, m.RecordTick(TickRecord{}))
	require.NoError(t, m.RecordRationale(RationaleEvent{}))
	require.NoError(t, m.RecordInput(InputEvent{}))
	require.NoError(t, m.RecordAdvisory(AdvisoryEvent{}))
	require.NoError(t, m.Close())

	assert.Equal(t, 1, s1.ticks)
	assert.Equal(t, 1, s1.rationale)
	assert.Equal(t, 1, s1.inputs)
	assert.True(t, s1.closed)
	assert.Equal(t, 1, s2.ticks)
}

func TestMultiSinkCallsEverySinkOnError(t *testing.T) {
	boom := errors.New("boom")
	s1 := &recordSink{err: boom}
	s2 := &tickOnly{}
	err := NewMultiSink(s1, s2).RecordTick(TickRecord{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, s2.ticks)
}

func TestNewTickRecord(t *testing.T) {
	res := session.TickResult{
		Seq:         3,
		Decision:    bms.Decision{Mode: model.BMSNeutral, Contactor: model.ContactorOpen},
		Sample:      model.Sample{Voltage: 12.8},
		Telemetry:   model.Telemetry{SOC: 55, Temperature: 30, AccessoryLoad: 1, SOH: 90},
		VehicleMode: model.VehicleACC,
		Faults:      model.Faults{Overvoltage: true},
	}
	rec := NewTickRecord("s1", res)
	assert.Equal(t, "s1", rec.SessionID)
	assert.Equal(t, uint64(3), rec.Seq)
	assert.Equal(t, 12.8, rec.Voltage)
	assert.Equal(t, []string{"overvoltage"}, rec.Faults)
	assert.Equal(t, []string{}, rec.Warnings)
	assert.Equal(t, model.ContactorOpen, rec.Contactor)
}
