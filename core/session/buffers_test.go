package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/bms12v/core/model"
)

func TestRationaleLog(t *testing.T) {
	l := NewRationaleLog(3)
	_, ok := l.Head()
	assert.False(t, ok)

	e, added := l.Append(model.SeverityInfo, "a")
	assert.True(t, added)
	assert.Equal(t, uint64(0), e.ID)

	e, added = l.Append(model.SeverityWarn, "a")
	assert.False(t, added)
	assert.Equal(t, model.SeverityInfo, e.Severity)

	l.Append(model.SeverityInfo, "b")
	l.Append(model.SeverityInfo, "a")
	l.Append(model.SeverityFault, "c")

	entries := l.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{entries[0].Text, entries[1].Text, entries[2].Text})
	assert.Equal(t, uint64(3), entries[0].ID)
	assert.Equal(t, 3, l.Len())
}

func TestSampleHistory(t *testing.T) {
	h := NewSampleHistory(3)
	_, ok := h.Last()
	assert.False(t, ok)
	for i := 1; i <= 5; i++ {
		h.Push(model.Sample{SOC: float64(i)})
	}
	got := h.Samples()
	require.Len(t, got, 3)
	assert.Equal(t, []float64{3, 4, 5}, []float64{got[0].SOC, got[1].SOC, got[2].SOC})
	last, ok := h.Last()
	assert.True(t, ok)
	assert.Equal(t, 5.0, last.SOC)
	assert.Equal(t, 3, h.Cap())
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))

	samples := []model.Sample{
		{Time: epoch, SOC: 60, Voltage: 12.2, Temperature: 20},
		{Time: epoch.Add(time.Second), SOC: 62, Voltage: 14.4, Temperature: 22},
		{Time: epoch.Add(2 * time.Second), SOC: 64, Voltage: 12.8, Temperature: 30},
	}
	sum := Summarize(samples)
	assert.Equal(t, 3, sum.Count)
	assert.Equal(t, epoch, sum.From)
	assert.Equal(t, epoch.Add(2*time.Second), sum.To)
	assert.Equal(t, Range{Min: 60, Max: 64, Mean: 62}, sum.SOC)
	assert.InDelta(t, 12.2, sum.Voltage.Min, 1e-9)
	assert.InDelta(t, 14.4, sum.Voltage.Max, 1e-9)
	assert.InDelta(t, 24, sum.Temperature.Mean, 1e-9)
}
