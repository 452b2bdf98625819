package session

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/bms12v/core/model"
)

// Range holds basic statistics of one series.
type Range struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Summary describes a sample window.
type Summary struct {
	Count       int       `json:"count"`
	From        time.Time `json:"from,omitempty"`
	To          time.Time `json:"to,omitempty"`
	SOC         Range     `json:"soc"`
	Voltage     Range     `json:"voltage"`
	Temperature Range     `json:"temperature"`
}

// Summarize computes min, max and mean of each series in samples.
func Summarize(samples []model.Sample) Summary {
	sum := Summary{Count: len(samples)}
	if len(samples) == 0 {
		return sum
	}
	soc := make([]float64, len(samples))
	volt := make([]float64, len(samples))
	temp := make([]float64, len(samples))
	for i, s := range samples {
		soc[i] = s.SOC
		volt[i] = s.Voltage
		temp[i] = s.Temperature
	}
	sum.From = samples[0].Time
	sum.To = samples[len(samples)-1].Time
	sum.SOC = rangeOf(soc)
	sum.Voltage = rangeOf(volt)
	sum.Temperature = rangeOf(temp)
	return sum
}

func rangeOf(v []float64) Range {
	return Range{Min: floats.Min(v), Max: floats.Max(v), Mean: stat.Mean(v, nil)}
}
