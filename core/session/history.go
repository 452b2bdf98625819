package session

import "github.com/kilianp07/bms12v/core/model"

// SampleHistory is a fixed-size ring of samples. Once full, the oldest
// sample is overwritten.
type SampleHistory struct {
	buf   []model.Sample
	start int
	n     int
}

// NewSampleHistory creates a ring holding at most capacity samples.
func NewSampleHistory(capacity int) *SampleHistory {
	if capacity < 1 {
		capacity = 1
	}
	return &SampleHistory{buf: make([]model.Sample, capacity)}
}

// Push appends s, evicting the oldest sample when full.
func (h *SampleHistory) Push(s model.Sample) {
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = s
		h.n++
		return
	}
	h.buf[h.start] = s
	h.start = (h.start + 1) % len(h.buf)
}

// Samples returns a copy of the window, oldest first.
func (h *SampleHistory) Samples() []model.Sample {
	out := make([]model.Sample, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}

// Last returns the newest sample.
func (h *SampleHistory) Last() (model.Sample, bool) {
	if h.n == 0 {
		return model.Sample{}, false
	}
	return h.buf[(h.start+h.n-1)%len(h.buf)], true
}

func (h *SampleHistory) Len() int { return h.n }

func (h *SampleHistory) Cap() int { return len(h.buf) }
