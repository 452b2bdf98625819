package metrics

import (
	"errors"
	"io"
)

// MultiSink fans records out to several sinks. Optional recorders are only
// called on sinks that implement them.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTick forwards the record to every sink. All sinks are called; the
// errors are joined.
func (m *MultiSink) RecordTick(rec TickRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordTick(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordRationale(ev RationaleEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(RationaleRecorder); ok {
			if err := r.RecordRationale(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordInput(ev InputEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(InputRecorder); ok {
			if err := r.RecordInput(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordAdvisory(ev AdvisoryEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(AdvisoryRecorder); ok {
			if err := r.RecordAdvisory(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that holds resources.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// CloseSink closes s when it implements io.Closer.
func CloseSink(s MetricsSink) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
