package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/bms12v/core/events"
	"github.com/kilianp07/bms12v/core/logger"
	coremetrics "github.com/kilianp07/bms12v/core/metrics"
)

// EventSource is the subscription side of the session bus.
type EventSource interface {
	Subscribe() <-chan events.Event
	Unsubscribe(<-chan events.Event)
}

// StartEventCollector subscribes to the bus and forwards events to sink.
// Optional recorders are used when the sink implements them. It stops when
// ctx is cancelled or the bus is closed; the returned channel is closed once
// the collector has exited.
func StartEventCollector(ctx context.Context, bus EventSource, sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil && log != nil {
					log.Warnf("metrics sink: %v", err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev events.Event) error {
	switch e := ev.(type) {
	case events.TickEvent:
		if err := sink.RecordTick(coremetrics.NewTickRecord(e.SessionID, e.Result)); err != nil {
			return err
		}
		if r, ok := sink.(coremetrics.RationaleRecorder); ok && e.Result.Appended {
			return r.RecordRationale(coremetrics.RationaleEvent{
				SessionID: e.SessionID,
				Entry:     e.Result.LogHead,
				Time:      e.Result.Time,
			})
		}
	case events.InputEvent:
		if r, ok := sink.(coremetrics.InputRecorder); ok {
			at := e.Time
			if at.IsZero() {
				at = time.Now()
			}
			return r.RecordInput(coremetrics.InputEvent{
				SessionID: e.SessionID,
				Source:    e.Source,
				Field:     e.Change.Field,
				Value:     e.Change.Value,
				Time:      at,
			})
		}
	case events.AdvisoryEvent:
		if r, ok := sink.(coremetrics.AdvisoryRecorder); ok {
			return r.RecordAdvisory(coremetrics.AdvisoryEvent{
				SessionID: e.SessionID,
				Outcome:   e.Outcome,
				Latency:   e.Latency,
				Time:      time.Now(),
			})
		}
	}
	return nil
}
