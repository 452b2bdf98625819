package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/bms12v/core/events"
	coremetrics "github.com/kilianp07/bms12v/core/metrics"
	"github.com/kilianp07/bms12v/core/model"
	"github.com/kilianp07/bms12v/core/session"
	"github.com/kilianp07/bms12v/infra/logger"
	"github.com/kilianp07/bms12v/internal/eventbus"
)

type countingSink struct {
	mu                               sync.Mutex
	ticks, rationale, inputs, advice int
	lastField                        string
}

func (c *countingSink) RecordTick(coremetrics.TickRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks++
	return nil
}

func (c *countingSink) RecordRationale(coremetrics.RationaleEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rationale++
	return nil
}

func (c *countingSink) RecordInput(ev coremetrics.InputEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs++
	c.lastField = ev.Field
	return nil
}

func (c *countingSink) RecordAdvisory(coremetrics.AdvisoryEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advice++
	return nil
}

func (c *countingSink) counts() [4]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return [4]int{c.ticks, c.rationale, c.inputs, c.advice}
}

func TestStartEventCollector(t *testing.T) {
	bus := eventbus.New[events.Event]()
	sink := &countingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	done := StartEventCollector(ctx, bus, sink, logger.NopLogger{})

	bus.Publish(events.TickEvent{SessionID: "s", Result: session.TickResult{Appended: true, LogHead: model.RationaleEntry{Severity: model.SeverityInfo}}})
	bus.Publish(events.TickEvent{SessionID: "s", Result: session.TickResult{}})
	bus.Publish(events.InputEvent{SessionID: "s", Source: "api", Change: session.Change{Field: "soc", Value: "40"}})
	bus.Publish(events.AdvisoryEvent{SessionID: "s", Outcome: "ok"})

	require.Eventually(t, func() bool { return sink.counts() == [4]int{2, 1, 1, 1} }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "soc", sink.lastField)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}

func TestStartEventCollectorStopsOnBusClose(t *testing.T) {
	bus := eventbus.New[events.Event]()
	done := StartEventCollector(context.Background(), bus, coremetrics.NopSink{}, nil)
	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}
