package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/bms12v/config"
	"github.com/kilianp07/bms12v/core/events"
	"github.com/kilianp07/bms12v/core/factory"
	"github.com/kilianp07/bms12v/core/model"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	off := false
	cfg.API.Enabled = &off
	cfg.Metrics.PrometheusAddress = ""
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "nop"}}
	cfg.Session.TickIntervalMS = 5
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestStepPublishesTick(t *testing.T) {
	svc, err := New(testConfig(t))
	require.NoError(t, err)
	defer svc.Close()

	sub := svc.Bus().Subscribe()
	res := svc.Step()
	assert.Equal(t, uint64(1), res.Seq)
	assert.Equal(t, model.BMSCharging, res.Decision.Mode)
	assert.True(t, res.Appended)

	select {
	case ev := <-sub:
		tick, ok := ev.(events.TickEvent)
		require.True(t, ok)
		assert.Equal(t, "bms-1", tick.Session())
		assert.Equal(t, res.Seq, tick.Result.Seq)
	case <-time.After(time.Second):
		t.Fatal("no tick event")
	}
}

func TestRunTicksUntilCancelled(t *testing.T) {
	svc, err := New(testConfig(t))
	require.NoError(t, err)
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool { return svc.Session().State().Ticks >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	st := svc.Session().State()
	assert.GreaterOrEqual(t, st.Ticks, uint64(3))
	assert.Len(t, st.Samples, int(min(st.Ticks, 60)))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, st.Ticks, svc.Session().State().Ticks)
}

func TestAPIHandlerWired(t *testing.T) {
	cfg := testConfig(t)
	on := true
	cfg.API.Enabled = &on
	svc, err := New(cfg)
	require.NoError(t, err)
	defer svc.Close()

	sub := svc.Bus().Subscribe()
	req := httptest.NewRequest(http.MethodPut, "/api/bms/vehicle-mode", strings.NewReader(`{"vehicle_mode":"ACC"}`))
	rr := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, model.VehicleACC, svc.Session().State().VehicleMode)

	ev := <-sub
	in, ok := ev.(events.InputEvent)
	require.True(t, ok)
	assert.Equal(t, "vehicle_mode", in.Change.Field)

	// advisory without key is reported as not configured
	rr = httptest.NewRecorder()
	svc.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/bms/advisory", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestNewRejectsUnknownSink(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "carrier-pigeon"}}
	_, err := New(cfg)
	assert.Error(t, err)
}
