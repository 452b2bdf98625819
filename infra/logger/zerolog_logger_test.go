package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := NewZerologLogger("test")
	require.NotNil(t, l)
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLoggerFields(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })
	require.NoError(t, SetLevel("debug"))

	var buf bytes.Buffer
	l := NewWithWriter("tick-loop", &buf).With(map[string]any{"session": "bms-1"})
	l.Debugw("tick", map[string]any{"bms_mode": "CHARGING"})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "tick-loop", line["component"])
	assert.Equal(t, "bms-1", line["session"])
	assert.Equal(t, "CHARGING", line["bms_mode"])
	assert.Equal(t, "debug", line["level"])
}

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })
	require.NoError(t, SetLevel("warn"))

	var buf bytes.Buffer
	l := NewWithWriter("test", &buf)
	l.Infof("hidden")
	l.Warnf("shown")
	assert.False(t, strings.Contains(buf.String(), "hidden"))
	assert.Contains(t, buf.String(), "shown")

	assert.Error(t, SetLevel("loud"))
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}
