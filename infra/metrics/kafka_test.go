package metrics

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/bms12v/core/metrics"
	"github.com/kilianp07/bms12v/core/model"
)

type stubWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (s *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	s.msgs = append(s.msgs, msgs...)
	return nil
}

func (s *stubWriter) Close() error {
	s.closed = true
	return nil
}

func TestKafkaSink_RecordTick(t *testing.T) {
	w := &stubWriter{}
	sink := &KafkaSink{w: w, timeout: time.Second}

	rec := coremetrics.TickRecord{SessionID: "bms-1", Seq: 7, SOC: 63.2, BMSMode: model.BMSDischarging, Warnings: []string{}, Faults: []string{}}
	require.NoError(t, sink.RecordTick(rec))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("bms-1"), w.msgs[0].Key)

	var got coremetrics.TickRecord
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, uint64(7), got.Seq)
	assert.Equal(t, model.BMSDischarging, got.BMSMode)

	require.NoError(t, sink.Close())
	assert.True(t, w.closed)
}

func TestNewKafkaSinkValidates(t *testing.T) {
	_, err := NewKafkaSink(KafkaConfig{Topic: "bms.ticks"})
	assert.Error(t, err)
	_, err = NewKafkaSink(KafkaConfig{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)

	s, err := NewKafkaSink(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "bms.ticks"})
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}
