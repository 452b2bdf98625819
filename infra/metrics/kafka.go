package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	coremetrics "github.com/kilianp07/bms12v/core/metrics"
)

// KafkaConfig configures the tick record stream.
type KafkaConfig struct {
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
	// TimeoutSeconds bounds each write; 5 when zero.
	TimeoutSeconds int `json:"timeout_seconds"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes every tick record as JSON, keyed by session ID so a
// session's records stay ordered within one partition.
type KafkaSink struct {
	w       messageWriter
	timeout time.Duration
}

// NewKafkaSink creates a synchronous writer for cfg.
func NewKafkaSink(cfg KafkaConfig) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: topic required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	timeout := 5 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &KafkaSink{w: w, timeout: timeout}, nil
}

// RecordTick writes one message per record.
func (s *KafkaSink) RecordTick(rec coremetrics.TickRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(rec.SessionID),
		Value: b,
		Time:  rec.Time,
	})
}

// Close flushes and closes the writer.
func (s *KafkaSink) Close() error { return s.w.Close() }
