package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/flood-risk-fusion/internal/config"
	"github.com/couchcryptid/flood-risk-fusion/internal/fusion"
)

// Writer publishes summary statistics records to the sink topic.
// It implements pipeline.StatsSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishStats serializes and publishes one cycle's summary statistics.
func (w *Writer) PublishStats(ctx context.Context, stats fusion.Stats) error {
	msg, err := serializeToMessage(stats)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Stats record into a Kafka message keyed by
// cycle ID so replays of the same cycle land in the same partition.
func serializeToMessage(stats fusion.Stats) (kafkago.Message, error) {
	data, err := json.Marshal(stats)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize stats: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(stats.CycleID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(stats.RunID)},
			{Key: "generated_at", Value: []byte(stats.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
