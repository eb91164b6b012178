package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/flood-risk-fusion/internal/config"
	"github.com/couchcryptid/flood-risk-fusion/internal/domain"
)

// Reader consumes forecast cycle batches from the source topic, one message
// per cycle. It implements pipeline.CycleSource.
type Reader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewReader creates a Kafka consumer for the configured source topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaSourceTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Reader{reader: r, logger: logger}
}

// NextCycle blocks until the next forecast cycle message arrives and
// deserializes it.
func (r *Reader) NextCycle(ctx context.Context) (domain.ForecastCycle, error) {
	msg, err := r.reader.ReadMessage(ctx)
	if err != nil {
		return domain.ForecastCycle{}, fmt.Errorf("read forecast cycle: %w", err)
	}
	cycle, err := mapMessageToCycle(msg)
	if err != nil {
		return domain.ForecastCycle{}, err
	}
	r.logger.Debug("forecast cycle received",
		"cycle", cycle.ID, "samples", len(cycle.Samples), "offset", msg.Offset)
	return cycle, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessageToCycle deserializes a Kafka message into a ForecastCycle,
// falling back to the message key for the cycle ID when the payload omits it.
func mapMessageToCycle(msg kafkago.Message) (domain.ForecastCycle, error) {
	var cycle domain.ForecastCycle
	if err := json.Unmarshal(msg.Value, &cycle); err != nil {
		return domain.ForecastCycle{}, fmt.Errorf("parse forecast cycle at offset %d: %w", msg.Offset, err)
	}
	if cycle.ID == "" {
		cycle.ID = string(msg.Key)
	}
	if cycle.ReferenceTime.IsZero() {
		cycle.ReferenceTime = msg.Time
	}
	return cycle, nil
}
