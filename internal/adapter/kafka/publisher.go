// Package kafka publishes refreshed derived metrics to a sink topic for
// downstream dashboard consumers. The publisher is feature-flagged and off
// by default.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/transit-metrics-service/internal/analytics"
	"github.com/couchcryptid/transit-metrics-service/internal/config"
	"github.com/couchcryptid/transit-metrics-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces derived daily metric rows to a Kafka topic.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured sink topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishDailyMetrics serializes and publishes the rolling daily rows in a
// single WriteMessages call.
func (p *Publisher) PublishDailyMetrics(ctx context.Context, rows []analytics.DailyRolling) error {
	if len(rows) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(rows))
	for i := range rows {
		msg, err := serializeToMessage(rows[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish daily metrics: %w", err)
	}
	p.logger.Info("published daily metrics", "rows", len(rows))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a daily metrics row into a Kafka message
// keyed by (date, mode) so compacted topics keep the latest revision.
func serializeToMessage(row analytics.DailyRolling) (kafkago.Message, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize daily metrics row: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(row.Date.Format(domain.DateLayout) + "|" + string(row.Mode)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "mode", Value: []byte(row.Mode)},
			{Key: "date", Value: []byte(row.Date.Format(time.RFC3339))},
		},
	}, nil
}
