// Package kafka publishes finished reports to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"solana-credit-lab/internal/domain"
	"solana-credit-lab/internal/logging"
	"solana-credit-lab/internal/storage"
)

// DefaultTopic receives one message per report.
const DefaultTopic = "credit-reports"

// SchemaVersion is sent in the "version" header.
const SchemaVersion = "1"

// MessageWriter is the subset of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher implements storage.ReportSink by producing JSON messages keyed
// by wallet address, so all runs of a wallet land on one partition.
type Publisher struct {
	writer MessageWriter
	topic  string
	logger *logrus.Entry
}

// NewPublisher creates a publisher writing to topic on brokers.
func NewPublisher(brokers []string, topic string, logger *logrus.Entry) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("brokers cannot be empty")
	}
	if topic == "" {
		topic = DefaultTopic
	}

	log := logging.OrDiscard(logger)
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Errorf("kafka writer: "+msg, args...)
		}),
	}

	log.WithFields(logrus.Fields{"brokers": brokers, "topic": topic}).Info("kafka publisher initialized")
	return NewPublisherWithWriter(w, topic, logger), nil
}

// NewPublisherWithWriter wraps an existing writer.
func NewPublisherWithWriter(w MessageWriter, topic string, logger *logrus.Entry) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{writer: w, topic: topic, logger: logging.OrDiscard(logger)}
}

// Compile-time interface check.
var _ storage.ReportSink = (*Publisher)(nil)

// Save implements storage.ReportSink.
func (p *Publisher) Save(ctx context.Context, report *domain.Report) error {
	if err := storage.ValidateReport(report); err != nil {
		return err
	}

	msg, err := NewMessage(report)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish report to %s: %w", p.topic, err)
	}

	p.logger.WithFields(logrus.Fields{
		"topic":        p.topic,
		"run_id":       report.RunID,
		"message_size": len(msg.Value),
		"latency_ms":   time.Since(start).Milliseconds(),
	}).Debug("report published")
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// NewMessage encodes report as a Kafka message.
func NewMessage(report *domain.Report) (kafka.Message, error) {
	value, err := json.Marshal(report)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal report: %w", err)
	}
	return kafka.Message{
		Key:   []byte(report.Address),
		Value: value,
		Time:  report.GeneratedAt,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
			{Key: "version", Value: []byte(SchemaVersion)},
			{Key: "run-id", Value: []byte(report.RunID)},
		},
	}, nil
}
