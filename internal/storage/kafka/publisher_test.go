package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-credit-lab/internal/domain"
	"solana-credit-lab/internal/storage"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func sampleReport() *domain.Report {
	return &domain.Report{
		RunID:       "run-1",
		Address:     "wallet1",
		GeneratedAt: time.Date(2025, 5, 13, 12, 0, 0, 0, time.UTC),
		Stats:       domain.AggregateStats{TotalParsed: 1, TypeDistribution: domain.TypeDistribution{"SWAP": 1}},
	}
}

func TestPublisher_Save(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisherWithWriter(w, "", nil)

	require.NoError(t, p.Save(context.Background(), sampleReport()))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "wallet1", string(msg.Key))
	assert.Equal(t, sampleReport().GeneratedAt, msg.Time)

	var decoded domain.Report
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, 1, decoded.Stats.TypeDistribution["SWAP"])

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "application/json", headers["content-type"])
	assert.Equal(t, SchemaVersion, headers["version"])
	assert.Equal(t, "run-1", headers["run-id"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisher_WriteError(t *testing.T) {
	boom := errors.New("leader not available")
	p := NewPublisherWithWriter(&fakeWriter{err: boom}, "reports", nil)

	err := p.Save(context.Background(), sampleReport())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "reports")
}

func TestPublisher_InvalidReport(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisherWithWriter(w, "", nil)

	assert.ErrorIs(t, p.Save(context.Background(), &domain.Report{}), storage.ErrInvalidInput)
	assert.Empty(t, w.msgs)
}

func TestNewPublisher_RequiresBrokers(t *testing.T) {
	_, err := NewPublisher(nil, "", nil)
	assert.Error(t, err)

	p, err := NewPublisher([]string{"localhost:9092"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultTopic, p.topic)
	require.NoError(t, p.Close())
}
