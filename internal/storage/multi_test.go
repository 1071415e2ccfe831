package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-credit-lab/internal/domain"
)

type recordingSink struct {
	err   error
	saved []string
}

func (s *recordingSink) Save(_ context.Context, r *domain.Report) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, r.RunID)
	return nil
}

func TestMultiSink_SavesToAll(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	m := NewMultiSink(nil, NamedSink{Name: "a", Sink: a})
	m.Add("b", b)

	err := m.Save(context.Background(), &domain.Report{RunID: "r1", Address: "addr"})
	require.NoError(t, err)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"r1"}, a.saved)
	assert.Equal(t, []string{"r1"}, b.saved)
}

func TestMultiSink_ContinuesAfterFailure(t *testing.T) {
	boom := errors.New("boom")
	failing, ok := &recordingSink{err: boom}, &recordingSink{}
	m := NewMultiSink(nil,
		NamedSink{Name: "postgres", Sink: failing},
		NamedSink{Name: "file", Sink: ok},
	)

	err := m.Save(context.Background(), &domain.Report{RunID: "r1", Address: "addr"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "postgres")
	assert.Equal(t, []string{"r1"}, ok.saved)
}

func TestMultiSink_InvalidReport(t *testing.T) {
	sink := &recordingSink{}
	m := NewMultiSink(nil, NamedSink{Name: "a", Sink: sink})

	for _, r := range []*domain.Report{nil, {Address: "addr"}, {RunID: "r1"}} {
		assert.ErrorIs(t, m.Save(context.Background(), r), ErrInvalidInput)
	}
	assert.Empty(t, sink.saved)
}

func TestMultiSink_Empty(t *testing.T) {
	m := NewMultiSink(nil)
	assert.NoError(t, m.Save(context.Background(), &domain.Report{RunID: "r", Address: "a"}))
}
