package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"solana-credit-lab/internal/domain"
	"solana-credit-lab/internal/logging"
	"solana-credit-lab/internal/observability"
)

// NamedSink labels a sink in logs and metrics.
type NamedSink struct {
	Name string
	Sink ReportSink
}

// MultiSink saves a report to every sink in order. A failing sink does not
// stop the others; all failures are joined into the returned error.
type MultiSink struct {
	sinks  []NamedSink
	logger *logrus.Entry
}

// NewMultiSink creates a fan-out sink.
func NewMultiSink(logger *logrus.Entry, sinks ...NamedSink) *MultiSink {
	return &MultiSink{sinks: sinks, logger: logging.OrDiscard(logger)}
}

// Compile-time interface check.
var _ ReportSink = (*MultiSink)(nil)

// Add appends a sink.
func (m *MultiSink) Add(name string, sink ReportSink) {
	m.sinks = append(m.sinks, NamedSink{Name: name, Sink: sink})
}

// Len returns the number of sinks.
func (m *MultiSink) Len() int {
	return len(m.sinks)
}

// Save implements ReportSink.
func (m *MultiSink) Save(ctx context.Context, report *domain.Report) error {
	if err := ValidateReport(report); err != nil {
		return err
	}

	var errs []error
	for _, s := range m.sinks {
		if err := s.Sink.Save(ctx, report); err != nil {
			observability.RecordSinkError(s.Name)
			m.logger.WithFields(logrus.Fields{
				"sink":    s.Name,
				"run_id":  report.RunID,
				"address": report.Address,
			}).WithError(err).Error("failed to persist report")
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		m.logger.WithFields(logrus.Fields{
			"sink":   s.Name,
			"run_id": report.RunID,
		}).Debug("report persisted")
	}
	return errors.Join(errs...)
}
