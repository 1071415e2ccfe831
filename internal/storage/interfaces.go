package storage

import (
	"context"

	"solana-credit-lab/internal/domain"
)

// ReportSink persists or publishes a finished analysis report.
type ReportSink interface {
	// Save stores report. Returns ErrInvalidInput for a nil report or one
	// without RunID/Address.
	Save(ctx context.Context, report *domain.Report) error
}

// LatestReader looks up the newest stored report of an address.
type LatestReader interface {
	// GetLatestByAddress retrieves the newest report for address, by GeneratedAt.
	// Returns ErrNotFound if the address was never analyzed.
	GetLatestByAddress(ctx context.Context, address string) (*domain.Report, error)
}

// ReportStore is a ReportSink that can read reports back.
type ReportStore interface {
	ReportSink
	LatestReader

	// GetByRunID retrieves a report by its run id. Returns ErrNotFound if not exists.
	GetByRunID(ctx context.Context, runID string) (*domain.Report, error)
}

// TypeDistributionStore keeps per-run transaction type counts for analytics.
type TypeDistributionStore interface {
	ReportSink

	// GetTypeTotals sums type counts over every stored run of address.
	GetTypeTotals(ctx context.Context, address string) (domain.TypeDistribution, error)
}

// ValidateReport checks the fields every sink relies on.
func ValidateReport(r *domain.Report) error {
	if r == nil || r.RunID == "" || r.Address == "" {
		return ErrInvalidInput
	}
	return nil
}
