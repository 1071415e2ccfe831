// Package memory provides in-process report storage for tests and local runs.
package memory

import (
	"context"
	"sync"

	"solana-credit-lab/internal/domain"
	"solana-credit-lab/internal/storage"
)

// ReportStore is an in-memory implementation of storage.ReportStore and
// storage.TypeDistributionStore.
type ReportStore struct {
	mu        sync.RWMutex
	data      map[string]*domain.Report // keyed by run_id
	byAddress map[string][]string       // address -> run ids in save order
}

// NewReportStore creates a new in-memory report store.
func NewReportStore() *ReportStore {
	return &ReportStore{
		data:      make(map[string]*domain.Report),
		byAddress: make(map[string][]string),
	}
}

// Compile-time interface checks.
var (
	_ storage.ReportStore           = (*ReportStore)(nil)
	_ storage.TypeDistributionStore = (*ReportStore)(nil)
)

// Save stores a copy of report. Returns ErrDuplicateKey if run_id exists.
func (s *ReportStore) Save(_ context.Context, report *domain.Report) error {
	if err := storage.ValidateReport(report); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[report.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[report.RunID] = report.Clone()
	s.byAddress[report.Address] = append(s.byAddress[report.Address], report.RunID)
	return nil
}

// GetByRunID retrieves a report by run id. Returns ErrNotFound if not exists.
func (s *ReportStore) GetByRunID(_ context.Context, runID string) (*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return r.Clone(), nil
}

// GetLatestByAddress returns the report with the newest GeneratedAt.
// Ties go to the report saved last.
func (s *ReportStore) GetLatestByAddress(_ context.Context, address string) (*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.Report
	for _, id := range s.byAddress[address] {
		r := s.data[id]
		if latest == nil || !r.GeneratedAt.Before(latest.GeneratedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return latest.Clone(), nil
}

// GetTypeTotals sums type counts across all runs of address.
func (s *ReportStore) GetTypeTotals(_ context.Context, address string) (domain.TypeDistribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(domain.TypeDistribution)
	for _, id := range s.byAddress[address] {
		for t, n := range s.data[id].Stats.TypeDistribution {
			totals[t] += n
		}
	}
	return totals, nil
}

// Len returns the number of stored reports.
func (s *ReportStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
