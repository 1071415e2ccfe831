// Package file writes analysis reports to a local directory.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"solana-credit-lab/internal/domain"
	"solana-credit-lab/internal/reporting"
	"solana-credit-lab/internal/storage"
)

// ReportSink writes credit_analysis_<address>.json (and optionally the
// Markdown and CSV renderings) into a directory. Files are overwritten
// on every run of the same address.
type ReportSink struct {
	dir      string
	extended bool
}

// NewReportSink creates a sink writing into dir. With extended set, the
// Markdown report and the CSV tables are written next to the JSON file.
func NewReportSink(dir string, extended bool) *ReportSink {
	if dir == "" {
		dir = "."
	}
	return &ReportSink{dir: dir, extended: extended}
}

// Compile-time interface check.
var (
	_ storage.ReportSink   = (*ReportSink)(nil)
	_ storage.LatestReader = (*ReportSink)(nil)
)

// Path returns the JSON report path for address.
func (s *ReportSink) Path(address string) string {
	return filepath.Join(s.dir, baseName(address)+".json")
}

// Save implements storage.ReportSink.
func (s *ReportSink) Save(_ context.Context, report *domain.Report) error {
	if err := storage.ValidateReport(report); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(s.Path(report.Address), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if !s.extended {
		return nil
	}

	base := filepath.Join(s.dir, baseName(report.Address))
	files := map[string]string{
		base + ".md":         reporting.RenderMarkdown(report),
		base + "_assets.csv": reporting.RenderProfilesCSV(report),
		base + "_types.csv":  reporting.RenderTypeDistributionCSV(report),
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

// GetLatestByAddress implements storage.LatestReader. Files are overwritten
// per address, so the stored report is the latest one.
func (s *ReportSink) GetLatestByAddress(_ context.Context, address string) (*domain.Report, error) {
	return s.Load(address)
}

// Load reads back the JSON report of address.
func (s *ReportSink) Load(address string) (*domain.Report, error) {
	data, err := os.ReadFile(s.Path(address))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read report: %w", err)
	}

	var r domain.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}

// baseName keeps path separators out of file names.
func baseName(address string) string {
	clean := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '.' {
			return '_'
		}
		return r
	}, address)
	return "credit_analysis_" + clean
}
