package clickhouse

import (
	"context"
	"fmt"

	"solana-credit-lab/internal/domain"
	"solana-credit-lab/internal/storage"
)

// TypeDistributionStore implements storage.TypeDistributionStore using ClickHouse.
// Each report becomes one row per transaction type.
type TypeDistributionStore struct {
	conn *Conn
}

// NewTypeDistributionStore creates a new TypeDistributionStore.
func NewTypeDistributionStore(conn *Conn) *TypeDistributionStore {
	return &TypeDistributionStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TypeDistributionStore = (*TypeDistributionStore)(nil)

// Save appends the type counts of report. Reports without parsed
// transactions write nothing.
func (s *TypeDistributionStore) Save(ctx context.Context, report *domain.Report) error {
	if err := storage.ValidateReport(report); err != nil {
		return err
	}
	if len(report.Stats.TypeDistribution) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO tx_type_distribution (
			run_id, address, generated_at, tx_type, tx_count, total_parsed, small_tx_count
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, tc := range report.Stats.TypeDistribution.Sorted() {
		err = batch.Append(
			report.RunID,
			report.Address,
			report.GeneratedAt.UTC(),
			tc.Type,
			uint32(tc.Count),
			uint32(report.Stats.TotalParsed),
			uint32(report.Stats.SmallTxCount),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetTypeTotals sums type counts across all runs of address.
func (s *TypeDistributionStore) GetTypeTotals(ctx context.Context, address string) (domain.TypeDistribution, error) {
	query := `
		SELECT tx_type, sum(tx_count) AS total
		FROM tx_type_distribution
		WHERE address = ?
		GROUP BY tx_type
	`

	rows, err := s.conn.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("query type totals: %w", err)
	}
	defer rows.Close()

	totals := make(domain.TypeDistribution)
	for rows.Next() {
		var (
			txType string
			total  uint64
		)
		if err := rows.Scan(&txType, &total); err != nil {
			return nil, fmt.Errorf("scan type total: %w", err)
		}
		totals[txType] = int(total)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate type totals: %w", err)
	}
	return totals, nil
}

// CountRuns returns how many distinct runs were stored for address.
func (s *TypeDistributionStore) CountRuns(ctx context.Context, address string) (int, error) {
	var n uint64
	row := s.conn.QueryRow(ctx, `SELECT uniqExact(run_id) FROM tx_type_distribution WHERE address = ?`, address)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return int(n), nil
}
