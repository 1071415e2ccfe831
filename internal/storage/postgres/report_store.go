package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"solana-credit-lab/internal/domain"
	"solana-credit-lab/internal/storage"
)

// ReportStore implements storage.ReportStore using PostgreSQL.
type ReportStore struct {
	pool *Pool
}

// NewReportStore creates a new ReportStore.
func NewReportStore(pool *Pool) *ReportStore {
	return &ReportStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ReportStore = (*ReportStore)(nil)

// Save inserts the report and its asset profiles in one transaction.
// Returns ErrDuplicateKey if run_id exists.
func (s *ReportStore) Save(ctx context.Context, r *domain.Report) error {
	if err := storage.ValidateReport(r); err != nil {
		return err
	}

	dist, err := json.Marshal(nonNilDistribution(r.Stats.TypeDistribution))
	if err != nil {
		return fmt.Errorf("marshal type distribution: %w", err)
	}
	narrative, err := json.Marshal(nonNilNarrative(r.Narrative))
	if err != nil {
		return fmt.Errorf("marshal narrative: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, `
		INSERT INTO credit_reports (
			run_id, address, generated_at,
			total_parsed, small_tx_count, type_distribution,
			pages, observed, normal_count, small_count, stop_reason,
			narrative, narrative_raw, narrative_error
		) VALUES (
			$1, $2, $3,
			$4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14
		)
	`,
		r.RunID, r.Address, r.GeneratedAt,
		r.Stats.TotalParsed, r.Stats.SmallTxCount, dist,
		r.Pagination.Pages, r.Pagination.Observed, r.Pagination.NormalCount, r.Pagination.SmallCount, string(r.Pagination.StopReason),
		narrative, r.NarrativeRaw, r.NarrativeError,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert report: %w", err)
	}

	if len(r.Profiles) > 0 {
		batch := &pgx.Batch{}
		for i, p := range r.Profiles {
			batch.Queue(`
				INSERT INTO credit_report_assets (run_id, position, symbol, balance, tx_volume_ratio)
				VALUES ($1, $2, $3, $4::text::numeric, $5)
			`, r.RunID, i, p.Symbol, p.Balance.String(), p.TxVolumeRatio)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert asset profiles: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit report: %w", err)
	}
	return nil
}

const selectReport = `
	SELECT run_id, address, generated_at,
		total_parsed, small_tx_count, type_distribution,
		pages, observed, normal_count, small_count, stop_reason,
		narrative, narrative_raw, narrative_error
	FROM credit_reports
`

// GetByRunID retrieves a report by run id. Returns ErrNotFound if not exists.
func (s *ReportStore) GetByRunID(ctx context.Context, runID string) (*domain.Report, error) {
	return s.getOne(ctx, selectReport+` WHERE run_id = $1`, runID)
}

// GetLatestByAddress retrieves the newest report of address.
func (s *ReportStore) GetLatestByAddress(ctx context.Context, address string) (*domain.Report, error) {
	return s.getOne(ctx, selectReport+` WHERE address = $1 ORDER BY generated_at DESC, created_at DESC LIMIT 1`, address)
}

func (s *ReportStore) getOne(ctx context.Context, query string, arg string) (*domain.Report, error) {
	r, err := scanReport(s.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get report: %w", err)
	}

	profiles, err := s.getProfiles(ctx, r.RunID)
	if err != nil {
		return nil, err
	}
	r.Profiles = profiles
	return r, nil
}

func (s *ReportStore) getProfiles(ctx context.Context, runID string) ([]domain.AssetProfile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT symbol, balance::text, tx_volume_ratio
		FROM credit_report_assets
		WHERE run_id = $1
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query asset profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]domain.AssetProfile, 0)
	for rows.Next() {
		var (
			p       domain.AssetProfile
			balance string
		)
		if err := rows.Scan(&p.Symbol, &balance, &p.TxVolumeRatio); err != nil {
			return nil, fmt.Errorf("scan asset profile: %w", err)
		}
		p.Balance, err = decimal.NewFromString(balance)
		if err != nil {
			return nil, fmt.Errorf("parse balance of %s: %w", p.Symbol, err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate asset profiles: %w", err)
	}
	return profiles, nil
}

func scanReport(row pgx.Row) (*domain.Report, error) {
	var (
		r          domain.Report
		stopReason string
		dist       []byte
		narrative  []byte
	)
	err := row.Scan(
		&r.RunID, &r.Address, &r.GeneratedAt,
		&r.Stats.TotalParsed, &r.Stats.SmallTxCount, &dist,
		&r.Pagination.Pages, &r.Pagination.Observed, &r.Pagination.NormalCount, &r.Pagination.SmallCount, &stopReason,
		&narrative, &r.NarrativeRaw, &r.NarrativeError,
	)
	if err != nil {
		return nil, err
	}

	r.GeneratedAt = r.GeneratedAt.UTC()
	r.Pagination.StopReason = domain.StopReason(stopReason)
	if err := json.Unmarshal(dist, &r.Stats.TypeDistribution); err != nil {
		return nil, fmt.Errorf("decode type distribution: %w", err)
	}
	if err := json.Unmarshal(narrative, &r.Narrative); err != nil {
		return nil, fmt.Errorf("decode narrative: %w", err)
	}
	return &r, nil
}

func nonNilDistribution(d domain.TypeDistribution) domain.TypeDistribution {
	if d == nil {
		return domain.TypeDistribution{}
	}
	return d
}

func nonNilNarrative(n map[string]any) map[string]any {
	if n == nil {
		return map[string]any{}
	}
	return n
}
