// Package history walks an address's transaction history and resolves
// signatures into parsed transaction records.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"solana-credit-lab/internal/domain"
	"solana-credit-lab/internal/logging"
	"solana-credit-lab/internal/observability"
	"solana-credit-lab/internal/solana"
)

// Default pagination parameters.
const (
	DefaultTargetCount = 500
	DefaultPageSize    = 100
)

// DefaultSmallThreshold is the native volume (in SOL) below which a
// transaction counts as small.
var DefaultSmallThreshold = decimal.New(1, -1)

// Paginator collects normal-sized transactions, newest first, until a
// target count is reached or the history is exhausted.
type Paginator struct {
	client         solana.TransactionClient
	targetCount    int
	smallThreshold decimal.Decimal
	pageSize       int
	logger         *logrus.Entry
}

// PaginatorOptions contains configuration for creating a Paginator.
type PaginatorOptions struct {
	Client         solana.TransactionClient
	TargetCount    int
	SmallThreshold decimal.Decimal // SOL, positive; zero value uses DefaultSmallThreshold
	PageSize       int
	Logger         *logrus.Entry
}

// NewPaginator creates a new transaction paginator.
func NewPaginator(opts PaginatorOptions) *Paginator {
	target := opts.TargetCount
	if target <= 0 {
		target = DefaultTargetCount
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	threshold := opts.SmallThreshold
	if threshold.IsZero() {
		threshold = DefaultSmallThreshold
	}

	return &Paginator{
		client:         opts.Client,
		targetCount:    target,
		smallThreshold: threshold,
		pageSize:       pageSize,
		logger:         logging.OrDiscard(opts.Logger),
	}
}

// Result is the outcome of a finished history walk.
type Result struct {
	Normal     []domain.TransactionSummary
	SmallCount int
	Stats      domain.PaginationStats
}

// Signatures returns the signatures of the normal transactions, in order,
// keeping at most limit entries (0 keeps all).
func (r *Result) Signatures(limit int) []string {
	sigs := make([]string, 0, len(r.Normal))
	for i := range r.Normal {
		if limit > 0 && len(sigs) >= limit {
			break
		}
		if sig := r.Normal[i].Signature; sig != "" {
			sigs = append(sigs, sig)
		}
	}
	return sigs
}

// FetchNormal pages backwards through address history.
//
// Every page is classified in full: sub-threshold transactions all count
// towards SmallCount, while normal transactions are only taken until
// TargetCount is reached. Any page failure aborts the walk.
func (p *Paginator) FetchNormal(ctx context.Context, address string) (*Result, error) {
	threshold := domain.SOLToLamports(p.smallThreshold)
	start := time.Now()

	res := &Result{Normal: make([]domain.TransactionSummary, 0, p.targetCount)}
	var cursor string

	for {
		page, err := p.client.GetTransactionHistory(ctx, address, cursor, p.pageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch history page %d: %w", res.Stats.Pages+1, err)
		}
		if len(page) == 0 {
			res.Stats.StopReason = domain.StopExhausted
			break
		}
		res.Stats.Pages++

		pageNormal, pageSmall := 0, 0
		for i := range page {
			tx := &page[i]
			if tx.NativeVolume() < threshold {
				pageSmall++
				continue
			}
			if len(res.Normal) < p.targetCount {
				res.Normal = append(res.Normal, *tx)
				pageNormal++
			}
		}
		res.SmallCount += pageSmall
		observability.RecordPage(pageNormal, pageSmall)

		p.logger.WithFields(logrus.Fields{
			"address": address,
			"page":    res.Stats.Pages,
			"normal":  len(res.Normal),
			"small":   res.SmallCount,
			"elapsed": time.Since(start).Round(time.Millisecond).String(),
		}).Info("fetching transaction history")

		if len(res.Normal) >= p.targetCount {
			res.Stats.StopReason = domain.StopTargetReached
			break
		}

		last := page[len(page)-1].Signature
		if last == "" {
			res.Stats.StopReason = domain.StopMissingCursor
			break
		}
		if last == cursor {
			res.Stats.StopReason = domain.StopStalledCursor
			break
		}
		cursor = last
	}

	res.Stats.NormalCount = len(res.Normal)
	res.Stats.SmallCount = res.SmallCount
	res.Stats.Observed = res.Stats.NormalCount + res.Stats.SmallCount
	return res, nil
}
