package history

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"solana-credit-lab/internal/domain"
	"solana-credit-lab/internal/logging"
	"solana-credit-lab/internal/observability"
	"solana-credit-lab/internal/solana"
)

// Default batching parameters.
const (
	DefaultBatchSize  = 20
	DefaultBatchDelay = 1 * time.Second
)

// Resolver turns signatures into parsed transactions in fixed-size
// batches, pausing between batches to stay under upstream rate limits.
type Resolver struct {
	client     solana.TransactionClient
	batchSize  int
	batchDelay time.Duration
	sleeper    solana.Sleeper
	logger     *logrus.Entry
}

// ResolverOptions contains configuration for creating a Resolver.
type ResolverOptions struct {
	Client     solana.TransactionClient
	BatchSize  int
	BatchDelay time.Duration // negative disables the pause
	Sleeper    solana.Sleeper
	Logger     *logrus.Entry
}

// NewResolver creates a new signature resolver.
func NewResolver(opts ResolverOptions) *Resolver {
	size := opts.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	delay := opts.BatchDelay
	if delay == 0 {
		delay = DefaultBatchDelay
	}
	if delay < 0 {
		delay = 0
	}
	sleeper := opts.Sleeper
	if sleeper == nil {
		sleeper = solana.WallClock
	}

	return &Resolver{
		client:     opts.Client,
		batchSize:  size,
		batchDelay: delay,
		sleeper:    sleeper,
		logger:     logging.OrDiscard(opts.Logger),
	}
}

// Resolve returns parsed records for signatures, concatenated in batch order.
// A failing batch aborts the whole resolution.
func (r *Resolver) Resolve(ctx context.Context, signatures []string) ([]domain.ParsedTransaction, error) {
	out := make([]domain.ParsedTransaction, 0, len(signatures))
	if len(signatures) == 0 {
		return out, nil
	}

	start := time.Now()
	batches := (len(signatures) + r.batchSize - 1) / r.batchSize

	for b := 0; b < batches; b++ {
		if b > 0 && r.batchDelay > 0 {
			if err := r.sleeper.Sleep(ctx, r.batchDelay); err != nil {
				return nil, err
			}
		}

		lo := b * r.batchSize
		hi := lo + r.batchSize
		if hi > len(signatures) {
			hi = len(signatures)
		}

		parsed, err := r.client.ParseTransactions(ctx, signatures[lo:hi])
		if err != nil {
			return nil, fmt.Errorf("resolve batch %d/%d: %w", b+1, batches, err)
		}
		out = append(out, parsed...)
		observability.RecordBatchResolved()

		r.logger.WithFields(logrus.Fields{
			"batch":   b + 1,
			"batches": batches,
			"parsed":  len(out),
			"elapsed": time.Since(start).Round(time.Millisecond).String(),
		}).Info("resolving transactions")
	}

	return out, nil
}
