// Package analyzer runs the full credit analysis of one wallet.
// Flow: validate → paginate history → build profiles → resolve → aggregate → narrative
package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"solana-credit-lab/internal/domain"
	"solana-credit-lab/internal/history"
	"solana-credit-lab/internal/logging"
	"solana-credit-lab/internal/narrative"
	"solana-credit-lab/internal/observability"
	"solana-credit-lab/internal/solana"
	"solana-credit-lab/internal/stats"
)

// DefaultMaxSignatures bounds how many normal transactions are resolved.
const DefaultMaxSignatures = 100

// HistoryFetcher collects normal-sized transactions of an address.
type HistoryFetcher interface {
	FetchNormal(ctx context.Context, address string) (*history.Result, error)
}

// ProfileSource builds the asset profiles of an address.
type ProfileSource interface {
	Build(ctx context.Context, address string) ([]domain.AssetProfile, error)
}

// SignatureResolver resolves signatures into parsed transactions.
type SignatureResolver interface {
	Resolve(ctx context.Context, signatures []string) ([]domain.ParsedTransaction, error)
}

// Analyzer coordinates one analysis run per address.
type Analyzer struct {
	history   HistoryFetcher
	profiles  ProfileSource
	resolver  SignatureResolver
	generator narrative.Generator

	maxSignatures  int
	smallThreshold decimal.Decimal
	logger         *logrus.Entry
	now            func() time.Time
	newID          func() string
}

// Options for creating Analyzer.
type Options struct {
	// Required components
	History  HistoryFetcher
	Profiles ProfileSource
	Resolver SignatureResolver

	// Generator is optional; nil leaves the narrative empty.
	Generator narrative.Generator

	MaxSignatures  int // 0 uses DefaultMaxSignatures, negative disables the cap
	SmallThreshold decimal.Decimal
	Logger         *logrus.Entry
}

// New creates a new Analyzer.
func New(opts Options) *Analyzer {
	maxSigs := opts.MaxSignatures
	if maxSigs == 0 {
		maxSigs = DefaultMaxSignatures
	}
	if maxSigs < 0 {
		maxSigs = 0
	}

	return &Analyzer{
		history:        opts.History,
		profiles:       opts.Profiles,
		resolver:       opts.Resolver,
		generator:      opts.Generator,
		maxSignatures:  maxSigs,
		smallThreshold: opts.SmallThreshold,
		logger:         logging.OrDiscard(opts.Logger),
		now:            time.Now,
		newID:          func() string { return uuid.NewString() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// WithIDGenerator sets a custom run id source for deterministic output.
func (a *Analyzer) WithIDGenerator(newID func() string) *Analyzer {
	a.newID = newID
	return a
}

// Analyze runs every phase for address. Upstream failures in the history,
// asset or resolve phases abort the run; staking and narrative failures
// only degrade the report.
func (a *Analyzer) Analyze(ctx context.Context, address string) (*domain.Report, error) {
	start := time.Now()
	report, err := a.analyze(ctx, address)
	observability.RecordAnalysis(err == nil, time.Since(start).Seconds(), a.now().Unix())
	return report, err
}

func (a *Analyzer) analyze(ctx context.Context, address string) (*domain.Report, error) {
	runID := a.newID()
	log := a.logger.WithFields(logrus.Fields{"run_id": runID, "address": address})

	// Phase 1: Validate address
	info, err := solana.ValidateAddress(address)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (validate address) failed: %w", err)
	}
	if !info.OnCurve {
		log.Warn("address is off-curve (program derived); analysis may be sparse")
	}

	// Phase 2: Transaction history
	log.Info("Phase 2: fetching transaction history")
	hist, err := a.history.FetchNormal(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("phase 2 (transaction history) failed: %w", err)
	}
	log.WithFields(logrus.Fields{
		"normal":      len(hist.Normal),
		"small":       hist.SmallCount,
		"pages":       hist.Stats.Pages,
		"stop_reason": hist.Stats.StopReason,
	}).Info("transaction history collected")

	// Phase 3: Asset profiles
	log.Info("Phase 3: building asset profiles")
	profiles, err := a.profiles.Build(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("phase 3 (asset profiles) failed: %w", err)
	}

	// Phase 4: Resolve signatures
	sigs := hist.Signatures(a.maxSignatures)
	log.WithField("signatures", len(sigs)).Info("Phase 4: resolving transactions")
	parsed, err := a.resolver.Resolve(ctx, sigs)
	if err != nil {
		return nil, fmt.Errorf("phase 4 (resolve transactions) failed: %w", err)
	}

	// Phase 5: Aggregate
	aggregate := stats.Aggregate(parsed, profiles, hist.SmallCount)

	report := &domain.Report{
		RunID:       runID,
		Address:     address,
		GeneratedAt: a.now().UTC(),
		Stats:       aggregate,
		Profiles:    profiles,
		Pagination:  hist.Stats,
		Narrative:   map[string]any{},
	}

	// Phase 6: Narrative (best effort)
	a.narrate(ctx, log, report)

	log.WithFields(logrus.Fields{
		"total_parsed": aggregate.TotalParsed,
		"small":        aggregate.SmallTxCount,
		"profiles":     len(profiles),
	}).Info("analysis completed")

	return report, nil
}

func (a *Analyzer) narrate(ctx context.Context, log *logrus.Entry, report *domain.Report) {
	if a.generator == nil {
		return
	}

	text, err := a.generator.Generate(ctx, narrative.Input{
		Address:        report.Address,
		Stats:          report.Stats,
		Profiles:       report.Profiles,
		SmallThreshold: a.smallThreshold,
	})
	if err != nil {
		observability.RecordNarrativeFailure("generate")
		log.WithError(err).Warn("narrative generation failed")
		report.NarrativeError = err.Error()
		return
	}
	report.NarrativeRaw = text

	doc, err := narrative.ParseDocument(text)
	if err != nil {
		observability.RecordNarrativeFailure("parse")
		log.WithError(err).Warn("narrative is not a valid JSON document")
		report.NarrativeError = err.Error()
		return
	}
	report.Narrative = doc
}
