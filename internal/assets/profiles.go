package assets

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"solana-credit-lab/internal/domain"
	"solana-credit-lab/internal/logging"
	"solana-credit-lab/internal/solana"
)

// DefaultPageLimit is the number of assets requested in the single DAS page.
// Wallets holding more distinct assets are under-represented.
const DefaultPageLimit = 100

// ProfileBuilder merges token holdings, the native balance and staked SOL
// into one ordered list of asset profiles.
type ProfileBuilder struct {
	assets    solana.AssetClient
	stake     StakeSource
	pageLimit int
	logger    *logrus.Entry
}

// BuilderOptions contains configuration for creating a ProfileBuilder.
type BuilderOptions struct {
	Assets    solana.AssetClient
	Stake     StakeSource
	PageLimit int
	Logger    *logrus.Entry
}

// NewProfileBuilder creates a new asset profile builder.
func NewProfileBuilder(opts BuilderOptions) *ProfileBuilder {
	limit := opts.PageLimit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	return &ProfileBuilder{
		assets:    opts.Assets,
		stake:     opts.Stake,
		pageLimit: limit,
		logger:    logging.OrDiscard(opts.Logger),
	}
}

// Build returns token profiles in upstream order, followed by SOL and
// stakedSOL when their balances are positive. Asset fetch failures are
// returned; stake failures are not.
func (b *ProfileBuilder) Build(ctx context.Context, address string) ([]domain.AssetProfile, error) {
	page, err := b.assets.GetAssetsByOwner(ctx, address, 1, b.pageLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch assets: %w", err)
	}

	var ps profileSet
	for i := range page.Items {
		asset := &page.Items[i]
		if !asset.IsFungible() {
			continue
		}
		symbol := tokenSymbol(asset.Symbol())
		if symbol == "" {
			if asset.Symbol() != "" {
				b.logger.WithField("asset", asset.ID).Debug("skipping token with reserved symbol")
			}
			continue
		}
		balance, err := normalizedBalance(asset.TokenInfo)
		if err != nil {
			b.logger.WithFields(logrus.Fields{
				"asset":  asset.ID,
				"symbol": symbol,
			}).WithError(err).Warn("skipping asset with unreadable balance")
			continue
		}
		if !balance.IsPositive() {
			continue
		}
		ps.add(symbol, balance)
	}

	// Synthetic entries stay after every token.
	if lamports := page.NativeLamports(); lamports > 0 {
		ps.append(domain.SymbolSOL, domain.LamportsToSOL(lamports))
	}

	if b.stake != nil {
		if staked := b.stake.StakedBalance(ctx, address); staked.IsPositive() {
			ps.append(domain.SymbolStakedSOL, staked)
		}
	}

	b.logger.WithFields(logrus.Fields{
		"address":  address,
		"items":    len(page.Items),
		"profiles": len(ps.profiles),
	}).Debug("asset profiles built")

	if ps.profiles == nil {
		return []domain.AssetProfile{}, nil
	}
	return ps.profiles, nil
}

// tokenSymbol keeps token entries apart from the synthetic SOL and stakedSOL
// entries: wrapped SOL is renamed, a stakedSOL token is dropped.
func tokenSymbol(symbol string) string {
	switch symbol {
	case domain.SymbolSOL:
		return domain.SymbolWrappedSOL
	case domain.SymbolStakedSOL:
		return ""
	}
	return symbol
}

// normalizedBalance returns raw / 10^decimals.
func normalizedBalance(info *solana.TokenInfo) (decimal.Decimal, error) {
	if info.Balance == "" {
		return decimal.Zero, nil
	}
	raw, err := decimal.NewFromString(info.Balance.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse balance %q: %w", info.Balance, err)
	}
	return raw.Shift(-info.Decimals), nil
}

// profileSet keeps first-seen order and folds repeated symbols into one entry.
type profileSet struct {
	profiles []domain.AssetProfile
	index    map[string]int
}

func (s *profileSet) add(symbol string, balance decimal.Decimal) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[symbol]; ok {
		s.profiles[i].Balance = s.profiles[i].Balance.Add(balance)
		return
	}
	s.append(symbol, balance)
}

// append adds an entry at the tail without merging.
func (s *profileSet) append(symbol string, balance decimal.Decimal) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	s.index[symbol] = len(s.profiles)
	s.profiles = append(s.profiles, domain.AssetProfile{Symbol: symbol, Balance: balance})
}
