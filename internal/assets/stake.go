// Package assets builds the holdings profile of a wallet from token,
// native and stake balances.
package assets

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"solana-credit-lab/internal/domain"
	"solana-credit-lab/internal/logging"
	"solana-credit-lab/internal/observability"
	"solana-credit-lab/internal/solana"
)

// StakeAuthorityOffset is the byte offset of the authorized withdrawer
// inside stake account data.
const StakeAuthorityOffset = 44

// StakeSource returns the staked balance of an address in SOL.
type StakeSource interface {
	StakedBalance(ctx context.Context, address string) decimal.Decimal
}

// StakeFetcher sums the stake accounts controlled by an address.
type StakeFetcher struct {
	rpc    solana.RPCClient
	logger *logrus.Entry
}

// NewStakeFetcher creates a stake fetcher backed by rpc.
func NewStakeFetcher(rpc solana.RPCClient, logger *logrus.Entry) *StakeFetcher {
	return &StakeFetcher{
		rpc:    rpc,
		logger: logging.OrDiscard(logger),
	}
}

// StakedBalance returns the total balance of all stake accounts whose
// authority is address. Lookup failures degrade to zero with a warning.
func (f *StakeFetcher) StakedBalance(ctx context.Context, address string) decimal.Decimal {
	accounts, err := f.rpc.GetProgramAccounts(ctx, solana.StakeProgramID, []solana.ProgramAccountFilter{
		{Memcmp: &solana.MemcmpFilter{Offset: StakeAuthorityOffset, Bytes: address}},
	})
	if err != nil {
		observability.RecordStakeFallback()
		f.logger.WithField("address", address).WithError(err).Warn("stake accounts fetch failed, using 0")
		return decimal.Zero
	}

	total := new(big.Int)
	for _, acc := range accounts {
		total.Add(total, new(big.Int).SetUint64(acc.Lamports))
	}

	f.logger.WithFields(logrus.Fields{
		"address":  address,
		"accounts": len(accounts),
	}).Debug("stake accounts fetched")

	return decimal.NewFromBigInt(total, -domain.NativeDecimals)
}
