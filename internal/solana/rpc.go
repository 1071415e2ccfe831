package solana

import (
	"context"

	"solana-credit-lab/internal/domain"
)

// RPCClient defines the Solana JSON-RPC methods used for stake lookups.
type RPCClient interface {
	// GetProgramAccounts lists accounts owned by a program matching all filters.
	GetProgramAccounts(ctx context.Context, programID string, filters []ProgramAccountFilter) ([]ProgramAccount, error)
}

// AssetClient defines the DAS (digital asset standard) methods.
type AssetClient interface {
	// GetAssetsByOwner returns one page of assets owned by an address.
	GetAssetsByOwner(ctx context.Context, owner string, page, limit int) (*AssetPage, error)
}

// TransactionClient defines the enhanced transaction history API.
type TransactionClient interface {
	// GetTransactionHistory returns up to limit transactions of address,
	// newest first, strictly older than before when before is set.
	GetTransactionHistory(ctx context.Context, address, before string, limit int) ([]domain.TransactionSummary, error)

	// ParseTransactions resolves signatures into parsed records.
	ParseTransactions(ctx context.Context, signatures []string) ([]domain.ParsedTransaction, error)
}
