package stub

import (
	"context"
	"sync"

	"solana-credit-lab/internal/domain"
	"solana-credit-lab/internal/solana"
)

// HistoryCall records one GetTransactionHistory invocation.
type HistoryCall struct {
	Address string
	Before  string
	Limit   int
}

// Client implements solana.RPCClient, solana.AssetClient and
// solana.TransactionClient from in-memory fixtures.
type Client struct {
	mu sync.Mutex

	// ProgramAccounts keyed by the memcmp bytes of the first filter.
	ProgramAccounts    map[string][]solana.ProgramAccount
	ProgramAccountsErr error

	Assets    map[string]*solana.AssetPage
	AssetsErr error

	// Histories hold each address's full history, newest first.
	Histories  map[string][]domain.TransactionSummary
	HistoryErr error

	Parsed   map[string]domain.ParsedTransaction
	ParseErr error

	ProgramAccountCalls int
	AssetCalls          int
	HistoryCalls        []HistoryCall
	ParseCalls          [][]string
}

// NewClient creates a new stub client.
func NewClient() *Client {
	return &Client{
		ProgramAccounts: make(map[string][]solana.ProgramAccount),
		Assets:          make(map[string]*solana.AssetPage),
		Histories:       make(map[string][]domain.TransactionSummary),
		Parsed:          make(map[string]domain.ParsedTransaction),
	}
}

// Compile-time interface checks.
var (
	_ solana.RPCClient         = (*Client)(nil)
	_ solana.AssetClient       = (*Client)(nil)
	_ solana.TransactionClient = (*Client)(nil)
)

// GetProgramAccounts returns accounts registered under the first memcmp filter bytes.
func (c *Client) GetProgramAccounts(_ context.Context, _ string, filters []solana.ProgramAccountFilter) ([]solana.ProgramAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ProgramAccountCalls++
	if c.ProgramAccountsErr != nil {
		return nil, c.ProgramAccountsErr
	}

	key := ""
	if len(filters) > 0 && filters[0].Memcmp != nil {
		key = filters[0].Memcmp.Bytes
	}
	return append([]solana.ProgramAccount(nil), c.ProgramAccounts[key]...), nil
}

// GetAssetsByOwner returns the stored page for owner, or an empty page.
func (c *Client) GetAssetsByOwner(_ context.Context, owner string, _, _ int) (*solana.AssetPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.AssetCalls++
	if c.AssetsErr != nil {
		return nil, c.AssetsErr
	}

	page, ok := c.Assets[owner]
	if !ok {
		return &solana.AssetPage{}, nil
	}
	pageCopy := *page
	pageCopy.Items = append([]solana.Asset(nil), page.Items...)
	return &pageCopy, nil
}

// GetTransactionHistory pages through the stored history using before as cursor.
func (c *Client) GetTransactionHistory(_ context.Context, address, before string, limit int) ([]domain.TransactionSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.HistoryCalls = append(c.HistoryCalls, HistoryCall{Address: address, Before: before, Limit: limit})
	if c.HistoryErr != nil {
		return nil, c.HistoryErr
	}

	history := c.Histories[address]
	start := 0
	if before != "" {
		start = len(history)
		for i, tx := range history {
			if tx.Signature == before {
				start = i + 1
				break
			}
		}
	}

	end := len(history)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	if start >= end {
		return nil, nil
	}
	return append([]domain.TransactionSummary(nil), history[start:end]...), nil
}

// ParseTransactions returns stored records for known signatures, in request order.
func (c *Client) ParseTransactions(_ context.Context, signatures []string) ([]domain.ParsedTransaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ParseCalls = append(c.ParseCalls, append([]string(nil), signatures...))
	if c.ParseErr != nil {
		return nil, c.ParseErr
	}

	out := make([]domain.ParsedTransaction, 0, len(signatures))
	for _, sig := range signatures {
		if tx, ok := c.Parsed[sig]; ok {
			out = append(out, tx)
		}
	}
	return out, nil
}

// AddHistory stores an address history, newest first.
func (c *Client) AddHistory(address string, txs []domain.TransactionSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Histories[address] = txs
}

// AddParsed stores parsed records keyed by signature.
func (c *Client) AddParsed(txs ...domain.ParsedTransaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tx := range txs {
		c.Parsed[tx.Signature] = tx
	}
}

// AddStakeAccounts stores stake accounts for a staker authority.
func (c *Client) AddStakeAccounts(authority string, accounts ...solana.ProgramAccount) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ProgramAccounts[authority] = append(c.ProgramAccounts[authority], accounts...)
}

// SetAssets stores the asset page of owner.
func (c *Client) SetAssets(owner string, page *solana.AssetPage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Assets[owner] = page
}
