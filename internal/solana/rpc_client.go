package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
)

// Well-known program IDs.
const (
	StakeProgramID = "Stake11111111111111111111111111111111111111"
)

// HTTPClient implements RPCClient using HTTP JSON-RPC 2.0 over a RequestClient.
type HTTPClient struct {
	endpoint  string
	http      *RequestClient
	requestID atomic.Uint64
}

// NewHTTPClient creates a new Solana RPC HTTP client.
func NewHTTPClient(endpoint string, rc *RequestClient) *HTTPClient {
	if rc == nil {
		rc = NewRequestClient(WithTarget("rpc"))
	}
	return &HTTPClient{
		endpoint: endpoint,
		http:     rc,
	}
}

// Compile-time interface checks.
var (
	_ RPCClient   = (*HTTPClient)(nil)
	_ AssetClient = (*HTTPClient)(nil)
)

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call. Transport failures are retried by the
// request client; RPC error objects are returned as-is.
func (c *HTTPClient) call(ctx context.Context, method string, params any, result any) error {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	var resp rpcResponse
	if err := c.http.Do(ctx, http.MethodPost, c.endpoint, req, &resp); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	if resp.Error != nil {
		return resp.Error
	}

	if result != nil && len(resp.Result) > 0 && string(resp.Result) != "null" {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("unmarshal %s result: %w", method, err)
		}
	}
	return nil
}

// GetProgramAccounts lists accounts owned by programID matching all filters.
// Account data is not requested; only balances are returned.
func (c *HTTPClient) GetProgramAccounts(ctx context.Context, programID string, filters []ProgramAccountFilter) ([]ProgramAccount, error) {
	config := map[string]any{
		"encoding":  "base64",
		"dataSlice": map[string]int{"offset": 0, "length": 0},
	}
	if len(filters) > 0 {
		config["filters"] = filters
	}

	var result []getProgramAccountsResult
	if err := c.call(ctx, "getProgramAccounts", []any{programID, config}, &result); err != nil {
		return nil, err
	}

	accounts := make([]ProgramAccount, len(result))
	for i, r := range result {
		accounts[i] = ProgramAccount{
			Pubkey:   r.Pubkey,
			Lamports: r.Account.Lamports,
			Owner:    r.Account.Owner,
		}
	}
	return accounts, nil
}

// getProgramAccountsResult is the raw RPC response item for getProgramAccounts.
type getProgramAccountsResult struct {
	Pubkey  string `json:"pubkey"`
	Account struct {
		Lamports uint64 `json:"lamports"`
		Owner    string `json:"owner"`
	} `json:"account"`
}

// GetAssetsByOwner returns one page of digital assets owned by owner
// (DAS API). Fungible tokens and the native balance are included,
// zero balances are not.
func (c *HTTPClient) GetAssetsByOwner(ctx context.Context, owner string, page, limit int) (*AssetPage, error) {
	params := map[string]any{
		"ownerAddress": owner,
		"page":         page,
		"limit":        limit,
		"options": map[string]bool{
			"showUnverifiedCollections": false,
			"showCollectionMetadata":    false,
			"showGrandTotal":            false,
			"showFungible":              true,
			"showNativeBalance":         true,
			"showInscription":           false,
			"showZeroBalance":           false,
		},
	}

	var result AssetPage
	if err := c.call(ctx, "getAssetsByOwner", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
