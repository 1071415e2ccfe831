package solana

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"solana-credit-lab/internal/domain"
)

// EnhancedClient talks to the Helius enhanced transactions API.
type EnhancedClient struct {
	baseURL string
	apiKey  string
	http    *RequestClient
}

// NewEnhancedClient creates a client for baseURL (e.g. https://api.helius.xyz).
func NewEnhancedClient(baseURL, apiKey string, rc *RequestClient) *EnhancedClient {
	if rc == nil {
		rc = NewRequestClient(WithTarget("enhanced"))
	}
	return &EnhancedClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    rc,
	}
}

// Compile-time interface check.
var _ TransactionClient = (*EnhancedClient)(nil)

// GetTransactionHistory returns up to limit transactions for address, newest first.
func (c *EnhancedClient) GetTransactionHistory(ctx context.Context, address, before string, limit int) ([]domain.TransactionSummary, error) {
	q := url.Values{}
	q.Set("api-key", c.apiKey)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if before != "" {
		q.Set("before", before)
	}
	endpoint := fmt.Sprintf("%s/v0/addresses/%s/transactions?%s", c.baseURL, url.PathEscape(address), q.Encode())

	var result []domain.TransactionSummary
	if err := c.http.Do(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, fmt.Errorf("get transaction history: %w", err)
	}
	return result, nil
}

// parseRequest is the body of POST /v0/transactions.
type parseRequest struct {
	Transactions []string `json:"transactions"`
}

// ParseTransactions resolves signatures into parsed records, in upstream order.
func (c *EnhancedClient) ParseTransactions(ctx context.Context, signatures []string) ([]domain.ParsedTransaction, error) {
	if len(signatures) == 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("api-key", c.apiKey)
	endpoint := fmt.Sprintf("%s/v0/transactions?%s", c.baseURL, q.Encode())

	var result []domain.ParsedTransaction
	if err := c.http.Do(ctx, http.MethodPost, endpoint, parseRequest{Transactions: signatures}, &result); err != nil {
		return nil, fmt.Errorf("parse transactions: %w", err)
	}
	return result, nil
}
