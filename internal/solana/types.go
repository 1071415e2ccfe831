package solana

import (
	"encoding/json"
	"strings"
)

// MemcmpFilter matches account data bytes at Offset against base58 Bytes.
type MemcmpFilter struct {
	Offset int    `json:"offset"`
	Bytes  string `json:"bytes"`
}

// ProgramAccountFilter is one getProgramAccounts filter.
type ProgramAccountFilter struct {
	Memcmp   *MemcmpFilter `json:"memcmp,omitempty"`
	DataSize *int          `json:"dataSize,omitempty"`
}

// ProgramAccount from getProgramAccounts.
type ProgramAccount struct {
	Pubkey   string
	Lamports uint64
	Owner    string
}

// Asset interfaces reported by DAS for fungible tokens.
const (
	InterfaceFungibleToken = "FungibleToken"
	InterfaceFungibleAsset = "FungibleAsset"
)

// AssetPage is a getAssetsByOwner result page.
type AssetPage struct {
	Total         int            `json:"total"`
	Limit         int            `json:"limit"`
	Page          int            `json:"page"`
	Items         []Asset        `json:"items"`
	NativeBalance *NativeBalance `json:"nativeBalance"`
}

// NativeLamports returns the native balance or 0 when absent.
func (p *AssetPage) NativeLamports() uint64 {
	if p == nil || p.NativeBalance == nil {
		return 0
	}
	return p.NativeBalance.Lamports
}

// NativeBalance is the SOL balance block of a DAS response.
type NativeBalance struct {
	Lamports    uint64  `json:"lamports"`
	PricePerSOL float64 `json:"price_per_sol,omitempty"`
	TotalPrice  float64 `json:"total_price,omitempty"`
}

// Asset is one DAS item. Unrecognized fields are ignored.
type Asset struct {
	ID        string     `json:"id"`
	Interface string     `json:"interface"`
	TokenInfo *TokenInfo `json:"token_info"`
}

// TokenInfo carries fungible token balance data.
type TokenInfo struct {
	Symbol   string      `json:"symbol"`
	Balance  json.Number `json:"balance"` // raw amount, may exceed float precision
	Decimals int32       `json:"decimals"`
}

// IsFungible reports whether the asset carries a fungible token balance.
func (a *Asset) IsFungible() bool {
	if a.TokenInfo == nil {
		return false
	}
	switch a.Interface {
	case "", InterfaceFungibleToken, InterfaceFungibleAsset:
		return true
	}
	return false
}

// Symbol returns the trimmed token symbol, or "" when unknown.
func (a *Asset) Symbol() string {
	if a.TokenInfo == nil {
		return ""
	}
	s := strings.TrimSpace(a.TokenInfo.Symbol)
	if strings.EqualFold(s, "unknown") {
		return ""
	}
	return s
}
