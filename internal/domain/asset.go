package domain

import (
	"encoding/json"
	"math/big"

	"github.com/shopspring/decimal"
)

// Synthetic symbols appended after the token holdings of a wallet.
const (
	SymbolSOL       = "SOL"
	SymbolStakedSOL = "stakedSOL"

	// SymbolWrappedSOL replaces a token symbol that collides with SymbolSOL.
	SymbolWrappedSOL = "wSOL"
)

// NativeDecimals is the decimal exponent between lamports and SOL.
const NativeDecimals = 9

// AssetProfile represents one holding of the analyzed wallet.
// TxVolumeRatio stays empty until the statistics are computed.
type AssetProfile struct {
	Symbol        string          `json:"symbol"`
	Balance       decimal.Decimal `json:"balance"`
	TxVolumeRatio string          `json:"txVolume"`
}

// MarshalJSON writes Balance as a JSON number instead of a quoted string.
func (p AssetProfile) MarshalJSON() ([]byte, error) {
	type plain AssetProfile
	return json.Marshal(struct {
		plain
		Balance json.Number `json:"balance"`
	}{plain(p), json.Number(p.Balance.String())})
}

// LamportsToSOL converts a raw lamport amount into SOL.
func LamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -NativeDecimals)
}

// SOLToLamports converts a SOL amount into lamports, truncating sub-lamport precision.
func SOLToLamports(sol decimal.Decimal) uint64 {
	if sol.IsNegative() {
		return 0
	}
	return sol.Shift(NativeDecimals).Truncate(0).BigInt().Uint64()
}
