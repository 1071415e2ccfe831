// Package stats derives deterministic statistics from parsed transactions.
package stats

import (
	"fmt"

	"solana-credit-lab/internal/domain"
)

// Aggregate counts parsed transactions by type and annotates each profile
// with the share of parsed transactions whose token symbol matches it.
// Profiles are updated in place.
func Aggregate(parsed []domain.ParsedTransaction, profiles []domain.AssetProfile, smallTxCount int) domain.AggregateStats {
	total := len(parsed)
	dist := make(domain.TypeDistribution)
	bySymbol := make(map[string]int)

	for i := range parsed {
		dist[parsed[i].TypeOrUnknown()]++
		if sym := parsed[i].TokenSymbol; sym != "" {
			bySymbol[sym]++
		}
	}

	for i := range profiles {
		profiles[i].TxVolumeRatio = FormatRatio(bySymbol[profiles[i].Symbol], total)
	}

	return domain.AggregateStats{
		TotalParsed:      total,
		SmallTxCount:     smallTxCount,
		TypeDistribution: dist,
	}
}

// FormatRatio renders n/total as a two-decimal percentage.
// A zero total yields "0.00%".
func FormatRatio(n, total int) string {
	if total <= 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(n)*100/float64(total))
}

// SmallTransactionRatio is small / (parsed + small) as a percentage.
func SmallTransactionRatio(s domain.AggregateStats) string {
	return FormatRatio(s.SmallTxCount, s.TotalParsed+s.SmallTxCount)
}

// TypeShare returns the percentage of parsed transactions with type t.
func TypeShare(s domain.AggregateStats, t string) string {
	return FormatRatio(s.TypeDistribution[t], s.TotalParsed)
}
