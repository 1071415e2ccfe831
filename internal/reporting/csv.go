package reporting

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"solana-credit-lab/internal/domain"
	"solana-credit-lab/internal/stats"
)

// RenderProfilesCSV renders asset profiles as CSV string.
func RenderProfilesCSV(r *domain.Report) string {
	rows := [][]string{{"address", "symbol", "balance", "tx_volume_ratio"}}
	for _, p := range r.Profiles {
		rows = append(rows, []string{r.Address, p.Symbol, p.Balance.String(), p.TxVolumeRatio})
	}
	return writeCSV(rows)
}

// RenderTypeDistributionCSV renders transaction type counts as CSV string,
// ordered by count DESC.
func RenderTypeDistributionCSV(r *domain.Report) string {
	rows := [][]string{{"address", "type", "count", "share"}}
	for _, tc := range r.Stats.TypeDistribution.Sorted() {
		rows = append(rows, []string{
			r.Address,
			tc.Type,
			strconv.Itoa(tc.Count),
			stats.TypeShare(r.Stats, tc.Type),
		})
	}
	return writeCSV(rows)
}

func writeCSV(rows [][]string) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	// WriteAll flushes; a bytes.Buffer cannot fail.
	_ = w.WriteAll(rows)
	return buf.String()
}
