package reporting

import (
	"fmt"
	"io"

	"solana-credit-lab/internal/domain"
)

// WriteConsole prints the short terminal summary shown after each analysis.
func WriteConsole(w io.Writer, r *domain.Report) error {
	if _, err := fmt.Fprintf(w, "\nAsset Overview (%s):\n", r.Address); err != nil {
		return err
	}
	if len(r.Profiles) == 0 {
		fmt.Fprintln(w, "  no assets held")
	}
	for _, p := range r.Profiles {
		fmt.Fprintf(w, "  %s: %s (Transaction Ratio: %s)\n", p.Symbol, p.Balance.String(), ratioOrDash(p.TxVolumeRatio))
	}

	fmt.Fprintln(w, "\nSummary:")
	fmt.Fprintf(w, "  Analyzed Normal Transactions (excluding small): %d, Small Transactions: %d\n",
		r.Stats.TotalParsed, r.Stats.SmallTxCount)

	fmt.Fprint(w, "  Transaction Types:")
	for _, tc := range r.Stats.TypeDistribution.Sorted() {
		fmt.Fprintf(w, " %s=%d", tc.Type, tc.Count)
	}
	fmt.Fprintln(w)

	if grade := CreditGrade(r); grade != "" {
		fmt.Fprintf(w, "  Credit Grade: %s\n", grade)
	}
	_, err := fmt.Fprintln(w, "--------------------------------------------------")
	return err
}
