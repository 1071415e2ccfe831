// Package reporting renders analysis reports for people and spreadsheets.
package reporting

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"solana-credit-lab/internal/domain"
	"solana-credit-lab/internal/stats"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *domain.Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Credit Analysis Report\n\n")
	sb.WriteString(fmt.Sprintf("Address: `%s`\n\n", r.Address))
	sb.WriteString(fmt.Sprintf("Generated: %s | Run: %s\n\n", r.GeneratedAt.Format(time.RFC3339), r.RunID))

	if grade := CreditGrade(r); grade != "" {
		sb.WriteString(fmt.Sprintf("**Credit Grade: %s**\n\n", grade))
	}

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Analyzed Normal Transactions | %d |\n", r.Stats.TotalParsed))
	sb.WriteString(fmt.Sprintf("| Small Transactions | %d |\n", r.Stats.SmallTxCount))
	sb.WriteString(fmt.Sprintf("| Small Transaction Ratio | %s |\n", stats.SmallTransactionRatio(r.Stats)))
	sb.WriteString(fmt.Sprintf("| History Pages | %d |\n", r.Pagination.Pages))
	sb.WriteString(fmt.Sprintf("| Transactions Observed | %d |\n", r.Pagination.Observed))
	sb.WriteString(fmt.Sprintf("| Stop Reason | %s |\n", r.Pagination.StopReason))
	sb.WriteString("\n")

	// Asset Overview
	sb.WriteString("## Asset Overview\n\n")
	if len(r.Profiles) > 0 {
		sb.WriteString("| Token | Balance | Transaction Ratio |\n")
		sb.WriteString("|-------|---------|-------------------|\n")
		for _, p := range r.Profiles {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", p.Symbol, p.Balance.String(), ratioOrDash(p.TxVolumeRatio)))
		}
	} else {
		sb.WriteString("No assets held.\n")
	}
	sb.WriteString("\n")

	// Transaction Types
	sb.WriteString("## Transaction Types\n\n")
	if len(r.Stats.TypeDistribution) > 0 {
		sb.WriteString("| Type | Count | Share |\n")
		sb.WriteString("|------|-------|-------|\n")
		for _, tc := range r.Stats.TypeDistribution.Sorted() {
			sb.WriteString(fmt.Sprintf("| %s | %d | %s |\n", tc.Type, tc.Count, stats.TypeShare(r.Stats, tc.Type)))
		}
	} else {
		sb.WriteString("No parsed transactions.\n")
	}
	sb.WriteString("\n")

	// Narrative
	sb.WriteString("## Credit Analysis\n\n")
	switch {
	case len(r.Narrative) > 0:
		doc, err := json.MarshalIndent(r.Narrative, "", "  ")
		if err == nil {
			sb.WriteString("```json\n")
			sb.Write(doc)
			sb.WriteString("\n```\n")
		}
	case r.NarrativeError != "":
		sb.WriteString(fmt.Sprintf("Narrative unavailable: %s\n", r.NarrativeError))
	default:
		sb.WriteString("Narrative not generated.\n")
	}

	return sb.String()
}

// CreditGrade extracts Summary."Credit Grade" from the narrative, if any.
func CreditGrade(r *domain.Report) string {
	summary, ok := r.Narrative["Summary"].(map[string]any)
	if !ok {
		return ""
	}
	grade, _ := summary["Credit Grade"].(string)
	return grade
}

func ratioOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
