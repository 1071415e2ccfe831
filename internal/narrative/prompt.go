package narrative

import (
	"encoding/json"
	"strings"
	"text/template"

	"solana-credit-lab/internal/domain"
	"solana-credit-lab/internal/stats"
)

const systemPrompt = "You are a Solana on-chain data analysis expert. Output concise JSON in English only, for credit assessment."

var promptTemplate = template.Must(template.New("credit").Funcs(template.FuncMap{
	"json": toJSON,
}).Parse(`You are a Solana on-chain data analysis expert, specializing in credit assessment for lending protocols (such as Solend). Based on the following data, generate a concise analysis report in JSON format, in English only, output complete JSON only, no extra explanation.
- Wallet: {{.Address}}
- Total transactions: {{.Stats.TotalParsed}}
- Small transactions (<{{.SmallThreshold}} SOL): {{.Stats.SmallTxCount}}
- Small transaction ratio: {{.SmallRatio}}
- Transaction types: {{json .Stats.TypeDistribution}}
- Token data: {{json .Profiles}}

Output requirements:
- Each analysis field should not exceed 15 characters, and the conclusion should not exceed 25 characters.
- Include summary, asset overview, behavior analysis, risks, suggestions, and credit conclusion.
- Summary must contain credit grade (High, Medium, Low), based on the following rules:
  - High: Large SOL/stakedSOL (>10 SOL), stable transfers (TRANSFER > 50%), no high risk.
  - Medium: Medium SOL/stakedSOL (1-10 SOL), stable transfers (TRANSFER > 30%), low risk.
  - Low: Little SOL/stakedSOL (<1 SOL), high frequency SWAP or small transactions ratio >80%.
- Asset overview must include liquidity (High: SOL; Medium: stakedSOL, mSOL; Low: other tokens).
- Behavior analysis only includes SWAP, TRANSFER, OTHER.
- Calculate small transaction ratio as smallCount/(totalCount+smallCount).
- Ensure single JSON, no duplicates.

Format:
{
  "Summary": {
    "Total Transactions": number,
    "Small Transactions": number,
    "Small Transaction Ratio": string,
    "Credit Grade": string
  },
  "Asset Overview": [
    {"Token": string, "Balance": number, "Liquidity": string, "Risk": string},
    ...
  ],
  "Behavior Analysis": [
    {"Type": string, "Count": number, "Ratio": string, "Assessment": string},
    ...
  ],
  "Risk": {
    "Dust Attack": string,
    "High-frequency Arbitrage": string,
    "Low Liquidity Tokens": string
  },
  "Suggestions": [string],
  "Credit Conclusion": string
}
`))

type promptData struct {
	Input
	SmallRatio     string
	SmallThreshold string
}

// RenderPrompt renders the user prompt for in.
func RenderPrompt(in Input) (string, error) {
	threshold := "0.1"
	if !in.SmallThreshold.IsZero() {
		threshold = in.SmallThreshold.String()
	}
	profiles := in.Profiles
	if profiles == nil {
		profiles = []domain.AssetProfile{}
	}
	in.Profiles = profiles

	var b strings.Builder
	err := promptTemplate.Execute(&b, promptData{
		Input:          in,
		SmallRatio:     stats.SmallTransactionRatio(in.Stats),
		SmallThreshold: threshold,
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
