package stats

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-credit-lab/internal/domain"
)

func parsedOf(kind, symbol string, n int) []domain.ParsedTransaction {
	out := make([]domain.ParsedTransaction, n)
	for i := range out {
		out[i] = domain.ParsedTransaction{Type: kind, TokenSymbol: symbol}
	}
	return out
}

func TestAggregate_TypeDistributionAndRatios(t *testing.T) {
	parsed := append(parsedOf("SWAP", "USDC", 6), parsedOf("TRANSFER", "SOL", 4)...)
	profiles := []domain.AssetProfile{
		{Symbol: "USDC", Balance: decimal.NewFromInt(10)},
		{Symbol: "SOL", Balance: decimal.NewFromInt(1)},
		{Symbol: "BONK", Balance: decimal.NewFromInt(1000)},
	}

	got := Aggregate(parsed, profiles, 7)

	assert.Equal(t, 10, got.TotalParsed)
	assert.Equal(t, 7, got.SmallTxCount)
	assert.Equal(t, domain.TypeDistribution{"SWAP": 6, "TRANSFER": 4}, got.TypeDistribution)
	assert.Equal(t, got.TotalParsed, got.TypeDistribution.Total())

	assert.Equal(t, "60.00%", profiles[0].TxVolumeRatio)
	assert.Equal(t, "40.00%", profiles[1].TxVolumeRatio)
	assert.Equal(t, "0.00%", profiles[2].TxVolumeRatio)
}

func TestAggregate_MissingTypeIsUnknown(t *testing.T) {
	parsed := []domain.ParsedTransaction{{Type: ""}, {Type: "SWAP"}, {}}

	got := Aggregate(parsed, nil, 0)

	assert.Equal(t, 2, got.TypeDistribution[domain.TypeUnknown])
	assert.Equal(t, 1, got.TypeDistribution["SWAP"])
	assert.Equal(t, 3, got.TypeDistribution.Total())
}

func TestAggregate_NoParsedTransactions(t *testing.T) {
	profiles := []domain.AssetProfile{
		{Symbol: "SOL", Balance: decimal.NewFromInt(2)},
		{Symbol: "stakedSOL", Balance: decimal.NewFromInt(5)},
	}

	got := Aggregate(nil, profiles, 3)

	assert.Equal(t, 0, got.TotalParsed)
	assert.NotNil(t, got.TypeDistribution)
	assert.Empty(t, got.TypeDistribution)
	for _, p := range profiles {
		assert.Equal(t, "0.00%", p.TxVolumeRatio)
	}
}

func TestAggregate_IsDeterministic(t *testing.T) {
	parsed := append(parsedOf("SWAP", "JUP", 3), parsedOf("NFT_SALE", "", 2)...)
	a := []domain.AssetProfile{{Symbol: "JUP", Balance: decimal.NewFromInt(1)}}
	b := []domain.AssetProfile{{Symbol: "JUP", Balance: decimal.NewFromInt(1)}}

	require.Equal(t, Aggregate(parsed, a, 1), Aggregate(parsed, b, 1))
	assert.Equal(t, a, b)
}

func TestFormatRatio(t *testing.T) {
	tests := []struct {
		n, total int
		want     string
	}{
		{0, 0, "0.00%"},
		{5, 0, "0.00%"},
		{0, 10, "0.00%"},
		{1, 3, "33.33%"},
		{2, 3, "66.67%"},
		{10, 10, "100.00%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRatio(tt.n, tt.total), "%d/%d", tt.n, tt.total)
	}
}

func TestSmallTransactionRatio(t *testing.T) {
	s := domain.AggregateStats{TotalParsed: 20, SmallTxCount: 80}
	assert.Equal(t, "80.00%", SmallTransactionRatio(s))
	assert.Equal(t, "0.00%", SmallTransactionRatio(domain.AggregateStats{}))
}

func TestTypeShare(t *testing.T) {
	s := domain.AggregateStats{
		TotalParsed:      8,
		TypeDistribution: domain.TypeDistribution{"TRANSFER": 6, "SWAP": 2},
	}
	assert.Equal(t, "75.00%", TypeShare(s, "TRANSFER"))
	assert.Equal(t, "0.00%", TypeShare(s, "STAKE"))
}
