package assets

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-credit-lab/internal/domain"
	"solana-credit-lab/internal/solana"
	"solana-credit-lab/internal/solana/stub"
)

const wallet = "wallet1"

func token(id, symbol, balance string, decimals int32) solana.Asset {
	return solana.Asset{
		ID:        id,
		Interface: solana.InterfaceFungibleToken,
		TokenInfo: &solana.TokenInfo{Symbol: symbol, Balance: json.Number(balance), Decimals: decimals},
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newBuilder(client *stub.Client) *ProfileBuilder {
	return NewProfileBuilder(BuilderOptions{
		Assets: client,
		Stake:  NewStakeFetcher(client, nil),
	})
}

func requireProfiles(t *testing.T, want []domain.AssetProfile, got []domain.AssetProfile) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Symbol, got[i].Symbol, "symbol at %d", i)
		assert.True(t, want[i].Balance.Equal(got[i].Balance),
			"balance of %s: want %s, got %s", want[i].Symbol, want[i].Balance, got[i].Balance)
		assert.Empty(t, got[i].TxVolumeRatio)
	}
}

func TestStakeFetcher_SumsAccounts(t *testing.T) {
	client := stub.NewClient()
	client.AddStakeAccounts(wallet,
		solana.ProgramAccount{Pubkey: "s1", Lamports: 1_500_000_000},
		solana.ProgramAccount{Pubkey: "s2", Lamports: 250_000_000},
	)
	client.AddStakeAccounts("someone-else", solana.ProgramAccount{Pubkey: "s3", Lamports: 9_000_000_000})

	got := NewStakeFetcher(client, nil).StakedBalance(context.Background(), wallet)
	assert.True(t, got.Equal(dec("1.75")), "got %s", got)
}

func TestStakeFetcher_FailureDegradesToZero(t *testing.T) {
	client := stub.NewClient()
	client.ProgramAccountsErr = errors.New("rpc down")

	got := NewStakeFetcher(client, nil).StakedBalance(context.Background(), wallet)
	assert.True(t, got.IsZero())
	assert.Equal(t, 1, client.ProgramAccountCalls)
}

func TestBuild_NativeOnly(t *testing.T) {
	client := stub.NewClient()
	client.SetAssets(wallet, &solana.AssetPage{
		NativeBalance: &solana.NativeBalance{Lamports: 2_500_000_000},
	})

	profiles, err := newBuilder(client).Build(context.Background(), wallet)
	require.NoError(t, err)

	requireProfiles(t, []domain.AssetProfile{
		{Symbol: domain.SymbolSOL, Balance: dec("2.5")},
	}, profiles)
}

func TestBuild_OrderingAndFiltering(t *testing.T) {
	client := stub.NewClient()
	client.SetAssets(wallet, &solana.AssetPage{
		Items: []solana.Asset{
			token("m1", "USDC", "12500000", 6),
			token("m2", "Unknown", "100", 0),
			token("m3", "", "100", 0),
			token("m4", "ZERO", "0", 9),
			{ID: "nft", Interface: "V1_NFT", TokenInfo: &solana.TokenInfo{Symbol: "APE", Balance: "1"}},
			{ID: "bare", Interface: solana.InterfaceFungibleAsset},
			token("m5", "BONK", "123456789012345678901234", 5),
		},
		NativeBalance: &solana.NativeBalance{Lamports: 1},
	})
	client.AddStakeAccounts(wallet, solana.ProgramAccount{Pubkey: "s1", Lamports: 3_000_000_000})

	profiles, err := newBuilder(client).Build(context.Background(), wallet)
	require.NoError(t, err)

	requireProfiles(t, []domain.AssetProfile{
		{Symbol: "USDC", Balance: dec("12.5")},
		{Symbol: "BONK", Balance: dec("1234567890123456789.01234")},
		{Symbol: domain.SymbolSOL, Balance: dec("0.000000001")},
		{Symbol: domain.SymbolStakedSOL, Balance: dec("3")},
	}, profiles)
}

func TestBuild_DuplicateSymbolsMerged(t *testing.T) {
	client := stub.NewClient()
	client.SetAssets(wallet, &solana.AssetPage{
		Items: []solana.Asset{
			token("m1", "USDC", "1000000", 6),
			token("wsol", "SOL", "500000000", 9),
			token("m2", "USDC", "2000000", 6),
		},
		NativeBalance: &solana.NativeBalance{Lamports: 1_000_000_000},
	})

	profiles, err := newBuilder(client).Build(context.Background(), wallet)
	require.NoError(t, err)

	requireProfiles(t, []domain.AssetProfile{
		{Symbol: "USDC", Balance: dec("3")},
		{Symbol: domain.SymbolWrappedSOL, Balance: dec("0.5")},
		{Symbol: domain.SymbolSOL, Balance: dec("1")},
	}, profiles)
}

func TestBuild_ReservedSymbolsStayLast(t *testing.T) {
	client := stub.NewClient()
	client.SetAssets(wallet, &solana.AssetPage{
		Items: []solana.Asset{
			token("wsol", "SOL", "500000000", 9),
			token("fake", "stakedSOL", "7", 0),
			token("m1", "USDC", "1000000", 6),
		},
		NativeBalance: &solana.NativeBalance{Lamports: 1_000_000_000},
	})
	client.AddStakeAccounts(wallet, solana.ProgramAccount{Pubkey: "s1", Lamports: 2_000_000_000})

	profiles, err := newBuilder(client).Build(context.Background(), wallet)
	require.NoError(t, err)

	requireProfiles(t, []domain.AssetProfile{
		{Symbol: domain.SymbolWrappedSOL, Balance: dec("0.5")},
		{Symbol: "USDC", Balance: dec("1")},
		{Symbol: domain.SymbolSOL, Balance: dec("1")},
		{Symbol: domain.SymbolStakedSOL, Balance: dec("2")},
	}, profiles)
}

func TestBuild_UnreadableBalanceSkipped(t *testing.T) {
	client := stub.NewClient()
	client.SetAssets(wallet, &solana.AssetPage{
		Items: []solana.Asset{
			token("m1", "BAD", "12abc", 6),
			token("m2", "GOOD", "7", 0),
		},
	})

	profiles, err := newBuilder(client).Build(context.Background(), wallet)
	require.NoError(t, err)
	requireProfiles(t, []domain.AssetProfile{{Symbol: "GOOD", Balance: dec("7")}}, profiles)
}

func TestBuild_StakeFailureIsNotFatal(t *testing.T) {
	client := stub.NewClient()
	client.SetAssets(wallet, &solana.AssetPage{NativeBalance: &solana.NativeBalance{Lamports: 5}})
	client.ProgramAccountsErr = errors.New("timeout")

	profiles, err := newBuilder(client).Build(context.Background(), wallet)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, domain.SymbolSOL, profiles[0].Symbol)
}

func TestBuild_AssetFailureIsFatal(t *testing.T) {
	client := stub.NewClient()
	client.AssetsErr = errors.New("das unavailable")

	profiles, err := newBuilder(client).Build(context.Background(), wallet)
	require.Error(t, err)
	assert.Nil(t, profiles)
	assert.Contains(t, err.Error(), "das unavailable")
	assert.Equal(t, 0, client.ProgramAccountCalls, "stake lookup must not run after asset failure")
}

func TestBuild_EmptyWallet(t *testing.T) {
	client := stub.NewClient()

	profiles, err := newBuilder(client).Build(context.Background(), wallet)
	require.NoError(t, err)
	assert.NotNil(t, profiles)
	assert.Empty(t, profiles)
}

func TestBuild_Idempotent(t *testing.T) {
	client := stub.NewClient()
	client.SetAssets(wallet, &solana.AssetPage{
		Items:         []solana.Asset{token("m1", "JUP", "42000000", 6), token("m2", "USDT", "1", 6)},
		NativeBalance: &solana.NativeBalance{Lamports: 10},
	})
	client.AddStakeAccounts(wallet, solana.ProgramAccount{Pubkey: "s", Lamports: 7})

	b := newBuilder(client)
	first, err := b.Build(context.Background(), wallet)
	require.NoError(t, err)
	second, err := b.Build(context.Background(), wallet)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuild_NoStakeSource(t *testing.T) {
	client := stub.NewClient()
	client.SetAssets(wallet, &solana.AssetPage{NativeBalance: &solana.NativeBalance{Lamports: 10}})

	b := NewProfileBuilder(BuilderOptions{Assets: client, PageLimit: 50})
	profiles, err := b.Build(context.Background(), wallet)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}
