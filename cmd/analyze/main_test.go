package main

import (
	"bufio"
	"bytes"
	"context"
	"crypto/ed25519"
	"strings"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-credit-lab/internal/analyzer"
	"solana-credit-lab/internal/assets"
	"solana-credit-lab/internal/domain"
	"solana-credit-lab/internal/history"
	"solana-credit-lab/internal/logging"
	"solana-credit-lab/internal/solana/stub"
	"solana-credit-lab/internal/storage"
	"solana-credit-lab/internal/storage/memory"
)

var wallet = base58.Encode(ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize)).Public().(ed25519.PublicKey))

type noSleep struct{}

func (noSleep) Sleep(context.Context, time.Duration) error { return nil }

type countingSink struct{ saved []string }

func (s *countingSink) Save(_ context.Context, r *domain.Report) error {
	s.saved = append(s.saved, r.Address)
	return nil
}

func newTestApp(t *testing.T, out *bytes.Buffer) (*app, *memory.ReportStore, *countingSink) {
	t.Helper()
	client := stub.NewClient()
	client.AddHistory(wallet, []domain.TransactionSummary{
		{Signature: "a", NativeTransfers: []domain.NativeTransfer{{Amount: 500_000_000}}},
	})
	client.AddParsed(domain.ParsedTransaction{Signature: "a", Type: "TRANSFER"})

	az := analyzer.New(analyzer.Options{
		History:  history.NewPaginator(history.PaginatorOptions{Client: client}),
		Profiles: assets.NewProfileBuilder(assets.BuilderOptions{Assets: client, Stake: assets.NewStakeFetcher(client, nil)}),
		Resolver: history.NewResolver(history.ResolverOptions{Client: client, Sleeper: noSleep{}}),
	})

	store := memory.NewReportStore()
	files := &countingSink{}
	return &app{
		analyzer: az,
		sinks:    storage.NewMultiSink(nil, storage.NamedSink{Name: "memory", Sink: store}),
		fileSink: files,
		reports:  store,
		out:      out,
		logger:   logging.Discard(),
	}, store, files
}

func TestAddressList_Set(t *testing.T) {
	var l addressList
	require.NoError(t, l.Set("a, b,,c"))
	require.NoError(t, l.Set("d"))
	assert.Equal(t, addressList{"a", "b", "c", "d"}, l)
	assert.Equal(t, "a,b,c,d", l.String())
}

func TestPromptHelpers(t *testing.T) {
	assert.True(t, isExit("EXIT"))
	assert.True(t, isExit("quit"))
	assert.False(t, isExit("exiting"))
	assert.True(t, isYes(" Y "))
	assert.True(t, isYes("yes"))
	assert.False(t, isYes("n"))
	assert.False(t, isYes(""))
}

func TestWithAPIKey(t *testing.T) {
	assert.Equal(t, "https://mainnet.helius-rpc.com/?api-key=k", withAPIKey("https://mainnet.helius-rpc.com", "k"))
	assert.Equal(t, "https://rpc.example/v1?api-key=k&x=1", withAPIKey("https://rpc.example/v1?x=1", "k"))
}

func TestRun_ContinuesAfterFailure(t *testing.T) {
	var out bytes.Buffer
	a, store, files := newTestApp(t, &out)

	failed := a.run(context.Background(), []string{"not-an-address", wallet}, bufio.NewScanner(strings.NewReader("")))

	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, store.Len())
	assert.Empty(t, files.saved, "file sink runs only when saving is enabled")
	assert.Contains(t, out.String(), wallet)
}

func TestRun_InteractiveAsksToSave(t *testing.T) {
	var out bytes.Buffer
	a, store, files := newTestApp(t, &out)
	a.interactive = true
	a.askSave = true

	input := strings.Join([]string{wallet, "y", "", wallet, "n", "quit", wallet}, "\n")
	failed := a.run(context.Background(), nil, bufio.NewScanner(strings.NewReader(input)))

	assert.Zero(t, failed)
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, []string{wallet}, files.saved)
	assert.Contains(t, out.String(), "Save analysis to file? (y/n): ")
}

func TestRun_SaveFlag(t *testing.T) {
	var out bytes.Buffer
	a, _, files := newTestApp(t, &out)
	a.saveFile = true

	failed := a.run(context.Background(), []string{wallet}, bufio.NewScanner(strings.NewReader("")))

	assert.Zero(t, failed)
	assert.Equal(t, []string{wallet}, files.saved)
}

func TestRun_StopsWhenCancelled(t *testing.T) {
	var out bytes.Buffer
	a, store, _ := newTestApp(t, &out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	failed := a.run(ctx, []string{wallet, wallet}, bufio.NewScanner(strings.NewReader("")))
	assert.Zero(t, failed)
	assert.Zero(t, store.Len())
}

func TestRun_ShowLastPrintsStoredReport(t *testing.T) {
	var out bytes.Buffer
	a, store, _ := newTestApp(t, &out)

	require.Zero(t, a.run(context.Background(), []string{wallet}, bufio.NewScanner(strings.NewReader(""))))
	require.Equal(t, 1, store.Len())
	out.Reset()

	a.showLast = true
	failed := a.run(context.Background(), []string{wallet, "never-analyzed"}, bufio.NewScanner(strings.NewReader("")))

	assert.Equal(t, 1, failed, "unknown address has no stored report")
	assert.Equal(t, 1, store.Len(), "show-last does not analyze")
	assert.Contains(t, out.String(), wallet)
}
