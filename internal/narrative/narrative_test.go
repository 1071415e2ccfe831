package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"solana-credit-lab/internal/domain"
	"solana-credit-lab/internal/solana"
)

func sampleInput() Input {
	return Input{
		Address: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		Stats: domain.AggregateStats{
			TotalParsed:      10,
			SmallTxCount:     40,
			TypeDistribution: domain.TypeDistribution{"SWAP": 6, "TRANSFER": 4},
		},
		Profiles: []domain.AssetProfile{
			{Symbol: "SOL", Balance: decimal.RequireFromString("2.5"), TxVolumeRatio: "40.00%"},
		},
	}
}

func TestRenderPrompt(t *testing.T) {
	prompt, err := RenderPrompt(sampleInput())
	if err != nil {
		t.Fatalf("RenderPrompt failed: %v", err)
	}

	for _, want := range []string{
		"- Total transactions: 10",
		"- Small transactions (<0.1 SOL): 40",
		"- Small transaction ratio: 80.00%",
		`"SWAP":6`,
		`"symbol":"SOL"`,
		`"balance":2.5`,
		`"txVolume":"40.00%"`,
		"High: Large SOL/stakedSOL (>10 SOL)",
		`"Credit Conclusion": string`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestRenderPrompt_NoProfiles(t *testing.T) {
	in := sampleInput()
	in.Profiles = nil
	in.SmallThreshold = decimal.RequireFromString("0.5")

	prompt, err := RenderPrompt(in)
	if err != nil {
		t.Fatalf("RenderPrompt failed: %v", err)
	}
	if !strings.Contains(prompt, "- Token data: []") {
		t.Error("expected empty token list")
	}
	if !strings.Contains(prompt, "(<0.5 SOL)") {
		t.Error("expected custom threshold")
	}
}

func TestOpenAIClient_Generate(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  {\"Credit Conclusion\":\"Medium\"}\n"}}]}`))
	}))
	defer server.Close()

	c := NewOpenAIClient(OpenAIOptions{BaseURL: server.URL + "/v1/", APIKey: "sk-test"}, solana.WithRetries(1))
	text, err := c.Generate(context.Background(), sampleInput())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if text != `{"Credit Conclusion":"Medium"}` {
		t.Errorf("unexpected text %q", text)
	}
	if got.Model != DefaultModel {
		t.Errorf("expected model %s, got %s", DefaultModel, got.Model)
	}
	if got.MaxCompletionTokens != DefaultMaxTokens {
		t.Errorf("expected max tokens %d, got %d", DefaultMaxTokens, got.MaxCompletionTokens)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
	if !strings.Contains(got.Messages[1].Content, "Total transactions: 10") {
		t.Error("user message should carry the rendered prompt")
	}
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	c := NewOpenAIClient(OpenAIOptions{BaseURL: server.URL, APIKey: "k"}, solana.WithRetries(1))
	_, err := c.Generate(context.Background(), sampleInput())
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestOpenAIClient_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewOpenAIClient(OpenAIOptions{BaseURL: server.URL, APIKey: "bad"}, solana.WithRetries(1))
	_, err := c.Generate(context.Background(), sampleInput())

	var statusErr *solana.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 StatusError, got %v", err)
	}
}

func TestParseDocument(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{name: "plain", text: `{"a":1}`},
		{name: "json fence", text: "```json\n{\"a\":1}\n```"},
		{name: "bare fence", text: "```\n{\"a\":1}```"},
		{name: "surrounding space", text: "\n  {\"a\":1}  \n"},
		{name: "not json", text: "The wallet looks fine.", wantErr: true},
		{name: "array", text: `[1,2]`, wantErr: true},
		{name: "null", text: `null`, wantErr: true},
		{name: "empty", text: "", wantErr: true},
		{name: "fence only", text: "```json\n```", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseDocument(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", doc)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if doc["a"] != float64(1) {
				t.Errorf("unexpected document %v", doc)
			}
		})
	}
}
