// Package narrative turns aggregate statistics into a credit assessment
// document produced by a language model.
package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"solana-credit-lab/internal/domain"
	"solana-credit-lab/internal/solana"
)

// Default OpenAI parameters.
const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4.1-nano-2025-04-14"
	DefaultMaxTokens   = 800
	DefaultTemperature = 0.5
)

// ErrEmptyCompletion is returned when the model answers without content.
var ErrEmptyCompletion = errors.New("empty completion")

// Input is everything the generator sees about one wallet.
type Input struct {
	Address        string
	Stats          domain.AggregateStats
	Profiles       []domain.AssetProfile
	SmallThreshold decimal.Decimal
}

// Generator produces free text expected to contain a JSON document.
type Generator interface {
	Generate(ctx context.Context, in Input) (string, error)
}

// OpenAIClient generates narratives through the chat completions API.
type OpenAIClient struct {
	endpoint    string
	model       string
	maxTokens   int
	temperature float64
	http        *solana.RequestClient
}

// OpenAIOptions contains configuration for creating an OpenAIClient.
type OpenAIOptions struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// NewOpenAIClient creates a chat completions client. Request options are
// applied after the bearer token header.
func NewOpenAIClient(opts OpenAIOptions, reqOpts ...solana.RequestOption) *OpenAIClient {
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	all := append([]solana.RequestOption{
		solana.WithTarget("openai"),
		solana.WithHeader("Authorization", "Bearer "+opts.APIKey),
	}, reqOpts...)

	return &OpenAIClient{
		endpoint:    strings.TrimRight(base, "/") + "/chat/completions",
		model:       model,
		maxTokens:   maxTokens,
		temperature: opts.Temperature,
		http:        solana.NewRequestClient(all...),
	}
}

// Compile-time interface check.
var _ Generator = (*OpenAIClient)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	MaxCompletionTokens int           `json:"max_completion_tokens"`
	Temperature         float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate renders the prompt for in and returns the model's trimmed answer.
func (c *OpenAIClient) Generate(ctx context.Context, in Input) (string, error) {
	prompt, err := RenderPrompt(in)
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxCompletionTokens: c.maxTokens,
		Temperature:         c.temperature,
	}

	var resp chatResponse
	if err := c.http.Do(ctx, http.MethodPost, c.endpoint, req, &resp); err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// ParseDocument extracts the JSON object from model output, tolerating a
// surrounding Markdown code fence.
func ParseDocument(text string) (map[string]any, error) {
	s := stripFence(text)
	if s == "" {
		return nil, errors.New("empty document")
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON document: %w", err)
	}
	if doc == nil {
		return nil, errors.New("document is not a JSON object")
	}
	return doc, nil
}

func stripFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	// Drop the opening fence line, including any language tag.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
