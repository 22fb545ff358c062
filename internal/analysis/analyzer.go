// Package analysis asks a chat-completion model for a second opinion on a
// symbol's indicators. It is independent of the rule-based advice engine.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultModel = openai.GPT4o

	systemPrompt = "You are a seasoned financial analyst with expertise in technical analysis. " +
		"You provide cautious, data-driven investment advice."
)

var (
	ErrNotConfigured   = errors.New("openai api key is not configured")
	ErrInvalidRequest  = errors.New("invalid analysis request")
	ErrInvalidResponse = errors.New("invalid response format from model")
)

// Request is the input of one analysis.
type Request struct {
	Symbol     string          `json:"symbol"`
	Price      *float64        `json:"price"`
	Indicators json.RawMessage `json:"indicators,omitempty"`
}

// Result is the model's structured answer.
type Result struct {
	Recommendation string  `json:"recommendation"`
	Reasoning      string  `json:"reasoning"`
	Confidence     float64 `json:"confidence"`
}

// Analyzer wraps an OpenAI-compatible chat completion client.
type Analyzer struct {
	client *openai.Client
	model  string
}

// New returns nil when apiKey is empty; a nil Analyzer reports ErrNotConfigured.
func New(apiKey, baseURL, model string) *Analyzer {
	if apiKey == "" {
		return nil
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = DefaultModel
	}
	return &Analyzer{client: openai.NewClientWithConfig(cfg), model: model}
}

// Validate checks the request before any remote call is made.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Symbol) == "" {
		return fmt.Errorf("%w: stock symbol is required", ErrInvalidRequest)
	}
	if r.Price == nil || math.IsNaN(*r.Price) || math.IsInf(*r.Price, 0) {
		return fmt.Errorf("%w: valid price is required", ErrInvalidRequest)
	}
	return nil
}

// Analyze requests a BUY/SELL/HOLD opinion with reasoning and confidence.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	if a == nil {
		return nil, ErrNotConfigured
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(symbol, *req.Price, req.Indicators)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrInvalidResponse)
	}

	res, err := parseResult(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] analysis %s: %s (confidence %.0f)", symbol, res.Recommendation, res.Confidence)
	return res, nil
}

func buildPrompt(symbol string, price float64, indicators json.RawMessage) string {
	ind := "{}"
	if len(indicators) > 0 {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, indicators, "", "  "); err == nil {
			ind = pretty.String()
		} else {
			ind = string(indicators)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "As an expert financial analyst, analyze the following stock data for %s and provide a professional investment recommendation.\n\n", symbol)
	b.WriteString("Market Data:\n")
	fmt.Fprintf(&b, "- Current Price: $%g\n", price)
	fmt.Fprintf(&b, "- Technical Indicators: %s\n\n", ind)
	b.WriteString("Your analysis should be grounded in technical analysis principles.\n")
	b.WriteString("Respond with a JSON object of the form:\n")
	b.WriteString(`{"recommendation": "BUY" | "SELL" | "HOLD", "reasoning": "2-3 sentences specific to the data", "confidence": number (0-100)}`)
	return b.String()
}

// parseResult rejects answers missing any field or carrying a non-numeric confidence.
func parseResult(content string) (*Result, error) {
	var raw struct {
		Recommendation string   `json:"recommendation"`
		Reasoning      string   `json:"reasoning"`
		Confidence     *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if raw.Recommendation == "" || raw.Reasoning == "" || raw.Confidence == nil {
		return nil, ErrInvalidResponse
	}
	return &Result{
		Recommendation: strings.ToUpper(raw.Recommendation),
		Reasoning:      raw.Reasoning,
		Confidence:     *raw.Confidence,
	}, nil
}
