package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"

	"github.com/reachpoint/replybot/internal/generation"
	"github.com/reachpoint/replybot/internal/resilience"
)

const systemPrompt = `You write short, specific replies to social media posts.
Replies must add a concrete insight, a sharp question, or a useful resource.
Never flatter, never use hashtags, never sound like an ad.
Respond with ONLY a JSON array, no prose before or after.`

// Provider implements generation.Provider on top of the messages API.
type Provider struct {
	client Client
}

// NewProvider creates a Provider with a live SDK client.
func NewProvider(apiKey string) *Provider {
	return &Provider{client: NewClient(apiKey)}
}

// NewProviderWithClient creates a Provider with an injected client.
func NewProviderWithClient(c Client) *Provider {
	return &Provider{client: c}
}

// Generate asks the model for candidate reply strategies. Unparseable output
// surfaces resilience.ErrMalformedResponse; API failures are mapped onto the
// resilience taxonomy so the caller's retry policy applies.
func (p *Provider) Generate(ctx context.Context, req generation.Request) (*generation.Result, error) {
	msgReq := MessageRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		System: []SystemBlock{
			{Text: systemPrompt, CacheControl: &CacheControl{TTL: "5m"}},
		},
		Messages: []Message{
			{Role: "user", Content: userPrompt(req)},
		},
	}
	if req.Temperature > 0 {
		t := req.Temperature
		msgReq.Temperature = &t
	}

	resp, err := p.client.CreateMessage(ctx, msgReq)
	if err != nil {
		return nil, mapError(err)
	}
	resp.Usage.LogCost(resp.Model, "generate")

	strategies, err := parseStrategies(responseText(resp), req.MaxStrategies)
	if err != nil {
		return nil, err
	}

	return &generation.Result{
		Strategies: strategies,
		Model:      resp.Model,
	}, nil
}

func userPrompt(req generation.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Post by @%s", req.TargetAuthor)
	if req.Niche != "" && req.Niche != "other" {
		fmt.Fprintf(&b, " (%s niche)", req.Niche)
	}
	fmt.Fprintf(&b, ":\n%s\n\n", req.TargetText)

	n := req.MaxStrategies
	if n <= 0 {
		n = 3
	}
	fmt.Fprintf(&b, "Write %d distinct reply strategies. Each reply under 280 characters.\n", n)
	b.WriteString(`Return a JSON array of objects with keys:
"text" (the reply), "approach" (one word), "algorithm_score" (0-1, expected
platform engagement), "monetization_score" (0-1, expected profile-visit value).`)
	return b.String()
}

func responseText(resp *MessageResponse) string {
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// parseStrategies extracts and validates the JSON strategy array. Models
// occasionally wrap the array in code fences or prose; the outermost brackets
// are authoritative.
func parseStrategies(text string, max int) ([]generation.Strategy, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, eris.Wrap(resilience.ErrMalformedResponse, "anthropic: no JSON array in response")
	}

	var strategies []generation.Strategy
	if err := json.Unmarshal([]byte(text[start:end+1]), &strategies); err != nil {
		return nil, eris.Wrapf(resilience.ErrMalformedResponse, "anthropic: decode strategies: %v", err)
	}
	if len(strategies) == 0 {
		return nil, eris.Wrap(resilience.ErrMalformedResponse, "anthropic: empty strategy array")
	}
	for i, s := range strategies {
		if strings.TrimSpace(s.Text) == "" {
			return nil, eris.Wrapf(resilience.ErrMalformedResponse, "anthropic: strategy %d has no text", i)
		}
	}

	if max > 0 && len(strategies) > max {
		strategies = strategies[:max]
	}
	return strategies, nil
}

// mapError translates SDK failures onto the resilience taxonomy.
func mapError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		if mapped := resilience.ErrorFromStatus("anthropic: generate", apiErr.StatusCode); mapped != nil {
			return mapped
		}
	}
	if resilience.IsTransient(err) {
		return err
	}
	return eris.Wrap(err, "anthropic: generate")
}
