package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/factlock/internal/model"
)

// Provider defines the interface for LLM draft generators
type Provider interface {
	// Name returns the provider name
	Name() string

	// Draft generates an MMS and an email draft grounded in the request's facts
	Draft(ctx context.Context, req DraftRequest) (*DraftResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// DraftRequest contains the facts the drafts may use
type DraftRequest struct {
	// Subject is the address of the property being marketed
	Subject string

	// TargetPrice is the established listing price
	TargetPrice float64

	// Comps are the verified comparables; the drafts may quote only these facts
	Comps []model.Comparable

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// DraftResponse contains the generated drafts
type DraftResponse struct {
	Drafts     model.DraftPair
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI-compatible endpoints
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, OpenAI-compatible gateways)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for generation; drafts default to 0 for repeatable copy
	Temperature float32

	// Rate limiting across requests to the same endpoint
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:          "", // Disabled by default
		Model:             "",
		Timeout:           60,
		MaxTokens:         1500,
		Temperature:       0,
		RequestsPerSecond: 1,
		BurstSize:         2,
	}
}

// systemPrompt frames every draft request
const systemPrompt = "You write short, direct real-estate sales copy. You never invent numbers: every figure you write must come from the facts you are given."

// BuildPrompt constructs the default drafting prompt
func BuildPrompt(req DraftRequest) string {
	comps, err := json.MarshalIndent(req.Comps, "", "  ")
	if err != nil {
		comps = []byte("[]")
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Draft two messages for the owner of %s: an MMS text (to accompany a comparables image) and an email.

TONE:
- Direct and confident. Never apologize.
- Call the price a "Target Pricing Strategy", never an "estimate".

FACTS (reference only these numbers and no others; you may state the difference between a comparable's price and the target price):
Subject Address: %s
Target Price: $%s
Verified Comps:
%s

OUTPUT:
Return strictly a JSON object with two string keys: "mmsDraft" and "emailDraft".
The email must start with the subject line "Subject: Custom Equity & Pricing Strategy for %s".
Leave placeholders like [First Name] exactly as they are.
Do not wrap the JSON in markdown code blocks.
`, req.Subject, req.Subject, formatPrice(req.TargetPrice), string(comps), req.Subject)

	return b.String()
}

// parseDrafts decodes the model's JSON answer, tolerating a surrounding code fence
func parseDrafts(raw string) (model.DraftPair, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if text == "" {
		return model.DraftPair{}, fmt.Errorf("empty draft response")
	}

	var drafts model.DraftPair
	if err := json.Unmarshal([]byte(text), &drafts); err != nil {
		return model.DraftPair{}, fmt.Errorf("decode drafts: %w", err)
	}

	if drafts.MMSDraft == "" && drafts.EmailDraft == "" {
		return model.DraftPair{}, fmt.Errorf("draft response has neither mmsDraft nor emailDraft")
	}

	return drafts, nil
}

// formatPrice renders 500000 as "500,000"
func formatPrice(v float64) string {
	whole := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(whole, "-")
	whole = strings.TrimPrefix(whole, "-")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}
