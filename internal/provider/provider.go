package provider

import (
	"context"
)

// Tier is the cost/quality class of a backend invocation. The gateway only
// knows fast and smart; each provider maps them to its own model names.
type Tier string

const (
	TierFast  Tier = "fast"
	TierSmart Tier = "smart"
)

func (t Tier) Valid() bool {
	return t == TierFast || t == TierSmart
}

type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Response is the uniform cost-bearing result every provider normalizes to.
// CostUSD is already priced from the tariff table for (provider, tier);
// free evaluation backends report 0 regardless of token counts.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Model        string
	Provider     string
}

// Provider is implemented by each backend. The active provider is chosen
// once at startup; a failing call propagates its error unmodified — there
// is no retry and no failover between providers.
type Provider interface {
	Invoke(ctx context.Context, system string, turns []Message, tier Tier) (*Response, error)
	Name() string
}
