// Package tariff holds the per-token price list. It is pure data: compile
// time policy, revised together with provider price changes.
package tariff

import (
	"github.com/sheetmind/ai-gateway/internal/provider"
)

type Price struct {
	Input  float64 // USD per input token
	Output float64 // USD per output token
}

// Gemini rows are zero: the free evaluation tier is not billed no matter
// how many tokens it reports.
var table = map[string]map[provider.Tier]Price{
	"gemini": {
		provider.TierFast:  {Input: 0, Output: 0},
		provider.TierSmart: {Input: 0, Output: 0},
	},
	"claude": {
		provider.TierFast:  {Input: 1.00 / 1_000_000, Output: 5.00 / 1_000_000},  // Haiku
		provider.TierSmart: {Input: 3.00 / 1_000_000, Output: 15.00 / 1_000_000}, // Sonnet
	},
	"openai": {
		provider.TierFast:  {Input: 0.15 / 1_000_000, Output: 0.60 / 1_000_000},  // gpt-4o-mini
		provider.TierSmart: {Input: 2.50 / 1_000_000, Output: 10.00 / 1_000_000}, // gpt-4o
	},
}

// Lookup returns the price pair for (provider, tier). Unknown pairs price
// at zero rather than guessing.
func Lookup(providerName string, tier provider.Tier) Price {
	return table[providerName][tier]
}

// Cost computes inputTokens*pIn + outputTokens*pOut for (provider, tier).
func Cost(providerName string, tier provider.Tier, inputTokens, outputTokens int) float64 {
	p := Lookup(providerName, tier)
	return float64(inputTokens)*p.Input + float64(outputTokens)*p.Output
}
