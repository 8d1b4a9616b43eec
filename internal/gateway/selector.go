package gateway

import (
	"strings"

	"github.com/sheetmind/ai-gateway/internal/provider"
)

// analyticalKeywords is the fixed vocabulary that promotes a request to
// the smart tier. Matching is case-insensitive substring containment.
var analyticalKeywords = []string{
	"analyze", "analyse", "analysis",
	"trend", "trends", "forecast", "projection",
	"anomaly", "anomalies", "outlier",
	"compare", "comparison", "correlation",
	"pattern", "insight",
	"why", "explain", "identify",
}

// SelectTier classifies a question by vocabulary alone: any analytical
// keyword selects the smart tier, otherwise fast. Pure and deterministic.
func SelectTier(text string) provider.Tier {
	lower := strings.ToLower(text)
	for _, kw := range analyticalKeywords {
		if strings.Contains(lower, kw) {
			return provider.TierSmart
		}
	}
	return provider.TierFast
}

// tierFor applies the per-capability policy: pinned tier unless the
// capability opted into the heuristic.
func tierFor(capability Capability, question string) provider.Tier {
	p := policies[capability]
	if p.autoTier {
		return SelectTier(question)
	}
	return p.tier
}
