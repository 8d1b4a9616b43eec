package gateway

import (
	"github.com/sheetmind/ai-gateway/internal/provider"
)

// Capability names a gated operation. The set is closed; each entry has a
// fixed tier policy and caching policy.
type Capability string

const (
	CapabilityFormula  Capability = "formula"
	CapabilityChat     Capability = "chat"
	CapabilityTemplate Capability = "template"
	CapabilityInsights Capability = "insights"
)

type capabilityPolicy struct {
	tier      provider.Tier // ignored when autoTier is set
	autoTier  bool          // tier picked by the keyword heuristic
	cacheable bool
}

// Formulas are cheap, high-volume and highly repeatable, so they pin the
// fast tier and cache. Insights always warrant the smart tier. Chat is the
// only capability where tier selection is content-driven, and neither chat
// nor template generation caches: both depend on conversation history.
var policies = map[Capability]capabilityPolicy{
	CapabilityFormula:  {tier: provider.TierFast, cacheable: true},
	CapabilityChat:     {autoTier: true},
	CapabilityTemplate: {tier: provider.TierFast},
	CapabilityInsights: {tier: provider.TierSmart, cacheable: true},
}

func (c Capability) Valid() bool {
	_, ok := policies[c]
	return ok
}

// InsightAnalyses is the closed set of analyses an insight session may request.
var InsightAnalyses = map[string]bool{
	"diagnosis": true,
	"executive": true,
	"anomalies": true,
	"trend":     true,
	"charts":    true,
}
