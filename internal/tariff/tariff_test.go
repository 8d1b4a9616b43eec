package tariff

import (
	"testing"

	"github.com/sheetmind/ai-gateway/internal/provider"
)

func TestCost_Linearity(t *testing.T) {
	p := Lookup("claude", provider.TierSmart)

	got := Cost("claude", provider.TierSmart, 1000, 500)
	want := 1000*p.Input + 500*p.Output
	if got != want {
		t.Errorf("Expected cost %v, got %v", want, got)
	}

	if Cost("claude", provider.TierSmart, 0, 0) != 0 {
		t.Errorf("Expected zero cost for zero tokens")
	}
}

func TestCost_FastCheaperThanSmart(t *testing.T) {
	for _, name := range []string{"claude", "openai"} {
		fast := Cost(name, provider.TierFast, 1000, 1000)
		smart := Cost(name, provider.TierSmart, 1000, 1000)
		if fast >= smart {
			t.Errorf("%s: expected fast (%v) cheaper than smart (%v)", name, fast, smart)
		}
	}
}

func TestCost_GeminiAlwaysZero(t *testing.T) {
	// The free evaluation backend reports cost 0 regardless of token counts.
	if got := Cost("gemini", provider.TierSmart, 1_000_000, 1_000_000); got != 0 {
		t.Errorf("Expected zero cost for gemini, got %v", got)
	}
	if got := Cost("gemini", provider.TierFast, 123, 456); got != 0 {
		t.Errorf("Expected zero cost for gemini, got %v", got)
	}
}

func TestCost_UnknownPairIsZero(t *testing.T) {
	if got := Cost("nonexistent", provider.TierFast, 100, 100); got != 0 {
		t.Errorf("Expected zero cost for unknown provider, got %v", got)
	}
}
