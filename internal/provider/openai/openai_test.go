package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sheetmind/ai-gateway/internal/provider"
	"github.com/sheetmind/ai-gateway/internal/tariff"
)

func newTestProvider(serverURL string) *OpenAIProvider {
	return &OpenAIProvider{apiKey: "test-key", baseURL: serverURL}
}

func TestInvoke(t *testing.T) {
	var gotReq openAIRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(openAIResponse{
			ID:    "chatcmpl-1",
			Model: "gpt-4o-mini",
			Choices: []openAIChoice{
				{Message: openAIMessage{Role: "assistant", Content: "=SUM(B:B)"}},
			},
			Usage: openAIUsage{PromptTokens: 200, CompletionTokens: 20},
		})
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	resp, err := p.Invoke(context.Background(), "You write formulas.", []provider.Message{
		{Role: "user", Content: "sum column b"},
	}, provider.TierFast)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Expected bearer auth, got %q", gotAuth)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("Expected fast model, got %s", gotReq.Model)
	}

	// The system instruction rides as the leading message.
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Fatalf("Expected leading system message, got %+v", gotReq.Messages)
	}
	if gotReq.Messages[1].Content != "sum column b" {
		t.Errorf("Expected user turn after system, got %+v", gotReq.Messages[1])
	}

	if resp.Text != "=SUM(B:B)" {
		t.Errorf("Expected generated text, got %q", resp.Text)
	}
	if want := tariff.Cost("openai", provider.TierFast, 200, 20); resp.CostUSD != want {
		t.Errorf("Expected priced cost %v, got %v", want, resp.CostUSD)
	}
}

func TestInvoke_NoSystemOmitsLeadingMessage(t *testing.T) {
	var gotReq openAIRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(openAIResponse{
			Choices: []openAIChoice{{Message: openAIMessage{Content: "ok"}}},
		})
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	if _, err := p.Invoke(context.Background(), "", []provider.Message{{Role: "user", Content: "q"}}, provider.TierSmart); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != "user" {
		t.Errorf("Expected a single user message, got %+v", gotReq.Messages)
	}
	if gotReq.Model != "gpt-4o" {
		t.Errorf("Expected smart model, got %s", gotReq.Model)
	}
}

func TestInvoke_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":"insufficient_quota"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	_, err := p.Invoke(context.Background(), "", []provider.Message{{Role: "user", Content: "q"}}, provider.TierFast)
	if err == nil {
		t.Fatal("Expected error from API failure")
	}
}

func TestInvoke_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openAIResponse{})
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	_, err := p.Invoke(context.Background(), "", []provider.Message{{Role: "user", Content: "q"}}, provider.TierFast)
	if err == nil {
		t.Fatal("Expected error for empty choices")
	}
}
