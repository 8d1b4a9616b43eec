package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sheetmind/ai-gateway/internal/provider"
	"github.com/sheetmind/ai-gateway/internal/tariff"
)

type OpenAIProvider struct {
	apiKey  string
	baseURL string
}

var models = map[provider.Tier]string{
	provider.TierFast:  "gpt-4o-mini",
	provider.TierSmart: "gpt-4o",
}

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	ID      string         `json:"id"`
	Choices []openAIChoice `json:"choices"`
	Usage   openAIUsage    `json:"usage"`
	Model   string         `json:"model"`
}

type openAIChoice struct {
	Message openAIMessage `json:"message"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

func New(apiKey string) provider.Provider {
	return &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: "https://api.openai.com/v1",
	}
}

func (p *OpenAIProvider) Invoke(ctx context.Context, system string, turns []provider.Message, tier provider.Tier) (*provider.Response, error) {
	openAIReq := p.mapRequest(system, turns, tier)
	body, err := json.Marshal(openAIReq)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/chat/completions", p.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var openAIResp openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&openAIResp); err != nil {
		return nil, err
	}

	if len(openAIResp.Choices) == 0 {
		return nil, fmt.Errorf("openai api returned no choices")
	}

	in := openAIResp.Usage.PromptTokens
	out := openAIResp.Usage.CompletionTokens

	return &provider.Response{
		Text:         openAIResp.Choices[0].Message.Content,
		InputTokens:  in,
		OutputTokens: out,
		CostUSD:      tariff.Cost(p.Name(), tier, in, out),
		Model:        openAIResp.Model,
		Provider:     p.Name(),
	}, nil
}

// OpenAI takes the system instruction as the leading message rather than a
// separate field.
func (p *OpenAIProvider) mapRequest(system string, turns []provider.Message, tier provider.Tier) openAIRequest {
	messages := make([]openAIMessage, 0, len(turns)+1)
	if system != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: system})
	}
	for _, m := range turns {
		messages = append(messages, openAIMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	return openAIRequest{
		Model:    models[tier],
		Messages: messages,
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}
