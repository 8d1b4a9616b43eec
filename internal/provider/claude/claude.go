package claude

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

type ClaudeProvider struct {
	apiKey  string
	baseURL string
}

var models = map[provider.Tier]string{
	provider.TierFast:  "claude-3-5-haiku-20241022",
	provider.TierSmart: "claude-3-5-sonnet-20241022",
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system,omitempty"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	ID      string          `json:"id"`
	Content []claudeContent `json:"content"`
	Model   string          `json:"model"`
	Usage   claudeUsage     `json:"usage"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type claudeUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func New(apiKey string) provider.Provider {
	return &ClaudeProvider{
		apiKey:  apiKey,
		baseURL: "https://api.anthropic.com/v1",
	}
}

func (p *ClaudeProvider) Invoke(ctx context.Context, system string, turns []provider.Message, tier provider.Tier) (*provider.Response, error) {
	claudeReq := p.mapRequest(system, turns, tier)
	body, err := json.Marshal(claudeReq)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/messages", p.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("claude api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var claudeResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&claudeResp); err != nil {
		return nil, err
	}

	if len(claudeResp.Content) == 0 {
		return nil, fmt.Errorf("claude api returned no content")
	}

	var text string
	for _, block := range claudeResp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	in := claudeResp.Usage.InputTokens
	out := claudeResp.Usage.OutputTokens

	return &provider.Response{
		Text:         text,
		InputTokens:  in,
		OutputTokens: out,
		CostUSD:      tariff.Cost(p.Name(), tier, in, out),
		Model:        claudeResp.Model,
		Provider:     p.Name(),
	}, nil
}

func (p *ClaudeProvider) mapRequest(system string, turns []provider.Message, tier provider.Tier) claudeRequest {
	messages := make([]claudeMessage, 0, len(turns))
	for _, m := range turns {
		role := "user"
		if m.Role == "assistant" {
			role = "assistant"
		}
		messages = append(messages, claudeMessage{
			Role:    role,
			Content: m.Content,
		})
	}

	return claudeRequest{
		Model:     models[tier],
		MaxTokens: 4096,
		System:    system,
		Messages:  messages,
	}
}

func (p *ClaudeProvider) Name() string {
	return "claude"
}
