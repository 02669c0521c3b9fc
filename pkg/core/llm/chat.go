package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"codecanvas/pkg/core/schema"
)

// Endpoints of the chat-completions compatible providers.
const (
	DeepSeekURL = "https://api.deepseek.com/chat/completions"
	OpenAIURL   = "https://api.openai.com/v1/chat/completions"
	KimiURL     = "https://api.moonshot.cn/v1/chat/completions"
	DoubaoURL   = "https://ark.cn-beijing.volces.com/api/v3/chat/completions"
)

// ChatProvider calls an OpenAI-style chat completions endpoint in JSON mode.
// DeepSeek, OpenAI, Kimi (Moonshot) and Doubao (Ark) all speak this protocol.
type ChatProvider struct {
	Provider    string
	URL         string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	HTTPClient  *http.Client
}

var _ Provider = (*ChatProvider)(nil)

// ChatRequest is the request body of a chat completions call
type ChatRequest struct {
	Messages       []Message      `json:"messages"`
	Model          string         `json:"model"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	ResponseFormat ResponseFormat `json:"response_format"`
	Stream         bool           `json:"stream"`
	Temperature    float64        `json:"temperature"`
}

type Message struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatResponse is the subset of the completions response we read
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func NewDeepSeekProvider(apiKey, model string) *ChatProvider {
	return newChatProvider("deepseek", DeepSeekURL, apiKey, model, "deepseek-chat")
}

func NewOpenAIProvider(apiKey, model string) *ChatProvider {
	return newChatProvider("openai", OpenAIURL, apiKey, model, "gpt-4o-mini")
}

func NewKimiProvider(apiKey, model string) *ChatProvider {
	return newChatProvider("kimi", KimiURL, apiKey, model, "moonshot-v1-32k")
}

func NewDoubaoProvider(apiKey, model string) *ChatProvider {
	return newChatProvider("doubao", DoubaoURL, apiKey, model, "doubao-pro-32k")
}

func newChatProvider(name, url, apiKey, model, defaultModel string) *ChatProvider {
	if model == "" {
		model = defaultModel
	}
	return &ChatProvider{
		Provider:    name,
		URL:         url,
		APIKey:      apiKey,
		Model:       model,
		MaxTokens:   4096,
		Temperature: 0.2,
		HTTPClient:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *ChatProvider) Name() string { return p.Provider }

func (p *ChatProvider) Invoke(ctx context.Context, prompt string, out *schema.FlowSchema) (map[string]any, error) {
	if p.APIKey == "" {
		return nil, rejected(p.Name(), "API key is empty")
	}

	reqBody := ChatRequest{
		Messages: []Message{
			{Content: schemaInstruction(out), Role: "system"},
			{Content: prompt, Role: "user"},
		},
		Model:          p.Model,
		MaxTokens:      p.MaxTokens,
		ResponseFormat: ResponseFormat{Type: "json_object"},
		Temperature:    p.Temperature,
	}

	jsonBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", p.Name(), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(jsonBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", p.Name(), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	body, status, err := do(p.client(), req)
	if err != nil {
		return nil, classify(ctx, p.Name(), status, err)
	}

	var response ChatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", p.Name(), ErrMalformedOutput, err)
	}
	if len(response.Choices) == 0 {
		return nil, rejected(p.Name(), "no choices returned")
	}
	switch response.Choices[0].FinishReason {
	case "content_filter":
		return nil, rejected(p.Name(), "response blocked by content filter")
	case "length":
		return nil, truncated(p.Name(), "length")
	}

	content := response.Choices[0].Message.Content
	log.Printf("[llm.%s] model=%s response_bytes=%d", p.Name(), p.Model, len(content))
	return decode(p.Name(), content)
}

func (p *ChatProvider) client() *http.Client {
	if p.HTTPClient != nil {
		return p.HTTPClient
	}
	return http.DefaultClient
}

// do executes req and returns the body of a 200 response. Any other status is
// returned as an error together with the status code.
func do(client *http.Client, req *http.Request) ([]byte, int, error) {
	res, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, res.StatusCode, fmt.Errorf("read body: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, res.StatusCode, fmt.Errorf("status=%d body=%s", res.StatusCode, truncate(string(body), 512))
	}
	return body, res.StatusCode, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
