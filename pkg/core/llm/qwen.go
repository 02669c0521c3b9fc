package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"codecanvas/pkg/core/schema"
)

const QwenURL = "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"

// QwenProvider calls the native DashScope generation API.
type QwenProvider struct {
	URL        string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

var _ Provider = (*QwenProvider)(nil)

func NewQwenProvider(apiKey, model string) *QwenProvider {
	if model == "" {
		model = "qwen-max"
	}
	return &QwenProvider{
		URL:        QwenURL,
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *QwenProvider) Name() string { return "qwen" }

func (p *QwenProvider) Invoke(ctx context.Context, prompt string, out *schema.FlowSchema) (map[string]any, error) {
	if p.APIKey == "" {
		return nil, rejected(p.Name(), "API key is empty")
	}

	// Native DashScope API format
	// See: https://help.aliyun.com/document_detail/2712532.html
	reqBody := map[string]interface{}{
		"model": p.Model,
		"input": map[string]interface{}{
			"messages": []map[string]string{
				{"role": "system", "content": schemaInstruction(out)},
				{"role": "user", "content": prompt},
			},
		},
		"parameters": map[string]interface{}{
			"result_format":   "message",
			"response_format": map[string]string{"type": "json_object"},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal qwen request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	client := p.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	body, status, err := do(client, req)
	if err != nil {
		return nil, classify(ctx, p.Name(), status, err)
	}

	// Response structure:
	// {
	//   "output": {
	//     "choices": [
	//       {
	//         "message": {
	//           "content": "..."
	//         }
	//       }
	//     ]
	//   }
	// }
	var result struct {
		Output struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
				FinishReason string `json:"finish_reason"`
			} `json:"choices"`
			// Compatibility for some DashScope endpoints that return 'text' directly in output
			Text         string `json:"text"`
			FinishReason string `json:"finish_reason"`
		} `json:"output"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", p.Name(), ErrMalformedOutput, err)
	}

	if result.Code != "" {
		return nil, rejected(p.Name(), result.Code+" - "+result.Message)
	}

	content, finish := result.Output.Text, result.Output.FinishReason
	if len(result.Output.Choices) > 0 {
		content, finish = result.Output.Choices[0].Message.Content, result.Output.Choices[0].FinishReason
	}
	if finish == "length" {
		return nil, truncated(p.Name(), finish)
	}
	log.Printf("[llm.Qwen] model=%s response_bytes=%d", p.Model, len(content))
	return decode(p.Name(), content)
}
