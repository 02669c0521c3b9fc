package llm

import (
	"context"
	"errors"
	"fmt"
	"log"

	"codecanvas/pkg/core/schema"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider implements the Provider interface for Google's Gemini models
// using the GenAI SDK. The output schema is sent as a native response schema.
type GeminiProvider struct {
	Model       string
	Temperature float32

	models interface {
		GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	}
}

// Ensure interface compliance
var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a client for the Gemini API. An empty model selects
// the default flash model.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiProvider{Model: model, Temperature: 0.2, models: client.Models}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

// Invoke sends a generateContent request in JSON mode.
func (p *GeminiProvider) Invoke(ctx context.Context, prompt string, out *schema.FlowSchema) (map[string]any, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(p.Temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   toGenAISchema(out),
	}

	result, err := p.models.GenerateContent(ctx, p.Model, genai.Text(prompt), config)
	if err != nil {
		return nil, classify(ctx, p.Name(), genaiStatus(err), err)
	}

	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return nil, rejected(p.Name(), "prompt blocked: "+string(result.PromptFeedback.BlockReason))
	}
	if len(result.Candidates) == 0 {
		return nil, rejected(p.Name(), "no candidates returned")
	}
	switch reason := result.Candidates[0].FinishReason; reason {
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent:
		return nil, rejected(p.Name(), "response blocked: "+string(reason))
	case genai.FinishReasonMaxTokens:
		return nil, truncated(p.Name(), string(reason))
	}

	text := result.Text()
	log.Printf("[llm.Gemini] model=%s response_bytes=%d", p.Model, len(text))
	return decode(p.Name(), text)
}

func genaiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code
	}
	return 0
}

func toGenAISchema(s *schema.FlowSchema) *genai.Schema {
	out := &genai.Schema{
		Type:             genai.TypeObject,
		Properties:       make(map[string]*genai.Schema, s.Len()),
		PropertyOrdering: s.Names(),
	}
	for _, f := range s.Fields() {
		p := toGenAIType(f.Type)
		p.Description = f.Description
		out.Properties[f.Name] = p
		if f.Required {
			out.Required = append(out.Required, f.Name)
		}
	}
	return out
}

func toGenAIType(t schema.Type) *genai.Schema {
	switch t.Kind {
	case schema.KindBool:
		return &genai.Schema{Type: genai.TypeBoolean}
	case schema.KindEnum:
		return &genai.Schema{Type: genai.TypeString, Format: "enum", Enum: append([]string(nil), t.Values...)}
	case schema.KindArray:
		return &genai.Schema{Type: genai.TypeArray, Items: toGenAIType(*t.Elem)}
	case schema.KindObject:
		return toGenAISchema(t.Fields)
	default:
		return &genai.Schema{Type: genai.TypeString}
	}
}
