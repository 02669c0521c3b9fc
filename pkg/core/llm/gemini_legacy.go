package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"codecanvas/pkg/core/schema"

	legacy "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiLegacyProvider talks to Gemini through the older generative-ai-go SDK.
// It is kept for deployments pinned to that client.
type GeminiLegacyProvider struct {
	modelName string
	client    *legacy.Client
}

var _ Provider = (*GeminiLegacyProvider)(nil)

func NewGeminiLegacyProvider(ctx context.Context, apiKey, model string) (*GeminiLegacyProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini-legacy: API key is empty")
	}
	client, err := legacy.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %v", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiLegacyProvider{modelName: model, client: client}, nil
}

func (p *GeminiLegacyProvider) Name() string { return "gemini-legacy" }

// Close releases the underlying client connection.
func (p *GeminiLegacyProvider) Close() error {
	return p.client.Close()
}

func (p *GeminiLegacyProvider) Invoke(ctx context.Context, prompt string, out *schema.FlowSchema) (map[string]any, error) {
	model := p.client.GenerativeModel(p.modelName)
	model.SetTemperature(0.2)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = toLegacySchema(out)

	resp, err := model.GenerateContent(ctx, legacy.Text(prompt))
	if err != nil {
		var blocked *legacy.BlockedError
		if errors.As(err, &blocked) {
			return nil, rejected(p.Name(), blocked.Error())
		}
		status := 0
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			status = apiErr.Code
		}
		return nil, classify(ctx, p.Name(), status, err)
	}

	text, err := legacyText(p.Name(), resp)
	if err != nil {
		return nil, err
	}
	log.Printf("[llm.GeminiLegacy] model=%s response_bytes=%d", p.modelName, len(text))
	return decode(p.Name(), text)
}

// legacyText returns the text of the first candidate, refusing truncated ones.
func legacyText(provider string, resp *legacy.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", rejected(provider, "no candidates returned")
	}
	c := resp.Candidates[0]
	if c.FinishReason == legacy.FinishReasonMaxTokens {
		return "", truncated(provider, c.FinishReason.String())
	}

	var sb strings.Builder
	for _, part := range c.Content.Parts {
		if txt, ok := part.(legacy.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String(), nil
}

func toLegacySchema(s *schema.FlowSchema) *legacy.Schema {
	out := &legacy.Schema{
		Type:       legacy.TypeObject,
		Properties: make(map[string]*legacy.Schema, s.Len()),
	}
	for _, f := range s.Fields() {
		p := toLegacyType(f.Type)
		p.Description = f.Description
		out.Properties[f.Name] = p
		if f.Required {
			out.Required = append(out.Required, f.Name)
		}
	}
	return out
}

func toLegacyType(t schema.Type) *legacy.Schema {
	switch t.Kind {
	case schema.KindBool:
		return &legacy.Schema{Type: legacy.TypeBoolean}
	case schema.KindEnum:
		return &legacy.Schema{Type: legacy.TypeString, Format: "enum", Enum: append([]string(nil), t.Values...)}
	case schema.KindArray:
		return &legacy.Schema{Type: legacy.TypeArray, Items: toLegacyType(*t.Elem)}
	case schema.KindObject:
		return toLegacySchema(t.Fields)
	default:
		return &legacy.Schema{Type: legacy.TypeString}
	}
}
