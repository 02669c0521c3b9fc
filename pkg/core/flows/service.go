package flows

import (
	"context"
	"log"

	"codecanvas/pkg/core/flow"
	"codecanvas/pkg/core/utils"
)

// ConversationTurn is one earlier exchange fed back to the generate flow.
type ConversationTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

type GenerateCodeSnippetInput struct {
	Prompt              string             `json:"prompt"`
	Framework           string             `json:"framework,omitempty"`
	ConversationHistory []ConversationTurn `json:"conversationHistory,omitempty"`
}

type GenerateCodeSnippetOutput struct {
	Code        string `json:"code"`
	Explanation string `json:"explanation"`
	FileName    string `json:"fileName"`
}

type AnalyzeCodeInput struct {
	Code string `json:"code"`
}

type AnalyzeCodeOutput struct {
	Explanation     string `json:"explanation"`
	PotentialIssues string `json:"potentialIssues"`
	Suggestions     string `json:"suggestions"`
}

type GenerateDocumentationInput struct {
	Code              string `json:"code"`
	DocumentationType string `json:"documentationType,omitempty"`
	IncludeExamples   bool   `json:"includeExamples,omitempty"`
}

type GenerateDocumentationOutput struct {
	Documentation string `json:"documentation"`
	FileName      string `json:"fileName"`
	Summary       string `json:"summary"`
}

// Service is the typed front of a flow registry.
type Service struct {
	flows *flow.Registry
}

func NewService(flows *flow.Registry) *Service {
	return &Service{flows: flows}
}

// Registry returns the underlying flow registry.
func (s *Service) Registry() *flow.Registry { return s.flows }

func (s *Service) GenerateCodeSnippet(ctx context.Context, in GenerateCodeSnippetInput) (*GenerateCodeSnippetOutput, error) {
	input := map[string]any{"prompt": in.Prompt}
	if in.Framework != "" {
		input["framework"] = in.Framework
	}
	if len(in.ConversationHistory) > 0 {
		turns := make([]any, len(in.ConversationHistory))
		for i, t := range in.ConversationHistory {
			turns[i] = map[string]any{"role": t.Role, "content": t.Content}
		}
		input["conversationHistory"] = turns
	}

	out, err := s.flows.Invoke(ctx, Generate, input)
	if err != nil {
		return nil, err
	}
	return &GenerateCodeSnippetOutput{
		Code:        str(out, "code"),
		Explanation: str(out, "explanation"),
		FileName:    str(out, "fileName"),
	}, nil
}

func (s *Service) AnalyzeCode(ctx context.Context, in AnalyzeCodeInput) (*AnalyzeCodeOutput, error) {
	out, err := s.flows.Invoke(ctx, Analyze, map[string]any{"code": in.Code})
	if err != nil {
		return nil, err
	}
	return &AnalyzeCodeOutput{
		Explanation:     str(out, "explanation"),
		PotentialIssues: str(out, "potentialIssues"),
		Suggestions:     str(out, "suggestions"),
	}, nil
}

func (s *Service) GenerateDocumentation(ctx context.Context, in GenerateDocumentationInput) (*GenerateDocumentationOutput, error) {
	input := map[string]any{"code": in.Code}
	if in.DocumentationType != "" {
		input["documentationType"] = in.DocumentationType
	}
	if in.IncludeExamples {
		input["includeExamples"] = true
	}

	out, err := s.flows.Invoke(ctx, Document, input)
	if err != nil {
		return nil, err
	}
	// models often wrap the whole document in a ```markdown fence
	doc := utils.CleanMarkdown(str(out, "documentation"))
	if !utils.ValidateMarkdown(doc) {
		log.Printf("[flows] document: model returned empty documentation")
	}
	return &GenerateDocumentationOutput{
		Documentation: doc,
		FileName:      str(out, "fileName"),
		Summary:       str(out, "summary"),
	}, nil
}

// str reads a string field of a coerced output; coercion guarantees presence.
func str(out map[string]any, key string) string {
	s, _ := out[key].(string)
	return s
}
