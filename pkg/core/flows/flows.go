// Package flows defines the three code-assistant flows: generate a snippet,
// analyze code, and document code.
package flows

import (
	"fmt"

	"codecanvas/pkg/core/flow"
	"codecanvas/pkg/core/llm"
	"codecanvas/pkg/core/prompt"
	"codecanvas/pkg/core/schema"
)

// Flow names.
const (
	Generate = "generate"
	Analyze  = "analyze"
	Document = "document"
)

// DocumentationTypes are the accepted values of documentationType.
var DocumentationTypes = []string{"api", "readme", "inline", "technical"}

var (
	conversationTurn = schema.MustNew(
		schema.Field("role", schema.Enum("user", "assistant"), "Who produced the turn."),
		schema.Field("content", schema.String(), "The text of the turn."),
	)

	GenerateInput = schema.MustNew(
		schema.Field("prompt", schema.String(), "A description of the code snippet to generate."),
		schema.Optional("framework", schema.String(), "Optional framework or library to use."),
		schema.Optional("conversationHistory", schema.Array(schema.Object(conversationTurn)), "Previous conversation history for context."),
	)
	GenerateOutput = schema.MustNew(
		schema.Field("code", schema.String(), "The generated code snippet."),
		schema.Field("explanation", schema.String(), "Explanation of the code, in Markdown format."),
		schema.Field("fileName", schema.String(), `The suggested filename with extension for the code (e.g., "component.tsx", "utils.py", "main.js").`),
	)

	AnalyzeInput = schema.MustNew(
		schema.Field("code", schema.String(), "The code to analyze."),
	)
	AnalyzeOutput = schema.MustNew(
		schema.Field("explanation", schema.String(), "An explanation of the code functionality, in Markdown format."),
		schema.Field("potentialIssues", schema.String(), "Potential issues in the code, in Markdown format."),
		schema.Field("suggestions", schema.String(), "Suggestions for improving the code, in Markdown format."),
	)

	DocumentInput = schema.MustNew(
		schema.Field("code", schema.String(), "The code to generate documentation for."),
		schema.Optional("documentationType", schema.Enum(DocumentationTypes...), "Type of documentation to generate."),
		schema.Optional("includeExamples", schema.Bool(), "Whether to include usage examples."),
	)
	DocumentOutput = schema.MustNew(
		schema.Field("documentation", schema.String(), "The generated documentation in Markdown format."),
		schema.Field("fileName", schema.String(), `The suggested filename for the documentation (e.g., "README.md", "API.md", "DOCS.md").`),
		schema.Field("summary", schema.String(), "A brief summary of what was documented."),
	)
)

type builtinFlow struct {
	name     string
	promptID string
	fallback string
	input    *schema.FlowSchema
	output   *schema.FlowSchema
}

var builtin = []builtinFlow{
	{Generate, prompt.PromptIDs.Generate, generatePrompt, GenerateInput, GenerateOutput},
	{Analyze, prompt.PromptIDs.Analyze, analyzePrompt, AnalyzeInput, AnalyzeOutput},
	{Document, prompt.PromptIDs.Document, documentPrompt, DocumentInput, DocumentOutput},
}

// Definitions builds the three flow definitions. A template registered in
// prompts under the flow's prompt ID replaces the built-in wording; prompts may
// be nil.
func Definitions(prompts *prompt.Registry) ([]*flow.Definition, error) {
	defs := make([]*flow.Definition, 0, len(builtin))
	for _, b := range builtin {
		tmpl, err := prompts.Resolve(b.promptID, b.fallback)
		if err != nil {
			return nil, fmt.Errorf("flows: %s prompt: %w", b.name, err)
		}
		def, err := flow.NewDefinition(b.name, b.input, b.output, tmpl)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// NewRegistry binds every definition to the provider chosen for it.
func NewRegistry(prompts *prompt.Registry, providerFor func(flow string) llm.Provider) (*flow.Registry, error) {
	defs, err := Definitions(prompts)
	if err != nil {
		return nil, err
	}
	r, _ := flow.NewRegistry()
	for _, def := range defs {
		if err := r.Register(flow.New(def, providerFor(def.Name()))); err != nil {
			return nil, err
		}
	}
	return r, nil
}
