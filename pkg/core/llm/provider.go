// Package llm sends rendered prompts to generation providers and returns their
// structured output. Providers are constructed explicitly with their credentials;
// nothing in this package reads the environment.
package llm

import (
	"context"
	"fmt"
	"log"
	"strings"

	"codecanvas/pkg/core/schema"
	"codecanvas/pkg/core/utils"
)

// Provider is the interface for all LLM providers.
// Invoke sends prompt together with a machine-readable description of out and
// returns the decoded object. The object is untrusted: it may carry extra,
// missing or mistyped fields. Invoke never retries.
type Provider interface {
	Name() string
	Invoke(ctx context.Context, prompt string, out *schema.FlowSchema) (map[string]any, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, prompt string, out *schema.FlowSchema) (map[string]any, error)

func (f ProviderFunc) Name() string { return "func" }

func (f ProviderFunc) Invoke(ctx context.Context, prompt string, out *schema.FlowSchema) (map[string]any, error) {
	return f(ctx, prompt, out)
}

// schemaInstruction is the system message used by providers without native
// response schemas.
func schemaInstruction(out *schema.FlowSchema) string {
	var b strings.Builder
	b.WriteString("Respond with a single JSON object and nothing else. ")
	b.WriteString("The object must match this JSON Schema; every required property must be present:\n")
	b.WriteString(schema.Describe(out))
	return b.String()
}

// decode turns model text into an object. Text that is not a JSON object is a
// malformed output, not a transport failure.
func decode(provider, text string) (map[string]any, error) {
	obj, how, err := utils.DecodeObject(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", provider, ErrMalformedOutput, err)
	}
	if how != utils.StrategyJSON {
		log.Printf("[llm] %s: output was not strict JSON, decoded with %s", provider, how)
	}
	return obj, nil
}
