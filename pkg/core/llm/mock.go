package llm

import (
	"context"
	"sync"
	"time"

	"codecanvas/pkg/core/schema"
)

// MockProvider provides deterministic responses for testing and offline runs.
// With no InvokeFunc it answers every prompt with a placeholder object built
// from the output schema.
type MockProvider struct {
	InvokeFunc func(ctx context.Context, prompt string, out *schema.FlowSchema) (map[string]any, error)
	Latency    time.Duration

	mu      sync.Mutex
	prompts []string
}

var _ Provider = (*MockProvider)(nil)

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Invoke(ctx context.Context, prompt string, out *schema.FlowSchema) (map[string]any, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.Latency > 0 {
		select {
		case <-time.After(m.Latency):
		case <-ctx.Done():
			return nil, classify(ctx, m.Name(), 0, ctx.Err())
		}
	}
	if m.InvokeFunc != nil {
		return m.InvokeFunc(ctx, prompt, out)
	}
	return Placeholder(out), nil
}

// Prompts returns every prompt received so far, in call order.
func (m *MockProvider) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Placeholder builds an object that satisfies s: strings are "mock <field>",
// booleans false, enums their first value, arrays empty. A field named fileName
// gets "mock.txt" so it keeps a file extension.
func Placeholder(s *schema.FlowSchema) map[string]any {
	out := make(map[string]any, s.Len())
	for _, f := range s.Fields() {
		out[f.Name] = placeholderValue(f.Name, f.Type)
	}
	return out
}

func placeholderValue(name string, t schema.Type) any {
	switch t.Kind {
	case schema.KindBool:
		return false
	case schema.KindEnum:
		return t.Values[0]
	case schema.KindArray:
		return []any{}
	case schema.KindObject:
		return Placeholder(t.Fields)
	default:
		if name == "fileName" {
			return "mock.txt"
		}
		return "mock " + name
	}
}
