package prompt

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const historyTmpl = `{{#if conversationHistory}}HISTORY:
{{#each conversationHistory}}{{role}}: {{content}}
{{/each}}{{/if}}REQUEST: {{{prompt}}}
{{#if framework}}FRAMEWORK: {{{framework}}}
{{/if}}END`

func TestRender_ConditionalElision(t *testing.T) {
	tmpl := MustParse("generate", historyTmpl)

	without, err := tmpl.Render(map[string]any{"prompt": "add two numbers"})
	require.NoError(t, err)
	assert.Equal(t, "REQUEST: add two numbers\nEND", without)

	with, err := tmpl.Render(map[string]any{"prompt": "add two numbers", "framework": "react"})
	require.NoError(t, err)
	assert.Equal(t, "REQUEST: add two numbers\nFRAMEWORK: react\nEND", with)

	empty, err := tmpl.Render(map[string]any{"prompt": "x", "framework": "", "conversationHistory": []any{}})
	require.NoError(t, err)
	assert.Equal(t, "REQUEST: x\nEND", empty)
}

func TestRender_HistoryOrder(t *testing.T) {
	tmpl := MustParse("generate", historyTmpl)
	bindings := map[string]any{
		"prompt": "next",
		"conversationHistory": []any{
			map[string]any{"role": "user", "content": "a"},
			map[string]any{"role": "assistant", "content": "b"},
			map[string]any{"role": "user", "content": "c"},
		},
	}

	out, err := tmpl.Render(bindings)
	require.NoError(t, err)
	assert.Equal(t, "HISTORY:\nuser: a\nassistant: b\nuser: c\nREQUEST: next\nEND", out)

	for _, turn := range []string{"user: a", "assistant: b", "user: c"} {
		assert.Equal(t, 1, strings.Count(out, turn), turn)
	}
	assert.Less(t, strings.Index(out, "user: a"), strings.Index(out, "assistant: b"))
	assert.Less(t, strings.Index(out, "assistant: b"), strings.Index(out, "user: c"))

	again, err := tmpl.Render(bindings)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestRender_Errors(t *testing.T) {
	tmpl := MustParse("t", "Hello {{name}}")
	_, err := tmpl.Render(map[string]any{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnboundField))
	var rerr *RenderError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "name", rerr.Path)

	loop := MustParse("t", "{{#each items}}{{this}}{{/each}}")
	_, err = loop.Render(map[string]any{"items": "not a list"})
	assert.ErrorIs(t, err, ErrNotAnArray)

	out, err := loop.Render(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestRender_ElseOptionalAndScalars(t *testing.T) {
	tmpl := MustParse("t", "{{#if includeExamples}}with examples{{else}}no examples{{/if}}|{{type?}}|{{#each tags}}[{{this}}]{{/each}}|{{user.name}}")

	out, err := tmpl.Render(map[string]any{
		"includeExamples": false,
		"tags":            []string{"go", "llm"},
		"user":            map[string]any{"name": "ana"},
	})
	require.NoError(t, err)
	assert.Equal(t, "no examples||[go][llm]|ana", out)

	out, err = tmpl.Render(map[string]any{
		"includeExamples": true,
		"type":            "api",
		"tags":            []any{},
		"user":            map[string]any{"name": "ana"},
	})
	require.NoError(t, err)
	assert.Equal(t, "with examples|api||ana", out)
}

func TestRender_LoopFallsBackToOuterScope(t *testing.T) {
	tmpl := MustParse("t", "{{#each turns}}{{speaker}}/{{content}};{{/each}}")
	out, err := tmpl.Render(map[string]any{
		"speaker": "outer",
		"turns":   []map[string]any{{"content": "a"}, {"content": "b", "speaker": "inner"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "outer/a;inner/b;", out)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"unclosed if", "{{#if a}}x", "unclosed {{#if}}"},
		{"mismatched close", "{{#if a}}x{{/each}}", "closes"},
		{"stray close", "x{{/if}}", "unexpected"},
		{"unterminated", "x {{name", "unterminated"},
		{"empty", "{{ }}", "empty tag"},
		{"bad name", "{{na-me}}", "invalid field name"},
		{"unknown block", "{{#with a}}{{/with}}", "unknown block"},
		{"else outside", "{{else}}", "outside"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("t", tt.src)
			require.Error(t, err)
			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Contains(t, perr.Msg, tt.msg)
		})
	}
}

func TestTemplate_Refs(t *testing.T) {
	tmpl := MustParse("generate", historyTmpl+"{{! ignored }}{{this}}")
	assert.Equal(t, []string{"conversationHistory", "prompt", "framework"}, tmpl.Refs())
}

func TestRegistry_ResolveAndLoad(t *testing.T) {
	dir := t.TempDir()
	flowsDir := filepath.Join(dir, "prompts", "flows")
	require.NoError(t, os.MkdirAll(flowsDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(flowsDir, "analyze.json"),
		[]byte(`{"description":"terse review","template":"Review: {{{code}}}"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(flowsDir, "document.hbs"),
		[]byte("Document {{code}}{{#if includeExamples}} with examples{{/if}}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(flowsDir, "notes.txt"), []byte("ignored"), 0644))

	r := NewRegistry()
	require.NoError(t, LoadFromDirectory(r, dir))
	assert.Equal(t, []string{"flows.analyze", "flows.document"}, r.IDs())

	tmpl, err := r.Resolve(PromptIDs.Analyze, "fallback {{code}}")
	require.NoError(t, err)
	out, err := tmpl.Render(map[string]any{"code": "x := 1"})
	require.NoError(t, err)
	assert.Equal(t, "Review: x := 1", out)

	tmpl, err = r.Resolve(PromptIDs.Document, "fallback")
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "includeExamples"}, tmpl.Refs())

	tmpl, err = r.Resolve(PromptIDs.Generate, "fallback {{prompt}}")
	require.NoError(t, err)
	assert.Equal(t, "fallback {{prompt}}", tmpl.Source())

	var nilRegistry *Registry
	_, err = nilRegistry.Resolve(PromptIDs.Generate, "{{prompt}}")
	assert.NoError(t, err)

	require.NoError(t, LoadFromDirectory(NewRegistry(), t.TempDir()))
}

func TestRegistry_RejectsBadOverrides(t *testing.T) {
	r := NewRegistry()
	assert.ErrorIs(t, r.Add(Override{Template: "x"}), ErrEmptyID)
	assert.Error(t, r.Add(Override{ID: PromptIDs.Analyze, Template: "{{#if a}}"}))
	assert.Zero(t, r.Count())

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "prompts"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompts", "broken.json"), []byte("{"), 0644))
	assert.Error(t, LoadFromDirectory(NewRegistry(), dir))
}
