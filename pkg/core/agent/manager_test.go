package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"codecanvas/pkg/core/llm"
	"codecanvas/pkg/core/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

const modelsYAML = `
active_provider: deepseek
agents:
  document:
    provider: qwen
    description: long-form documentation
  analyze:
    provider: missing
providers:
  deepseek:
    model: deepseek-reasoner
`

func named(name string) *llm.MockProvider {
	return &llm.MockProvider{InvokeFunc: func(ctx context.Context, prompt string, out *schema.FlowSchema) (map[string]any, error) {
		return map[string]any{"provider": name}, nil
	}}
}

func TestManager_Routing(t *testing.T) {
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(modelsYAML), &cfg))
	assert.Equal(t, "deepseek-reasoner", cfg.Providers["deepseek"].Model)

	m := NewManager(cfg, map[string]llm.Provider{
		"deepseek": named("deepseek"),
		"qwen":     named("qwen"),
	})

	doc, err := m.GetProvider("document")
	require.NoError(t, err)
	out, _ := doc.Invoke(context.Background(), "", nil)
	assert.Equal(t, "qwen", out["provider"])

	// unknown override falls back to the active provider
	analyze, err := m.GetProvider("analyze")
	require.NoError(t, err)
	out, _ = analyze.Invoke(context.Background(), "", nil)
	assert.Equal(t, "deepseek", out["provider"])

	assert.Equal(t, []string{"deepseek", "qwen"}, m.Available())
	assert.Nil(t, m.GetProviderByName("gemini"))
}

func TestManager_SwitchAppliesToRoutedProvider(t *testing.T) {
	m := NewManager(Config{ActiveProvider: "deepseek"}, map[string]llm.Provider{
		"deepseek": named("deepseek"),
		"qwen":     named("qwen"),
	})
	generate := m.For("generate")

	out, err := generate.Invoke(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "deepseek", out["provider"])

	require.NoError(t, m.SetGlobalProvider("qwen"))
	assert.Equal(t, "qwen", m.GetActiveProvider())
	out, err = generate.Invoke(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "qwen", out["provider"])

	assert.Error(t, m.SetGlobalProvider("nope"))
}

func TestManager_NoProvider(t *testing.T) {
	m := NewManager(Config{ActiveProvider: "gemini"}, nil)
	_, err := m.For("generate").Invoke(context.Background(), "", nil)
	assert.ErrorIs(t, err, llm.ErrProviderUnavailable)
	assert.Equal(t, "unresolved", m.For("generate").Name())
}

func TestBuildProviders(t *testing.T) {
	env := map[string]string{
		"DEEPSEEK_API_KEY": "ds",
		"QWEN_API_KEY":     "qw",
	}
	cfg := Config{Providers: map[string]ProviderConfig{"qwen": {Model: "qwen-plus"}}}
	providers := BuildProviders(context.Background(), cfg, func(k string) string { return env[k] })

	assert.Contains(t, providers, "mock")
	assert.Contains(t, providers, "deepseek")
	assert.NotContains(t, providers, "gemini")
	require.Contains(t, providers, "qwen")
	assert.Equal(t, "qwen-plus", providers["qwen"].(*llm.QwenProvider).Model)
}

func TestManager_ProviderFor(t *testing.T) {
	m := NewManager(Config{
		ActiveProvider: "deepseek",
		Agents:         map[string]AgentConfig{"document": {Provider: "gemini-legacy"}},
	}, map[string]llm.Provider{
		"deepseek":      named("deepseek"),
		"gemini-legacy": named("gemini"),
	})

	name, err := m.ProviderFor("document")
	require.NoError(t, err)
	assert.Equal(t, "gemini-legacy", name)

	name, err = m.ProviderFor("generate")
	require.NoError(t, err)
	assert.Equal(t, "deepseek", name)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(modelsYAML), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "deepseek", cfg.ActiveProvider)
	assert.Equal(t, "qwen", cfg.Agents["document"].Provider)

	cfg, err = LoadConfig(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.ActiveProvider)

	require.NoError(t, os.WriteFile(path, []byte("agents: [unclosed"), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}
