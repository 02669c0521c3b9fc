package agent

import (
	"context"
	"log"

	"codecanvas/pkg/core/llm"
)

// BuildProviders constructs every provider whose credentials are available
// through getenv. The mock provider is always present so the service can start
// without any key.
func BuildProviders(ctx context.Context, cfg Config, getenv func(string) string) map[string]llm.Provider {
	model := func(name string) string { return cfg.Providers[name].Model }
	providers := map[string]llm.Provider{
		"mock": &llm.MockProvider{},
	}

	if key := getenv("GEMINI_API_KEY"); key != "" {
		if p, err := llm.NewGeminiProvider(ctx, key, model("gemini")); err != nil {
			log.Printf("[agent] gemini disabled: %v", err)
		} else {
			providers["gemini"] = p
		}
		if p, err := llm.NewGeminiLegacyProvider(ctx, key, model("gemini-legacy")); err != nil {
			log.Printf("[agent] gemini-legacy disabled: %v", err)
		} else {
			providers["gemini-legacy"] = p
		}
	}
	if key := getenv("DEEPSEEK_API_KEY"); key != "" {
		providers["deepseek"] = llm.NewDeepSeekProvider(key, model("deepseek"))
	}
	if key := getenv("OPENAI_API_KEY"); key != "" {
		providers["openai"] = llm.NewOpenAIProvider(key, model("openai"))
	}
	if key := getenv("MOONSHOT_API_KEY"); key != "" {
		providers["kimi"] = llm.NewKimiProvider(key, model("kimi"))
	}
	if key := getenv("ARK_API_KEY"); key != "" {
		providers["doubao"] = llm.NewDoubaoProvider(key, model("doubao"))
	}
	key := getenv("DASHSCOPE_API_KEY")
	// Fallback to QWEN_API_KEY if DASHSCOPE_API_KEY is not set
	if key == "" {
		key = getenv("QWEN_API_KEY")
	}
	if key != "" {
		providers["qwen"] = llm.NewQwenProvider(key, model("qwen"))
	}
	return providers
}
