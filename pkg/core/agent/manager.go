package agent

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"codecanvas/pkg/core/llm"
	"codecanvas/pkg/core/schema"
)

// Config is the model routing read from config/models.yaml.
type Config struct {
	ActiveProvider string                    `yaml:"active_provider"`
	Agents         map[string]AgentConfig    `yaml:"agents"`    // keyed by flow name
	Providers      map[string]ProviderConfig `yaml:"providers"` // keyed by provider name
}

type AgentConfig struct {
	Provider    string `yaml:"provider"` // Optional override
	Description string `yaml:"description"`
}

type ProviderConfig struct {
	Model string `yaml:"model"`
}

// Manager decides which provider serves each flow. The global provider can be
// switched at runtime; per-flow overrides win over it.
type Manager struct {
	mu        sync.RWMutex
	config    Config
	providers map[string]llm.Provider
}

func NewManager(config Config, providers map[string]llm.Provider) *Manager {
	m := &Manager{config: config, providers: make(map[string]llm.Provider, len(providers))}
	for name, p := range providers {
		m.providers[name] = p
	}
	return m
}

// GetProvider returns the provider for a flow: the flow override if it is
// registered, otherwise the active provider.
func (m *Manager) GetProvider(flowName string) (llm.Provider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name, err := m.resolve(flowName)
	if err != nil {
		return nil, err
	}
	return m.providers[name], nil
}

// ProviderFor returns the registered name of the provider serving flowName.
func (m *Manager) ProviderFor(flowName string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolve(flowName)
}

func (m *Manager) resolve(flowName string) (string, error) {
	// 1. Check for flow-specific override
	if agentConfig, ok := m.config.Agents[flowName]; ok && agentConfig.Provider != "" {
		if _, ok := m.providers[agentConfig.Provider]; ok {
			return agentConfig.Provider, nil
		}
		log.Printf("[agent.Manager] flow %s: provider %q not registered, using %q", flowName, agentConfig.Provider, m.config.ActiveProvider)
	}

	// 2. Use global active provider
	if _, ok := m.providers[m.config.ActiveProvider]; ok {
		return m.config.ActiveProvider, nil
	}
	return "", fmt.Errorf("no provider registered for flow %s (active provider %q)", flowName, m.config.ActiveProvider)
}

// GetProviderByName retrieves a provider instance by its specific name (e.g. "deepseek", "gemini")
func (m *Manager) GetProviderByName(name string) llm.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.providers[name]
}

// For returns a Provider bound to flowName that resolves the concrete provider
// on every call, so a switch of the global provider applies to the next invocation.
func (m *Manager) For(flowName string) llm.Provider {
	return &routed{manager: m, flow: flowName}
}

func (m *Manager) SetGlobalProvider(newProvider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.providers[newProvider]; !ok {
		return fmt.Errorf("provider %s not found", newProvider)
	}
	m.config.ActiveProvider = newProvider
	log.Printf("[agent.Manager] Global provider set to: %s", newProvider)
	return nil
}

func (m *Manager) GetActiveProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.ActiveProvider
}

// Available lists the registered provider names, sorted.
func (m *Manager) Available() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type routed struct {
	manager *Manager
	flow    string
}

func (r *routed) Name() string {
	p, err := r.manager.GetProvider(r.flow)
	if err != nil {
		return "unresolved"
	}
	return p.Name()
}

func (r *routed) Invoke(ctx context.Context, prompt string, out *schema.FlowSchema) (map[string]any, error) {
	p, err := r.manager.GetProvider(r.flow)
	if err != nil {
		return nil, &llm.ProviderError{Provider: "agent", Kind: llm.ErrProviderUnavailable, Err: err}
	}
	return p.Invoke(ctx, prompt, out)
}
