package prompt

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrEmptyID = errors.New("prompt override has no id")

type entry struct {
	override Override
	parsed   *Template
}

// Registry holds parsed prompt overrides by ID. It is filled at startup and
// read by flow construction afterwards.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Add parses o.Template and stores it, replacing an earlier override with the
// same ID. A template that does not parse is rejected and the registry is unchanged.
func (r *Registry) Add(o Override) error {
	if o.ID == "" {
		return ErrEmptyID
	}
	parsed, err := Parse(o.ID, o.Template)
	if err != nil {
		return fmt.Errorf("prompt %s: %w", o.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[o.ID] = entry{override: o, parsed: parsed}
	return nil
}

// Lookup returns the override template for id.
func (r *Registry) Lookup(id string) (*Template, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e.parsed, ok
}

// Resolve returns the override for id, or parses fallback when there is none.
// A nil registry always uses the fallback.
func (r *Registry) Resolve(id, fallback string) (*Template, error) {
	if t, ok := r.Lookup(id); ok {
		return t, nil
	}
	return Parse(id, fallback)
}

// IDs returns the overridden prompt IDs, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
