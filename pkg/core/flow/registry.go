package flow

import (
	"context"
	"fmt"
	"sort"
)

// Registry maps flow names to flows. Fill it at startup; afterwards it is only
// read and needs no locking.
type Registry struct {
	flows map[string]*Flow
}

func NewRegistry(flows ...*Flow) (*Registry, error) {
	r := &Registry{flows: make(map[string]*Flow, len(flows))}
	for _, f := range flows {
		if err := r.Register(f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds f. Names are unique.
func (r *Registry) Register(f *Flow) error {
	if f == nil {
		return fmt.Errorf("flow: cannot register nil flow")
	}
	if _, dup := r.flows[f.Name()]; dup {
		return fmt.Errorf("flow %s: already registered", f.Name())
	}
	r.flows[f.Name()] = f
	return nil
}

func (r *Registry) Get(name string) (*Flow, bool) {
	f, ok := r.flows[name]
	return f, ok
}

// Names returns the registered flow names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.flows))
	for name := range r.flows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named flow.
func (r *Registry) Invoke(ctx context.Context, name string, input map[string]any) (map[string]any, error) {
	f, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFlow, name)
	}
	return f.Invoke(ctx, input)
}
