package prompt

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnboundField = errors.New("unbound field")
	ErrNotAnArray   = errors.New("each over a non-array value")
)

// ParseError reports a malformed template. Offset is the byte offset of the
// offending tag in the source.
type ParseError struct {
	Template string
	Offset   int
	Msg      string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("template %s: offset %d: %s", e.Template, e.Offset, e.Msg)
}

// RenderError reports a binding problem found while rendering.
type RenderError struct {
	Template string
	Path     string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("template %s: %s: %v", e.Template, e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Node is one element of a parsed template.
type Node interface {
	render(b *strings.Builder, sc *scope, tmpl string) error
}

// Literal is text emitted verbatim.
type Literal struct {
	Text string
}

// Substitution inserts the string form of a bound value: {{path}}, {{{path}}},
// or {{path?}} when an unbound value should render as nothing.
type Substitution struct {
	Path     string
	Optional bool
}

// Conditional emits Then when Path is bound to a truthy value and Else otherwise.
type Conditional struct {
	Path string
	Then []Node
	Else []Node
}

// Loop emits Body once per element of the array bound to Path, in array order.
// Inside the body the element's fields are bound first and {{this}} is the element.
type Loop struct {
	Path string
	Body []Node
}

// Template is a parsed prompt. It is immutable and safe for concurrent use.
type Template struct {
	name   string
	source string
	nodes  []Node
}

// Name returns the template name used in errors.
func (t *Template) Name() string { return t.name }

// Source returns the unparsed template text.
func (t *Template) Source() string { return t.source }

// Nodes returns the top level nodes.
func (t *Template) Nodes() []Node { return append([]Node(nil), t.nodes...) }

// Render produces the prompt text for bindings. It has no side effects; equal
// bindings always produce byte-identical output.
func (t *Template) Render(bindings map[string]any) (string, error) {
	var b strings.Builder
	b.Grow(len(t.source))
	sc := &scope{vars: bindings}
	if err := renderNodes(t.nodes, &b, sc, t.name); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Refs returns the root field names the template reads outside of loop bodies,
// in first-use order. Loop bodies resolve against their element first, so their
// references are not included; the loop path itself is.
func (t *Template) Refs() []string {
	seen := map[string]bool{}
	var refs []string
	add := func(path string) {
		root := strings.SplitN(path, ".", 2)[0]
		if root == "this" || seen[root] {
			return
		}
		seen[root] = true
		refs = append(refs, root)
	}
	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			switch n := n.(type) {
			case *Substitution:
				add(n.Path)
			case *Conditional:
				add(n.Path)
				walk(n.Then)
				walk(n.Else)
			case *Loop:
				add(n.Path)
			}
		}
	}
	walk(t.nodes)
	return refs
}

func renderNodes(nodes []Node, b *strings.Builder, sc *scope, tmpl string) error {
	for _, n := range nodes {
		if err := n.render(b, sc, tmpl); err != nil {
			return err
		}
	}
	return nil
}

func (n *Literal) render(b *strings.Builder, _ *scope, _ string) error {
	b.WriteString(n.Text)
	return nil
}

func (n *Substitution) render(b *strings.Builder, sc *scope, tmpl string) error {
	v, ok := sc.lookup(n.Path)
	if !ok {
		if n.Optional {
			return nil
		}
		return &RenderError{Template: tmpl, Path: n.Path, Err: ErrUnboundField}
	}
	b.WriteString(stringify(v))
	return nil
}

func (n *Conditional) render(b *strings.Builder, sc *scope, tmpl string) error {
	v, ok := sc.lookup(n.Path)
	if ok && truthy(v) {
		return renderNodes(n.Then, b, sc, tmpl)
	}
	return renderNodes(n.Else, b, sc, tmpl)
}

func (n *Loop) render(b *strings.Builder, sc *scope, tmpl string) error {
	v, ok := sc.lookup(n.Path)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		switch s := v.(type) {
		case []map[string]any:
			items = make([]any, len(s))
			for i := range s {
				items[i] = s[i]
			}
		case []string:
			items = make([]any, len(s))
			for i := range s {
				items[i] = s[i]
			}
		default:
			return &RenderError{Template: tmpl, Path: n.Path, Err: ErrNotAnArray}
		}
	}
	for _, item := range items {
		inner := &scope{parent: sc, this: item, hasThis: true}
		if m, ok := item.(map[string]any); ok {
			inner.vars = m
		}
		if err := renderNodes(n.Body, b, inner, tmpl); err != nil {
			return err
		}
	}
	return nil
}

type scope struct {
	parent  *scope
	vars    map[string]any
	this    any
	hasThis bool
}

func (s *scope) lookup(path string) (any, bool) {
	parts := strings.Split(path, ".")
	var (
		v  any
		ok bool
	)
	if parts[0] == "this" {
		v, ok = s.current()
	} else {
		for sc := s; sc != nil; sc = sc.parent {
			if v, ok = sc.vars[parts[0]]; ok {
				break
			}
		}
	}
	if !ok || v == nil {
		return nil, false
	}
	for _, p := range parts[1:] {
		m, isMap := v.(map[string]any)
		if !isMap {
			return nil, false
		}
		if v, ok = m[p]; !ok || v == nil {
			return nil, false
		}
	}
	return v, true
}

func (s *scope) current() (any, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.hasThis {
			return sc.this, true
		}
	}
	if s.vars == nil {
		return nil, false
	}
	return s.vars, true
}

// truthy: non-empty string, true, non-empty array, any present object.
func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case []any:
		return len(v) > 0
	case []map[string]any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return true
	}
}

func stringify(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(v, ",")
	default:
		return fmt.Sprint(v)
	}
}
