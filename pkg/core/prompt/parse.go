package prompt

import (
	"strings"
)

// Parse compiles a logic-less template. Supported tags:
//
//	{{field}} {{{field}}}        substitution (no escaping is ever applied)
//	{{field?}}                   substitution that renders nothing when unbound
//	{{#if field}}..{{else}}..{{/if}}
//	{{#each field}}..{{/each}}   with {{this}} bound to the element
//	{{! comment}}
//
// Text outside tags, whitespace included, is kept verbatim.
func Parse(name, src string) (*Template, error) {
	p := &parser{name: name, src: src}
	nodes, err := p.parse()
	if err != nil {
		return nil, err
	}
	return &Template{name: name, source: src, nodes: nodes}, nil
}

// MustParse is like Parse but panics on error
func MustParse(name, src string) *Template {
	t, err := Parse(name, src)
	if err != nil {
		panic(err)
	}
	return t
}

type frame struct {
	kind   string // "if" or "each"
	offset int
	node   Node
	inElse bool
	nodes  []Node
}

type parser struct {
	name  string
	src   string
	stack []*frame
	root  []Node
}

func (p *parser) errorf(offset int, msg string) error {
	return &ParseError{Template: p.name, Offset: offset, Msg: msg}
}

func (p *parser) emit(n Node) {
	if len(p.stack) == 0 {
		p.root = append(p.root, n)
		return
	}
	top := p.stack[len(p.stack)-1]
	top.nodes = append(top.nodes, n)
}

func (p *parser) parse() ([]Node, error) {
	pos := 0
	for pos < len(p.src) {
		open := strings.Index(p.src[pos:], "{{")
		if open < 0 {
			p.emit(&Literal{Text: p.src[pos:]})
			break
		}
		open += pos
		if open > pos {
			p.emit(&Literal{Text: p.src[pos:open]})
		}

		closer := "}}"
		start := open + 2
		if strings.HasPrefix(p.src[open:], "{{{") {
			closer = "}}}"
			start = open + 3
		}
		end := strings.Index(p.src[start:], closer)
		if end < 0 {
			return nil, p.errorf(open, "unterminated tag")
		}
		body := strings.TrimSpace(p.src[start : start+end])
		if err := p.tag(body, open, closer == "}}}"); err != nil {
			return nil, err
		}
		pos = start + end + len(closer)
	}
	if len(p.stack) > 0 {
		top := p.stack[len(p.stack)-1]
		return nil, p.errorf(top.offset, "unclosed {{#"+top.kind+"}}")
	}
	return p.root, nil
}

func (p *parser) tag(body string, offset int, triple bool) error {
	if body == "" {
		return p.errorf(offset, "empty tag")
	}
	if triple && strings.ContainsAny(body[:1], "#/!") {
		return p.errorf(offset, "block tags cannot use triple braces")
	}
	switch {
	case strings.HasPrefix(body, "!"):
		return nil
	case strings.HasPrefix(body, "#"):
		fields := strings.Fields(body[1:])
		if len(fields) != 2 {
			return p.errorf(offset, "block tag needs exactly one field: "+body)
		}
		kind, path := fields[0], fields[1]
		if !validPath(path) {
			return p.errorf(offset, "invalid field name "+path)
		}
		var n Node
		switch kind {
		case "if":
			n = &Conditional{Path: path}
		case "each":
			n = &Loop{Path: path}
		default:
			return p.errorf(offset, "unknown block #"+kind)
		}
		p.stack = append(p.stack, &frame{kind: kind, offset: offset, node: n})
		return nil
	case body == "else":
		if len(p.stack) == 0 || p.stack[len(p.stack)-1].kind != "if" {
			return p.errorf(offset, "{{else}} outside {{#if}}")
		}
		top := p.stack[len(p.stack)-1]
		if top.inElse {
			return p.errorf(offset, "duplicate {{else}}")
		}
		top.node.(*Conditional).Then = top.nodes
		top.nodes = nil
		top.inElse = true
		return nil
	case strings.HasPrefix(body, "/"):
		kind := strings.TrimSpace(body[1:])
		if len(p.stack) == 0 {
			return p.errorf(offset, "unexpected {{/"+kind+"}}")
		}
		top := p.stack[len(p.stack)-1]
		if top.kind != kind {
			return p.errorf(offset, "{{/"+kind+"}} closes {{#"+top.kind+"}}")
		}
		p.stack = p.stack[:len(p.stack)-1]
		switch n := top.node.(type) {
		case *Conditional:
			if top.inElse {
				n.Else = top.nodes
			} else {
				n.Then = top.nodes
			}
		case *Loop:
			n.Body = top.nodes
		}
		p.emit(top.node)
		return nil
	}

	optional := strings.HasSuffix(body, "?")
	path := strings.TrimSuffix(body, "?")
	if !validPath(path) {
		return p.errorf(offset, "invalid field name "+path)
	}
	p.emit(&Substitution{Path: path, Optional: optional})
	return nil
}

func validPath(path string) bool {
	if path == "" {
		return false
	}
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return false
		}
		for i, r := range part {
			switch {
			case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			case r >= '0' && r <= '9' && i > 0:
			default:
				return false
			}
		}
	}
	return true
}
