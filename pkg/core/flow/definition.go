package flow

import (
	"fmt"

	"codecanvas/pkg/core/prompt"
	"codecanvas/pkg/core/schema"
)

// Definition binds a name, its input and output schemas and a prompt template.
// It is built once at startup and never modified, so it can be shared by any
// number of concurrent invocations.
type Definition struct {
	name     string
	input    *schema.FlowSchema
	output   *schema.FlowSchema
	template *prompt.Template
}

// NewDefinition checks that every field the template reads is declared in the
// input schema.
func NewDefinition(name string, input, output *schema.FlowSchema, tmpl *prompt.Template) (*Definition, error) {
	switch {
	case name == "":
		return nil, fmt.Errorf("flow: name cannot be empty")
	case input == nil || output == nil:
		return nil, fmt.Errorf("flow %s: input and output schemas are required", name)
	case output.Len() == 0:
		return nil, fmt.Errorf("flow %s: output schema has no fields", name)
	case tmpl == nil:
		return nil, fmt.Errorf("flow %s: template is required", name)
	}
	for _, ref := range tmpl.Refs() {
		if _, ok := input.Lookup(ref); !ok {
			return nil, fmt.Errorf("flow %s: template reads undeclared field %q", name, ref)
		}
	}
	return &Definition{name: name, input: input, output: output, template: tmpl}, nil
}

func (d *Definition) Name() string { return d.name }
func (d *Definition) Input() *schema.FlowSchema { return d.input }
func (d *Definition) Output() *schema.FlowSchema { return d.output }
func (d *Definition) Template() *prompt.Template { return d.template }
