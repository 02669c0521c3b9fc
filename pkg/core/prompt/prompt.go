// Package prompt holds the prompt templates flows render. Templates are parsed
// once into a node tree (see Parse) and rendered against validated input. A
// Registry can carry overrides loaded from disk so prompt wording can be
// changed without a rebuild.
package prompt

// Override replaces the built-in template of one flow prompt.
type Override struct {
	ID          string `json:"id"` // e.g. "flows.generate"; derived from the file path when empty
	Description string `json:"description"`
	Template    string `json:"template"` // see Parse
	Version     string `json:"version"`

	source string // file it was loaded from, for log lines
}

// PromptIDs lists the identifiers of the built-in flow prompts.
var PromptIDs = struct {
	Generate string
	Analyze  string
	Document string
}{
	Generate: "flows.generate",
	Analyze:  "flows.analyze",
	Document: "flows.document",
}

// Known reports whether id names a built-in flow prompt.
func Known(id string) bool {
	return id == PromptIDs.Generate || id == PromptIDs.Analyze || id == PromptIDs.Document
}
