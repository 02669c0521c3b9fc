// Package codefmt holds lightweight heuristics over code snippets: language
// guessing, file naming, basic metadata and indentation cleanup. None of it
// parses code; it is pattern matching good enough for labels and file names.
package codefmt

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

type languagePattern struct {
	language string
	re       *regexp.Regexp
}

// Checked in order; the first match wins.
var languagePatterns = []languagePattern{
	{"python", regexp.MustCompile(`\b(def|class|import|from|for|while|if|else|elif|try|except|finally|with|as|return|lambda)\b`)},
	{"javascript", regexp.MustCompile(`\b(function|const|let|var|import|export|class)\b|=>`)},
	{"typescript", regexp.MustCompile(`\b(interface|type|enum|namespace|declare)\b|:\s*(string|number|boolean|any)`)},
	{"react", regexp.MustCompile(`<[A-Z][a-zA-Z0-9]*|import.*from\s+['"]react['"]`)},
	{"java", regexp.MustCompile(`\b(public|private|protected|class|import|void|int|String|System\.out\.println)\b`)},
	{"cpp", regexp.MustCompile(`#include|\busing namespace\b|\b(cout|cin|int main)\b`)},
	{"html", regexp.MustCompile(`<html|<head|<body|<div|<span|<p|<!DOCTYPE`)},
	{"css", regexp.MustCompile(`\{[^}]*\}|@media|@import|@keyframes`)},
	{"sql", regexp.MustCompile(`(?i)\b(SELECT|FROM|WHERE|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP)\b`)},
	{"json", regexp.MustCompile(`^\s*\{[\s\S]*\}\s*$|^\s*\[[\s\S]*\]\s*$`)},
}

var extensions = map[string]string{
	"javascript": "js",
	"typescript": "ts",
	"python":     "py",
	"java":       "java",
	"cpp":        "cpp",
	"html":       "html",
	"css":        "css",
	"sql":        "sql",
	"react":      "jsx",
	"json":       "json",
	"text":       "txt",
}

// DetectLanguage names the language code most looks like, or "text".
func DetectLanguage(code string) string {
	for _, p := range languagePatterns {
		if p.re.MatchString(code) {
			return p.language
		}
	}
	return "text"
}

// FileExtension returns the extension (without the dot) for a language name
// returned by DetectLanguage; unknown languages get "txt".
func FileExtension(language string) string {
	if ext, ok := extensions[language]; ok {
		return ext
	}
	return "txt"
}

type Complexity string

const (
	Simple  Complexity = "simple"
	Medium  Complexity = "medium"
	Complex Complexity = "complex"
)

type Metadata struct {
	Language       string     `json:"language"`
	LineCount      int        `json:"lineCount"`
	CharacterCount int        `json:"characterCount"`
	HasComments    bool       `json:"hasComments"`
	Complexity     Complexity `json:"complexity"`
}

var (
	commentRe    = regexp.MustCompile(`//|/\*|\*/|#|<!--`)
	controlRe    = regexp.MustCompile(`\b(class|function|def|for|while|if)\b`)
	definitionRe = regexp.MustCompile(`\b(class|function|def)\b`)
)

// Analyze computes Metadata for code.
func Analyze(code string) Metadata {
	lines := strings.Count(code, "\n") + 1

	complexity := Simple
	if lines > 100 || controlRe.MatchString(code) {
		complexity = Medium
	}
	if lines > 200 || len(definitionRe.FindAllStringIndex(code, -1)) > 5 {
		complexity = Complex
	}

	return Metadata{
		Language:       DetectLanguage(code),
		LineCount:      lines,
		CharacterCount: len([]rune(code)),
		HasComments:    commentRe.MatchString(code),
		Complexity:     complexity,
	}
}

const tab = "  "

// Format re-indents code: JSON is pretty-printed, HTML is indented by tag
// nesting, anything else by bracket nesting. Invalid JSON is returned as is.
func Format(code, language string) string {
	switch language {
	case "json":
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(strings.TrimSpace(code)), "", tab); err != nil {
			return code
		}
		return buf.String()
	case "html":
		return formatHTML(code)
	default:
		return formatGeneric(code)
	}
}

func formatHTML(html string) string {
	var out []string
	indent := 0
	for _, line := range strings.Split(strings.ReplaceAll(html, "><", ">\n<"), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "</") {
			indent = max(0, indent-1)
		}
		out = append(out, strings.Repeat(tab, indent)+trimmed)
		if strings.HasPrefix(trimmed, "<") && !strings.HasPrefix(trimmed, "</") && !strings.HasSuffix(trimmed, "/>") {
			indent++
		}
	}
	return strings.Join(out, "\n")
}

func formatGeneric(code string) string {
	lines := strings.Split(code, "\n")
	out := make([]string, 0, len(lines))
	indent := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			out = append(out, "")
			continue
		}
		if strings.ContainsAny(trimmed[:1], "}])") {
			indent = max(0, indent-1)
		}
		out = append(out, strings.Repeat(tab, indent)+trimmed)
		if strings.ContainsAny(trimmed[len(trimmed)-1:], "{[(") {
			indent++
		}
	}
	return strings.Join(out, "\n")
}

var (
	jsFuncRe   = regexp.MustCompile(`function\s+(\w+)|const\s+(\w+)\s*=|(\w+)\s*:\s*function`)
	pyFuncRe   = regexp.MustCompile(`def\s+(\w+)`)
	javaFuncRe = regexp.MustCompile(`(?:public|private|protected)?\s*(?:static)?\s*\w+\s+(\w+)\s*\(`)
)

// ExtractFunctions lists the names of functions declared in code for the
// languages it knows (javascript, typescript, python, java).
func ExtractFunctions(code, language string) []string {
	var pattern *regexp.Regexp
	switch language {
	case "javascript", "typescript":
		pattern = jsFuncRe
	case "python":
		pattern = pyFuncRe
	case "java":
		pattern = javaFuncRe
	default:
		return nil
	}

	var names []string
	for _, m := range pattern.FindAllStringSubmatch(code, -1) {
		for _, g := range m[1:] {
			if g != "" {
				names = append(names, g)
				break
			}
		}
	}
	return names
}
