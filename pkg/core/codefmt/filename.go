package codefmt

import (
	"regexp"
	"strings"
)

func re(expr string) *regexp.Regexp { return regexp.MustCompile(expr) }

var (
	tsKeywordRe   = re(`\b(interface|type|enum|namespace|declare|as\s+\w+)\b`)
	tsAnnotRe     = re(`:\s*(string|number|boolean|object|any|void|never|unknown)\b`)
	tagRe         = re(`<[a-zA-Z]`)
	jsDeclRe      = re(`\b(import|export|const|let|var|function|class)\b`)
	jsxHintRe     = re(`\b(react|component|jsx|props|state)\b`)
	jsxDeclRe     = re(`\b(import|export|const|let|var|function)\b`)
	pyRe          = re(`\b(def|class|import|from|elif|except|finally|with|lambda|print|len|range|str|int|float|list|dict|tuple)\b`)
	hashLineRe    = re(`^\s*#`)
	colonEndRe    = re(`:\s*$`)
	jsRe          = re(`\b(function|const|let|var|import|export|require|module\.exports|console\.log|async|await)\b|=>`)
	javaRe        = re(`\b(public|private|protected|static|void|int|string|boolean|class|interface|extends|implements|system\.out\.println)\b`)
	javaClassRe   = re(`\bclass\s+\w+\s*\{`)
	csRe          = re(`\b(using|namespace|public|private|static|void|int|string|bool|class|interface|var|console\.writeline)\b`)
	csUsingRe     = re(`(?i)\busing\s+system`)
	cRe           = re(`#include|\b(int\s+main|printf|cout|cin|iostream|stdio\.h)\b|std::`)
	cppRe         = re(`\b(cout|cin|iostream|class|template|namespace)\b|std::`)
	phpRe         = re(`(?i)^<\?php|\$\w+|echo\s+|print\s+|\bfunction\s+\w+\s*\(`)
	rubyRe        = re(`\b(def|end|class|module|require|puts|print|attr_accessor|attr_reader|attr_writer)\b`)
	goRe          = re(`\b(package|import|func|var|const|type|struct|interface|go|fmt\.print)\b`)
	rustRe        = re(`\b(fn|let|mut|struct|enum|impl|trait|use|mod|pub)\b|println!|vec!`)
	sqlRe         = re(`\b(select|insert|update|delete|create|drop|alter|table|database|from|where|join|group\s+by|order\s+by)\b`)
	cssBlockRe    = re(`\{[^}]*\}`)
	cssSelectorRe = re(`[.#]?\w+\s*\{`)
	cssPropRe     = re(`\b(color|background|margin|padding|border|font|width|height|display|position)\b`)
	htmlRe        = re(`<html|<head|<body|<div|<span|<p|<h[1-6]|<a|<img|<ul|<li|<table|<form`)
	jsonOpenRe    = re(`^\s*[\{\[]`)
	jsonCloseRe   = re(`[\}\]]\s*$`)
	jsonKeyRe     = re(`"[^"]*"\s*:\s*`)
	xmlRe         = re(`<\?xml|<\w+[^>]*>.*</\w+>`)
	yamlRe        = re(`^\s*\w+:\s*`)
	bracketRe     = re(`[{}\[\]]`)
	markdownRe    = re(`^#+\s+|\*\*.*\*\*|\*.*\*|` + "`.*`" + `|\[.*\]\(.*\)`)
	shebangRe     = re(`^#!`)
	shellRe       = re(`\b(echo|ls|cd|mkdir|rm|cp|mv|grep|awk|sed|chmod)\b`)
)

// DetectExtension guesses a file extension for code from a wider set of
// languages than DetectLanguage (tsx, jsx, go, rust, yaml, shell, ...).
func DetectExtension(code string) string {
	lower := strings.ToLower(code)
	firstLine, _, _ := strings.Cut(code, "\n")

	switch {
	case (tsKeywordRe.MatchString(lower) || tsAnnotRe.MatchString(lower) || tagRe.MatchString(code)) && jsDeclRe.MatchString(lower):
		if tagRe.MatchString(code) {
			return "tsx"
		}
		return "ts"
	case tagRe.MatchString(code) && (jsxHintRe.MatchString(lower) || jsxDeclRe.MatchString(lower)):
		return "jsx"
	case pyRe.MatchString(lower) || hashLineRe.MatchString(code) || colonEndRe.MatchString(firstLine):
		return "py"
	case jsRe.MatchString(lower):
		return "js"
	case javaRe.MatchString(lower) || javaClassRe.MatchString(code):
		return "java"
	case csRe.MatchString(lower) || csUsingRe.MatchString(code):
		return "cs"
	case cRe.MatchString(lower):
		if cppRe.MatchString(lower) {
			return "cpp"
		}
		return "c"
	case phpRe.MatchString(code):
		return "php"
	case rubyRe.MatchString(lower):
		return "rb"
	case goRe.MatchString(lower):
		return "go"
	case rustRe.MatchString(lower):
		return "rs"
	case sqlRe.MatchString(lower):
		return "sql"
	case cssBlockRe.MatchString(code) && cssSelectorRe.MatchString(code) && cssPropRe.MatchString(lower):
		return "css"
	case htmlRe.MatchString(lower):
		return "html"
	case jsonOpenRe.MatchString(code) && jsonCloseRe.MatchString(code) && jsonKeyRe.MatchString(code):
		return "json"
	case xmlRe.MatchString(code):
		return "xml"
	case yamlRe.MatchString(code) && !bracketRe.MatchString(code):
		return "yaml"
	case markdownRe.MatchString(code):
		return "md"
	case shebangRe.MatchString(code) || shellRe.MatchString(lower):
		return "sh"
	}
	return "txt"
}

// SnippetFileName is the download name for an unnamed snippet.
func SnippetFileName(code string) string {
	return "snippet." + DetectExtension(code)
}

// HasExtension reports whether name looks like "<stem>.<ext>".
func HasExtension(name string) bool {
	i := strings.LastIndexByte(name, '.')
	return i > 0 && i < len(name)-1 && !strings.ContainsAny(name[i+1:], "/\\ ")
}
