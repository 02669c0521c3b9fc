package codefmt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"def add(a, b):\n    return a + b", "python"},
		{"const add = (a, b) => a + b", "javascript"},
		{"SELECT * FROM users", "sql"},
		{"[1, 2, 3]", "json"},
		{"hello world", "text"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.code))
		})
	}
}

func TestFileExtension(t *testing.T) {
	assert.Equal(t, "jsx", FileExtension("react"))
	assert.Equal(t, "py", FileExtension("python"))
	assert.Equal(t, "txt", FileExtension("cobol"))
}

func TestAnalyze(t *testing.T) {
	m := Analyze("def a():\n    pass\n# note")
	assert.Equal(t, "python", m.Language)
	assert.Equal(t, 3, m.LineCount)
	assert.True(t, m.HasComments)
	assert.Equal(t, Medium, m.Complexity)

	assert.Equal(t, Simple, Analyze("x = 1").Complexity)
	assert.Equal(t, Complex, Analyze(strings.Repeat("def f():\n    pass\n", 6)).Complexity)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "{\n  \"a\": 1\n}", Format(`{"a":1}`, "json"))
	assert.Equal(t, "{broken", Format("{broken", "json"))
	assert.Equal(t, "<ul>\n  <li/>\n</ul>", Format("<ul><li/></ul>", "html"))
	assert.Equal(t, "func a() {\n  return 1\n}\n\nx()", Format("func a() {\n      return 1\n}\n\n  x()", "go"))
}

func TestExtractFunctions(t *testing.T) {
	js := "function foo() {}\nconst bar = () => 1\nobj = { baz: function() {} }"
	assert.Equal(t, []string{"foo", "bar", "baz"}, ExtractFunctions(js, "javascript"))
	assert.Equal(t, []string{"a", "b"}, ExtractFunctions("def a():\n  pass\ndef b():\n  pass", "python"))
	assert.Nil(t, ExtractFunctions("fn main() {}", "rust"))
}

func TestDetectExtension(t *testing.T) {
	assert.Equal(t, "go", DetectExtension("package main\n\nfunc main() {}"))
	assert.Equal(t, "tsx", DetectExtension("interface Props { name: string }\nexport const A = () => <div/>"))
	assert.Equal(t, "py", DetectExtension("def f():\n  return 1"))
	assert.Equal(t, "json", DetectExtension(`{"name": "x"}`))
	assert.Equal(t, "snippet.go", SnippetFileName("package main"))
}

func TestHasExtension(t *testing.T) {
	assert.True(t, HasExtension("main.go"))
	assert.True(t, HasExtension("Component.test.tsx"))
	assert.False(t, HasExtension("README"))
	assert.False(t, HasExtension(".env"))
	assert.False(t, HasExtension("a."))
}
