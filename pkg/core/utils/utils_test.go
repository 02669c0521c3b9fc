package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObject(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		obj, err := ParseObject(`{"code": "print(1)", "ok": true}`)
		require.NoError(t, err)
		assert.Equal(t, "print(1)", obj["code"])
		assert.Equal(t, true, obj["ok"])
	})

	t.Run("fenced json", func(t *testing.T) {
		obj, err := ParseObject("```json\n{\"fileName\": \"main.go\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, "main.go", obj["fileName"])
	})

	t.Run("trailing comma", func(t *testing.T) {
		obj, err := ParseObject(`{"summary": "done",}`)
		require.NoError(t, err)
		assert.Equal(t, "done", obj["summary"])
	})

	t.Run("keeps json types", func(t *testing.T) {
		obj, err := ParseObject(`{"n": 1, "flag": "true"}`)
		require.NoError(t, err)
		assert.Equal(t, 1.0, obj["n"])
		assert.Equal(t, "true", obj["flag"])
	})

	t.Run("array is not an object", func(t *testing.T) {
		_, err := ParseObject(`[1, 2]`)
		assert.True(t, errors.Is(err, ErrNotAnObject), "got %v", err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseObject("   ")
		assert.ErrorIs(t, err, ErrNotAnObject)
	})
}

func TestDecodeObject_Strategy(t *testing.T) {
	_, how, err := DecodeObject("```json\n{\"a\": \"b\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, StrategyJSON, how)

	obj, how, err := DecodeObject(`{"a": "b",}`)
	require.NoError(t, err)
	assert.NotEqual(t, StrategyJSON, how)
	assert.Equal(t, "b", obj["a"])
}

func TestCleanMarkdown(t *testing.T) {
	assert.Equal(t, "# Title", CleanMarkdown("```markdown\n# Title\n```"))
	assert.Equal(t, "x := 1", CleanMarkdown("```\nx := 1\n```"))
	assert.Equal(t, "no fence", CleanMarkdown("  no fence \n"))
}

func TestMarkdownText(t *testing.T) {
	text, err := PlainText("# Title\n\nSome **bold** text")
	require.NoError(t, err)
	assert.Equal(t, "Title Some bold text", text)

	assert.Equal(t, "Setup", FirstHeading("intro\n\n## Setup\n\nsteps"))
	assert.Equal(t, "", FirstHeading("no headings here"))

	assert.True(t, ValidateMarkdown("hello"))
	assert.False(t, ValidateMarkdown(""))
}
