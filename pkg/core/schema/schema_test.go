package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var turnSchema = MustNew(
	Field("role", Enum("user", "assistant"), ""),
	Field("content", String(), ""),
)

var generateInput = MustNew(
	Field("prompt", String(), "A description of the code snippet to generate."),
	Optional("framework", String(), "Optional framework or library to use."),
	Optional("conversationHistory", Array(Object(turnSchema)), "Previous conversation history for context."),
)

func TestNew_RejectsDuplicates(t *testing.T) {
	_, err := New(Field("a", String(), ""), Field("a", Bool(), ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate field "a"`)

	_, err = New(Field("", String(), ""))
	assert.Error(t, err)

	_, err = New(Field("kind", Enum(), ""))
	assert.Error(t, err)
}

func TestFlowSchema_KeepsDeclarationOrder(t *testing.T) {
	assert.Equal(t, []string{"prompt", "framework", "conversationHistory"}, generateInput.Names())
	assert.Equal(t, "{prompt: string, framework?: string, conversationHistory?: array<{role: enum(user,assistant), content: string}>}", generateInput.String())

	f, ok := generateInput.Lookup("framework")
	require.True(t, ok)
	assert.False(t, f.Required)
	_, ok = generateInput.Lookup("missing")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		value   map[string]any
		wantErr error
		path    string
	}{
		{"minimal", map[string]any{"prompt": "add two numbers"}, nil, ""},
		{"missing required", map[string]any{"framework": "react"}, ErrMissingField, "prompt"},
		{"null required", map[string]any{"prompt": nil}, ErrMissingField, "prompt"},
		{"null optional", map[string]any{"prompt": "x", "framework": nil}, nil, ""},
		{"wrong kind", map[string]any{"prompt": 42.0}, ErrTypeMismatch, "prompt"},
		{"history ok", map[string]any{
			"prompt": "x",
			"conversationHistory": []any{
				map[string]any{"role": "user", "content": "a"},
				map[string]any{"role": "assistant", "content": "b"},
			},
		}, nil, ""},
		{"history bad enum", map[string]any{
			"prompt": "x",
			"conversationHistory": []any{
				map[string]any{"role": "user", "content": "a"},
				map[string]any{"role": "system", "content": "b"},
			},
		}, ErrInvalidEnumValue, "conversationHistory[1].role"},
		{"history missing content", map[string]any{
			"prompt": "x",
			"conversationHistory": []map[string]any{
				{"role": "user"},
			},
		}, ErrMissingField, "conversationHistory[0].content"},
		{"history not an array", map[string]any{
			"prompt":              "x",
			"conversationHistory": "user: a",
		}, ErrTypeMismatch, "conversationHistory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Validate(tt.value, generateInput)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.NotNil(t, out)
				return
			}
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.path, verr.Path)
		})
	}
}

func TestValidate_IgnoresUndeclaredFields(t *testing.T) {
	out, err := Validate(map[string]any{"prompt": "x", "foo": "bar"}, generateInput)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"prompt": "x"}, out)
}

func TestValidate_BooleanAndEnum(t *testing.T) {
	s := MustNew(
		Field("code", String(), ""),
		Optional("documentationType", Enum("api", "readme", "inline", "technical"), ""),
		Optional("includeExamples", Bool(), ""),
	)

	_, err := Validate(map[string]any{"code": "x", "includeExamples": "true"}, s)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = Validate(map[string]any{"code": "x", "documentationType": "wiki"}, s)
	assert.ErrorIs(t, err, ErrInvalidEnumValue)
	assert.Contains(t, err.Error(), "enum(api,readme,inline,technical)")

	out, err := Validate(map[string]any{"code": "x", "documentationType": "api", "includeExamples": false}, s)
	require.NoError(t, err)
	assert.Equal(t, false, out["includeExamples"])
	assert.Equal(t, "api", out["documentationType"])
}

func TestCoerce(t *testing.T) {
	out := MustNew(
		Field("code", String(), ""),
		Field("explanation", String(), ""),
		Field("fileName", String(), ""),
	)

	t.Run("drops unknown fields", func(t *testing.T) {
		got, err := Coerce(map[string]any{
			"code": "x", "explanation": "y", "fileName": "a.py", "language": "python",
		}, out)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"code": "x", "explanation": "y", "fileName": "a.py"}, got)
	})

	t.Run("missing required fails", func(t *testing.T) {
		_, err := Coerce(map[string]any{"explanation": "y", "fileName": "a.py"}, out)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingField)
		assert.Contains(t, err.Error(), "code")
	})

	t.Run("no cross kind coercion", func(t *testing.T) {
		_, err := Coerce(map[string]any{"code": 12.0, "explanation": "y", "fileName": "a.py"}, out)
		assert.ErrorIs(t, err, ErrTypeMismatch)
	})

	t.Run("nil output", func(t *testing.T) {
		_, err := Coerce(nil, out)
		assert.ErrorIs(t, err, ErrNilValue)
	})

	t.Run("nested unknown fields dropped", func(t *testing.T) {
		got, err := Coerce(map[string]any{
			"prompt": "x",
			"conversationHistory": []any{
				map[string]any{"role": "user", "content": "a", "ts": 1.0},
			},
		}, generateInput)
		require.NoError(t, err)
		assert.Equal(t, []any{map[string]any{"role": "user", "content": "a"}}, got["conversationHistory"])
	})
}

func TestDescribe(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(Describe(generateInput)), &doc))

	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, []any{"prompt"}, doc["required"])
	assert.Equal(t, []any{"prompt", "framework", "conversationHistory"}, doc["propertyOrdering"])

	props := doc["properties"].(map[string]any)
	history := props["conversationHistory"].(map[string]any)
	assert.Equal(t, "array", history["type"])
	items := history["items"].(map[string]any)
	role := items["properties"].(map[string]any)["role"].(map[string]any)
	assert.Equal(t, []any{"user", "assistant"}, role["enum"])
}
