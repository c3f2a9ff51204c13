package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	t.Parallel()

	lang, ok := Get("javascript")
	require.True(t, ok)
	assert.Equal(t, "javascript", lang.Name())

	_, ok = Get("cobol")
	assert.False(t, ok)
}

func TestGetCaseInsensitive(t *testing.T) {
	t.Parallel()

	lang, ok := Get("Go")
	require.True(t, ok)
	assert.Equal(t, "go", lang.Name())
}

func TestByExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want string
		ok   bool
	}{
		{ext: ".go", want: "go", ok: true},
		{ext: ".js", want: "javascript", ok: true},
		{ext: ".mjs", want: "javascript", ok: true},
		{ext: ".tsx", want: "tsx", ok: true},
		{ext: ".PY", want: "python", ok: true},
		{ext: ".zig", ok: false},
		{ext: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			t.Parallel()

			lang, ok := ByExtension(tt.ext)
			if ok != tt.ok {
				t.Fatalf("ByExtension(%q) ok = %v, want %v", tt.ext, ok, tt.ok)
			}

			if ok && lang.Name() != tt.want {
				t.Errorf("ByExtension(%q) = %s, want %s", tt.ext, lang.Name(), tt.want)
			}
		})
	}
}

func TestDetectByPath(t *testing.T) {
	t.Parallel()

	lang, ok := Detect("src/main.rs", nil)
	require.True(t, ok)
	assert.Equal(t, "rust", lang.Name())
}

func TestDetectUnknown(t *testing.T) {
	t.Parallel()

	_, ok := Detect("Makefile.custom.xyz", []byte("not a known language"))
	assert.False(t, ok)
}

func TestPreProcessPattern(t *testing.T) {
	t.Parallel()

	goLang, ok := Get("go")
	require.True(t, ok)

	js, ok := Get("javascript")
	require.True(t, ok)

	assert.Equal(t, "µA := µB", goLang.PreProcessPattern("$A := $B"))
	assert.Equal(t, "$A($$$ARGS)", js.PreProcessPattern("$A($$$ARGS)"))
	assert.Equal(t, expandoChar, goLang.ExpandoChar())
	assert.Equal(t, rune(MetaVarChar), js.ExpandoChar())
}

func TestExpandKindAlias(t *testing.T) {
	t.Parallel()

	js, ok := Get("javascript")
	require.True(t, ok)

	assert.Contains(t, js.ExpandKindAlias("function"), "arrow_function")
	assert.Equal(t, []string{"call_expression"}, js.ExpandKindAlias("call_expression"))
}

func TestIsCommentKind(t *testing.T) {
	t.Parallel()

	js, ok := Get("javascript")
	require.True(t, ok)

	assert.True(t, js.IsCommentKind("comment"))
	assert.True(t, js.IsCommentKind("line_comment"))
	assert.False(t, js.IsCommentKind("call_expression"))
}
