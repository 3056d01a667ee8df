package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValuesEqual(t *testing.T) {
	assert.True(t, ValuesEqual(int64(3), 3.0))
	assert.True(t, ValuesEqual([]Value{int64(1), "a"}, []Value{1.0, "a"}))
	assert.False(t, ValuesEqual(int64(3), "3"))
	assert.False(t, ValuesEqual(nil, int64(0)))
	assert.True(t, ValuesEqual(nil, nil))
}

func TestCloneVars(t *testing.T) {
	list := []Value{int64(1)}
	vars := map[string]Value{"xs": list}

	cp := CloneVars(vars)
	list[0] = int64(9)
	assert.Equal(t, []Value{int64(1)}, cp["xs"])

	assert.NotNil(t, CloneVars(nil))
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   Value
		want string
	}{
		{nil, "null"},
		{"hi", `"hi"`},
		{int64(-4), "-4"},
		{2.5, "2.5"},
		{true, "true"},
		{[]Value{int64(1), "a"}, `[1, "a"]`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in))
	}
}

func TestLanguage(t *testing.T) {
	lang, ok := ParseLanguage(" C++ ")
	assert.True(t, ok)
	assert.Equal(t, LangCPP, lang)

	_, ok = ParseLanguage("rust")
	assert.False(t, ok)

	lang, ok = LanguageFromFilename("dir/loop.PY")
	assert.True(t, ok)
	assert.Equal(t, LangPython, lang)

	_, ok = LanguageFromFilename("notes.txt")
	assert.False(t, ok)
}

func TestPolynomial(t *testing.T) {
	assert.Equal(t, ClassConstant, Polynomial(0))
	assert.Equal(t, ClassQuadratic, Polynomial(2))
	assert.Equal(t, Class("O(n^4)"), Polynomial(4))
	assert.Equal(t, "polynomial", Polynomial(4).Name())
	assert.Equal(t, "linear", ClassLinear.Name())
}

func TestSourceLineContext(t *testing.T) {
	src := "a\r\nb\nc\nd\n"

	ctx := SourceLineContext(src, 2)
	assert.Equal(t, "b", ctx.Target)
	assert.True(t, ctx.HasBefore1)
	assert.False(t, ctx.HasBefore2)
	assert.Equal(t, "c", ctx.After1)
	assert.Equal(t, "d", ctx.After2)

	ctx = SourceLineContext(src, 5)
	assert.Contains(t, ctx.ErrorMsg, "out of range")

	assert.Len(t, SplitLines(src), 4)
	assert.Nil(t, SplitLines(""))
}
