package expr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracelens/internal/model"
)

func TestEval_Arithmetic(t *testing.T) {
	scope := MapScope{"i": int64(3), "idx": int64(10), "x": 2.5, "name": "bob"}

	tests := []struct {
		name    string
		dialect Dialect
		src     string
		want    model.Value
	}{
		{"int add", CFamily, "1 + 2 * 3", int64(7)},
		{"parens", CFamily, "(1 + 2) * 3", int64(9)},
		{"identifier", CFamily, "i + 1", int64(4)},
		{"no partial substitution", CFamily, "idx - i", int64(7)},
		{"c int division", CFamily, "7 / 2", int64(3)},
		{"c negative truncation", CFamily, "-7 / 2", int64(-3)},
		{"python true division", Python, "7 / 2", 3.5},
		{"python floor division", Python, "-7 // 2", int64(-4)},
		{"python modulo sign", Python, "-7 % 3", int64(2)},
		{"c modulo sign", CFamily, "-7 % 3", int64(-1)},
		{"js whole division", JavaScript, "6 / 3", int64(2)},
		{"js fractional division", JavaScript, "7 / 2", 3.5},
		{"power", Python, "2 ** 10", int64(1024)},
		{"power right assoc", Python, "2 ** 3 ** 2", int64(512)},
		{"unary minus binds looser than power", Python, "-2 ** 2", int64(-4)},
		{"float mix", CFamily, "x * 2", 5.0},
		{"string concat", Python, "'hi ' + name", "hi bob"},
		{"js loose concat", JavaScript, "'n=' + i", "n=3"},
		{"string repeat", Python, "'ab' * 2", "abab"},
		{"list literal", Python, "[1, 2, i]", []model.Value{int64(1), int64(2), int64(3)}},
		{"len builtin", Python, "len([1, 2, 3])", int64(3)},
		{"length member", JavaScript, "[4, 5].length", int64(2)},
		{"index", Python, "[4, 5, 6][1]", int64(5)},
		{"negative index", Python, "[4, 5, 6][-1]", int64(6)},
		{"math floor", JavaScript, "Math.floor(7 / 2)", int64(3)},
		{"qualified max", CFamily, "std::max(i, 9)", int64(9)},
		{"fstring", Python, `f"i={i}, x={x:.2f}"`, "i=3, x=2.50"},
		{"template literal", JavaScript, "`i is ${i + 1}`", "i is 4"},
		{"char literal", CFamily, "'a'", "a"},
		{"long suffix", CFamily, "10L + 1", int64(11)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := New(tt.dialect).Eval(tt.src, scope)
			require.True(t, ok, "expected %q to evaluate", tt.src)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEval_Boolean(t *testing.T) {
	scope := MapScope{"i": int64(5), "xs": []model.Value{int64(1), int64(2)}}

	tests := []struct {
		name    string
		dialect Dialect
		src     string
		want    model.Value
	}{
		{"less", CFamily, "i < 5", false},
		{"less equal", CFamily, "i <= 5", true},
		{"and", CFamily, "i > 0 && i < 10", true},
		{"or short circuit avoids bad index", Python, "i >= 2 or xs[i] == 0", true},
		{"and short circuit avoids bad index", Python, "i < 2 and xs[i] == 0", false},
		{"not", Python, "not i == 5", false},
		{"bang", CFamily, "!(i == 5)", false},
		{"strict equal", JavaScript, "i === 5", true},
		{"strict not equal", JavaScript, "i !== 5", false},
		{"python chain", Python, "0 < i < 10", true},
		{"python chain false", Python, "0 < i < 3", false},
		{"membership", Python, "2 in xs", true},
		{"not in", Python, "3 not in xs", true},
		{"numeric cross type equality", Python, "i == 5.0", true},
		{"python value logic", Python, "0 or 7", int64(7)},
		{"c bool logic", CFamily, "0 || 7", true},
		{"True keyword", Python, "True and False", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := New(tt.dialect).Eval(tt.src, scope)
			require.True(t, ok, "expected %q to evaluate", tt.src)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEval_Unknown(t *testing.T) {
	scope := MapScope{"i": int64(1)}

	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"unbound identifier", "j + 1"},
		{"arbitrary call", "system(1)"},
		{"disallowed character", "i; rm"},
		{"assignment", "i = 2"},
		{"division by zero", "i / 0"},
		{"index out of range", "[1][3]"},
		{"mixed comparison", "'a' < 1"},
		{"unterminated string", `"abc`},
		{"trailing tokens", "1 2"},
		{"floor div in c", "7 // 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := New(CFamily).Eval(tt.src, scope)
			assert.False(t, ok)
		})
	}
}

func TestEval_IntegerOverflow(t *testing.T) {
	scope := MapScope{"big": int64(math.MaxInt64), "small": int64(math.MinInt64)}

	tests := []struct {
		name    string
		dialect Dialect
		src     string
		want    model.Value
		ok      bool
	}{
		{"python power past int64", Python, "2 ** 64", nil, false},
		{"python power ten", Python, "10 ** 20", nil, false},
		{"python add", Python, "big + 1", nil, false},
		{"python sub", Python, "small - 1", nil, false},
		{"python mul", Python, "big * 2", nil, false},
		{"python largest power fits", Python, "2 ** 62", int64(1 << 62), true},
		{"python negative product fits", Python, "small * 1", int64(math.MinInt64), true},
		{"js power promotes", JavaScript, "2 ** 64", math.Pow(2, 64), true},
		{"js add promotes", JavaScript, "big + 1", math.Pow(2, 63), true},
		{"js pow builtin promotes", JavaScript, "Math.pow(10, 20)", 1e20, true},
		{"c add wraps", CFamily, "big + 1", int64(math.MinInt64), true},
		{"c mul wraps", CFamily, "big * 2", int64(-2), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := New(tt.dialect).Eval(tt.src, scope)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPowInt64(t *testing.T) {
	p, exact := PowInt64(3, 4)
	assert.True(t, exact)
	assert.Equal(t, int64(81), p)

	p, exact = PowInt64(-2, 63)
	assert.True(t, exact)
	assert.Equal(t, int64(math.MinInt64), p)

	_, exact = PowInt64(2, 63)
	assert.False(t, exact)

	p, exact = PowInt64(1, math.MaxInt64)
	assert.True(t, exact)
	assert.Equal(t, int64(1), p)
}

func TestEval_InjectedFuncs(t *testing.T) {
	double := func(args []model.Value) (model.Value, bool) {
		if len(args) != 1 {
			return nil, false
		}
		n, ok := args[0].(int64)
		return n * 2, ok
	}
	e := New(CFamily, WithFuncs(map[string]Func{"twice": double}))

	got, ok := e.Eval("twice(21)", nil)
	require.True(t, ok)
	assert.Equal(t, int64(42), got)

	_, ok = e.Eval("twice(1, 2)", nil)
	assert.False(t, ok)
}

func TestEval_DoesNotAliasScopeLists(t *testing.T) {
	xs := []model.Value{int64(1)}
	scope := MapScope{"xs": xs}

	got, ok := New(Python).Eval("xs", scope)
	require.True(t, ok)
	got.([]model.Value)[0] = int64(99)

	assert.Equal(t, int64(1), xs[0])
}

func TestEvaluate_DefaultDialect(t *testing.T) {
	got, ok := Evaluate("sum / 2", MapScope{"sum": int64(9)})
	require.True(t, ok)
	assert.Equal(t, int64(4), got)
}

func TestFormat(t *testing.T) {
	list := []model.Value{int64(1), "a", true}

	assert.Equal(t, "[1, 'a', True]", New(Python).Format(list))
	assert.Equal(t, "[ 1, 'a', true ]", New(JavaScript).Format(list))
	assert.Equal(t, "1", New(CFamily).Format(true))
	assert.Equal(t, "2.0", New(Python).Format(2.0))
	assert.Equal(t, "3.5", New(Python).Format(3.5))
	assert.Equal(t, "2", New(JavaScript).Format(2.0))
	assert.Equal(t, "3.14159", New(CFamily).Format(3.14159265))
	assert.Equal(t, "None", New(Python).Format(nil))
}

func TestPrintf(t *testing.T) {
	e := New(CFamily)

	assert.Equal(t, "x=5, y=2.50, s=hi 100%",
		e.Printf("x=%d, y=%.2f, s=%s 100%%", []model.Value{int64(5), 2.5, "hi"}))
	assert.Equal(t, "c=A", e.Printf("c=%c", []model.Value{int64(65)}))
	assert.Equal(t, "missing %d", e.Printf("missing %d", nil))
	assert.Equal(t, "n=7", e.Printf("n=%lld", []model.Value{int64(7)}))
}

func TestRender(t *testing.T) {
	scope := MapScope{"i": int64(0), "idx": int64(4), "s": "x"}
	e := New(CFamily)

	assert.Equal(t, "0 < 5", e.Render("i < 5", scope))
	assert.Equal(t, "4 != 0 && 0 >= 0", e.Render("idx != i && i >= 0", scope))
	assert.Equal(t, `"x" == "x"`, e.Render(`s == "x"`, scope))
	assert.Equal(t, "n < 3", e.Render("n < 3", scope), "unbound names are left alone")
	assert.Equal(t, "v.size() > 0", e.Render("v.size() > 0", scope))
}
