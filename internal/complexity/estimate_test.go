package complexity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tracelens/internal/model"
)

func TestEstimate_Classes(t *testing.T) {
	tests := []struct {
		name       string
		lang       model.Language
		src        string
		depth      int
		recursive  bool
		wantTime   model.Class
		wantSpace  model.Class
		cyclomatic int
	}{
		{
			name:       "straight line",
			lang:       model.LangCPP,
			src:        "int x = 1;\nint y = x + 2;\ncout << y << endl;",
			wantTime:   model.ClassConstant,
			wantSpace:  model.ClassConstant,
			cyclomatic: 1,
		},
		{
			name:       "single loop",
			lang:       model.LangCPP,
			src:        "int sum = 0;\nfor (int i = 0; i < n; i++) {\n  sum += i;\n}",
			depth:      1,
			wantTime:   model.ClassLinear,
			wantSpace:  model.ClassConstant,
			cyclomatic: 2,
		},
		{
			name:       "nested loops",
			lang:       model.LangPython,
			src:        "total = 0\nfor i in range(n):\n    for j in range(n):\n        total += i * j\n",
			depth:      2,
			wantTime:   model.ClassQuadratic,
			wantSpace:  model.ClassConstant,
			cyclomatic: 3,
		},
		{
			name:       "sequential loops stay linear",
			lang:       model.LangJavaScript,
			src:        "let s = 0;\nfor (let i = 0; i < n; i++) s += i;\nwhile (s > 0) {\n  s--;\n}\n",
			depth:      1,
			wantTime:   model.ClassLinear,
			wantSpace:  model.ClassConstant,
			cyclomatic: 3,
		},
		{
			name:       "triple nest",
			lang:       model.LangCPP,
			src:        "for (int i = 0; i < n; i++)\n  for (int j = 0; j < n; j++)\n    for (int k = 0; k < n; k++)\n      c++;\n",
			depth:      3,
			wantTime:   model.ClassCubic,
			wantSpace:  model.ClassConstant,
			cyclomatic: 4,
		},
		{
			name:       "doubling recursion",
			lang:       model.LangPython,
			src:        "def fib(n):\n    if n < 2:\n        return n\n    return fib(n - 1) + fib(n - 2)\n",
			recursive:  true,
			wantTime:   model.ClassExponential,
			wantSpace:  model.ClassLinear,
			cyclomatic: 2,
		},
		{
			name:       "decrementing recursion",
			lang:       model.LangCPP,
			src:        "int fact(int n) {\n  if (n <= 1) return 1;\n  return n * fact(n - 1);\n}",
			recursive:  true,
			wantTime:   model.ClassLinear,
			wantSpace:  model.ClassLinear,
			cyclomatic: 2,
		},
		{
			name:       "halving recursion",
			lang:       model.LangPython,
			src:        "def bs(lo, hi):\n    if lo >= hi:\n        return lo\n    mid = (lo + hi) // 2\n    return bs(lo, mid)\n",
			recursive:  true,
			wantTime:   model.ClassLogarithmic,
			wantSpace:  model.ClassLinear,
			cyclomatic: 2,
		},
		{
			name:       "list allocation",
			lang:       model.LangPython,
			src:        "xs = []\nfor i in range(n):\n    xs.append(i)\n",
			depth:      1,
			wantTime:   model.ClassLinear,
			wantSpace:  model.ClassLinear,
			cyclomatic: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Estimate(tt.src, WithLanguage(tt.lang))

			assert.Equal(t, tt.depth, got.LoopNestingDepth)
			assert.Equal(t, tt.recursive, got.HasRecursion)
			assert.Equal(t, tt.wantTime, got.EstimatedTimeClass)
			assert.Equal(t, tt.wantSpace, got.EstimatedSpaceClass)
			assert.Equal(t, tt.cyclomatic, got.CyclomaticComplexity)
			assert.NotEmpty(t, got.Notes)
		})
	}
}

func TestEstimate_IgnoresKeywordsInStrings(t *testing.T) {
	got := Estimate(`cout << "if while for" << endl;`, WithLanguage(model.LangCPP))
	assert.Equal(t, 1, got.CyclomaticComplexity)
}

func TestEstimate_CountsEveryBranchKeyword(t *testing.T) {
	src := "if (a) {\n  x = 1;\n} else if (b) {\n  x = 2;\n}\nswitch (x) {\n  case 1: y = 1; break;\n  case 2: y = 2; break;\n}\n"
	got := Estimate(src, WithLanguage(model.LangCPP))
	assert.Equal(t, 6, got.CyclomaticComplexity)
}

func TestEstimate_DetectsLanguage(t *testing.T) {
	got := Estimate("def f(n):\n    return f(n - 1)\n")
	assert.True(t, got.HasRecursion)
	assert.Equal(t, model.ClassLinear, got.EstimatedTimeClass)
}

func TestEstimate_WithTrace(t *testing.T) {
	tr := model.Trace{{Index: 1}, {Index: 2}, {Index: 3}}
	got := Estimate("x = 1\n", WithLanguage(model.LangPython), WithTrace(tr))

	assert.Equal(t, 3, got.ObservedSteps)
	assert.Contains(t, got.Notes, "the simulated run took 3 steps")
}
