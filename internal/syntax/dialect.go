// Package syntax splits source text into logical lines and classifies each
// line against an ordered per-language catalogue of statement recognizers.
package syntax

import (
	"regexp"

	"tracelens/internal/model"
)

// Dialect splits and classifies source for one language.
type Dialect interface {
	Language() model.Language
	Split(source string) []Line
	Classify(ln Line) Stmt
	// Indented reports whether blocks are delimited by indentation rather
	// than braces.
	Indented() bool
}

// recognizer is one catalogue entry. build may decline a match by
// returning nil, in which case later entries are tried.
type recognizer struct {
	kind  Kind
	re    *regexp.Regexp
	build func(ln Line, m []string) Stmt
}

func classify(table []recognizer, ln Line) Stmt {
	for _, r := range table {
		m := r.re.FindStringSubmatch(ln.Text)
		if m == nil {
			continue
		}
		if st := r.build(ln, m); st != nil {
			return st
		}
	}
	return &Unknown{base{ln}}
}

type bracedDialect struct {
	lang  model.Language
	table []recognizer
}

func (d *bracedDialect) Language() model.Language   { return d.lang }
func (d *bracedDialect) Split(source string) []Line { return splitBraced(source) }
func (d *bracedDialect) Classify(ln Line) Stmt      { return classify(d.table, ln) }
func (d *bracedDialect) Indented() bool             { return false }

type indentedDialect struct {
	table []recognizer
}

func (d *indentedDialect) Language() model.Language   { return model.LangPython }
func (d *indentedDialect) Split(source string) []Line { return splitIndented(source) }
func (d *indentedDialect) Classify(ln Line) Stmt      { return classify(d.table, ln) }
func (d *indentedDialect) Indented() bool             { return true }

// ForLanguage returns the dialect for lang, defaulting to C-family.
func ForLanguage(lang model.Language) Dialect {
	switch lang {
	case model.LangPython:
		return &indentedDialect{table: pythonTable}
	case model.LangJavaScript:
		return &bracedDialect{lang: model.LangJavaScript, table: jsTable}
	}
	return &bracedDialect{lang: model.LangCPP, table: cTable}
}

var (
	detectCPP    = regexp.MustCompile(`(?m)^\s*#include|\bstd::|\bcout\s*<<|\bcin\s*>>|\bint\s+main\s*\(`)
	detectPython = regexp.MustCompile(`(?m)^\s*(?:def\s+\w+\s*\(.*\)\s*:|elif\b|print\s*\(|import\s+\w+$)|:\s*$`)
	detectJS     = regexp.MustCompile(`\bconsole\.log\b|\b(?:let|const|var)\s+\w+|\bfunction\s+\w+\s*\(|=>`)
)

// Detect guesses the language of source, defaulting to C-family.
func Detect(source string) model.Language {
	switch {
	case detectCPP.MatchString(source):
		return model.LangCPP
	case detectJS.MatchString(source):
		return model.LangJavaScript
	case detectPython.MatchString(source):
		return model.LangPython
	}
	return model.LangCPP
}
