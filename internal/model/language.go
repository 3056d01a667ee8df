package model

import (
	"path/filepath"
	"strings"
)

// Language is one of the supported source language tags.
type Language string

const (
	LangCPP        Language = "cpp"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
)

// Languages lists the supported tags in display order.
var Languages = []Language{LangCPP, LangPython, LangJavaScript}

// ParseLanguage maps a user-supplied tag to a Language.
func ParseLanguage(tag string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "cpp", "c++", "cxx", "c", "cc":
		return LangCPP, true
	case "python", "py", "python3":
		return LangPython, true
	case "javascript", "js", "node", "ecmascript":
		return LangJavaScript, true
	}
	return "", false
}

// LanguageFromFilename infers the language from a file extension.
func LanguageFromFilename(name string) (Language, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".cpp", ".cc", ".cxx", ".c", ".h", ".hpp":
		return LangCPP, true
	case ".py":
		return LangPython, true
	case ".js", ".mjs", ".cjs":
		return LangJavaScript, true
	}
	return "", false
}
