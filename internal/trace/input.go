package trace

import (
	"strings"

	"tracelens/internal/model"
)

// TokenMode selects how stdin is split into readable tokens.
type TokenMode int

const (
	// TokenWords splits on any whitespace (C-family and Python reads).
	TokenWords TokenMode = iota
	// TokenLines splits on newlines (ECMAScript reads).
	TokenLines
)

// InputStream hands out stdin tokens in order. Once exhausted, Next keeps
// reporting false.
type InputStream struct {
	tokens []string
	pos    int
}

// NewInputStream tokenizes stdin according to mode.
func NewInputStream(stdin string, mode TokenMode) *InputStream {
	var tokens []string
	switch mode {
	case TokenLines:
		tokens = model.SplitLines(stdin)
	default:
		tokens = strings.Fields(stdin)
	}
	return &InputStream{tokens: tokens}
}

// Next consumes the next token.
func (s *InputStream) Next() (string, bool) {
	if s.pos >= len(s.tokens) {
		return "", false
	}
	tok := s.tokens[s.pos]
	s.pos++
	return tok, true
}

// Rest consumes and returns every remaining token.
func (s *InputStream) Rest() []string {
	rest := s.tokens[s.pos:]
	s.pos = len(s.tokens)
	return rest
}

// Remaining is the number of unread tokens.
func (s *InputStream) Remaining() int {
	return len(s.tokens) - s.pos
}
