package model

// Centralized icons for the UI components
// Using simple single-width characters for consistent terminal rendering
const (
	IconCreated  = "+" // Variable created
	IconUpdated  = "~" // Variable updated
	IconDeleted  = "-" // Variable deleted
	IconBranch   = "?" // Step evaluated a condition
	IconOutput   = "»" // Step printed something
	IconMismatch = "✗" // Step has a discrepancy
	IconOK       = " " // Space (OK - no icon to reduce noise)
)

// ChangeIcon returns the icon for a change kind.
func ChangeIcon(k ChangeKind) string {
	switch k {
	case ChangeCreated:
		return IconCreated
	case ChangeUpdated:
		return IconUpdated
	case ChangeDeleted:
		return IconDeleted
	}
	return IconOK
}

// NodeIcon returns a short glyph for a CFG node kind.
func NodeIcon(k NodeKind) string {
	switch k {
	case NodeStart:
		return "●"
	case NodeEnd:
		return "◉"
	case NodeDecision:
		return "◇"
	case NodeLoop:
		return "↻"
	}
	return "□"
}
