package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"tracelens/internal/analysis"
)

// Mode selects what the panels show.
type Mode int

const (
	ModeSteps Mode = iota
	ModeFlow
	ModeComplexity
	ModeDiscrepancies
)

// Loader produces the request to analyze. It is called again on every
// re-run so edits to the source file are picked up.
type Loader func() (analysis.Request, error)

// Options wires the TUI to the rest of tracelens.
type Options struct {
	Analyzer *analysis.Analyzer
	Load     Loader
	Watcher  *Watcher // optional
	Help     string   // markdown
	Logger   *zap.Logger
}

// AppModel holds the TUI state.
type AppModel struct {
	// Data
	Result  analysis.Result
	Loading bool
	Err     error
	Runs    int

	// UI State
	SelectedIdx     int // index into FilteredIndices
	FlowSelectedIdx int
	WindowSize      tea.WindowSizeMsg
	Mode            Mode
	RightFocus      bool

	// Help
	ShowHelp    bool
	HelpContent string
	HelpScrollY int

	// Search State
	InputMode       bool
	InputBuffer     textinput.Model
	FilteredIndices []int // trace indices to show
	SearchActive    bool

	// Components
	DetailsViewport viewport.Model

	opts Options
}

// InitialModel returns the initial state.
func InitialModel(opts Options) AppModel {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Analyzer == nil {
		opts.Analyzer = analysis.NewAnalyzer(analysis.WithLogger(opts.Logger))
	}

	ti := textinput.New()
	ti.Placeholder = "source text or variable..."
	ti.CharLimit = 50
	ti.Width = 30

	return AppModel{
		Loading:         true,
		InputBuffer:     ti,
		DetailsViewport: viewport.New(40, 10),
		opts:            opts,
	}
}

// SelectedStep returns the trace index of the highlighted step, or -1.
func (m AppModel) SelectedStep() int {
	if m.SelectedIdx < 0 || m.SelectedIdx >= len(m.FilteredIndices) {
		return -1
	}
	return m.FilteredIndices[m.SelectedIdx]
}
