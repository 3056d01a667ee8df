package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"tracelens/internal/analysis"
	"tracelens/internal/model"
)

// MsgAnalysisReady carries a finished analysis.
type MsgAnalysisReady analysis.Result

// MsgError indicates an error occurred.
type MsgError error

// Update handles events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowSize = msg
		m.DetailsViewport.Width = max(msg.Width/2-4, 10)
		m.DetailsViewport.Height = max(msg.Height-8, 3)
		if m.ShowHelp {
			m.HelpContent = renderHelp(m.opts.Help, msg.Width*80/100)
		}
		m.refreshDetails()
		return m, nil

	case MsgAnalysisReady:
		m.Loading = false
		m.Err = nil
		m.Runs++
		prev := m.SelectedStep()
		m.Result = analysis.Result(msg)
		m.performSearch()
		// keep the cursor on the same step across re-runs when it still exists
		if prev >= 0 {
			for i, idx := range m.FilteredIndices {
				if idx == prev {
					m.SelectedIdx = i
				}
			}
		}
		if m.FlowSelectedIdx >= len(m.Result.Graph.Nodes) {
			m.FlowSelectedIdx = 0
		}
		m.refreshDetails()
		return m, nil

	case MsgSourceChanged:
		m.opts.Logger.Debug("source changed; re-running analysis")
		cmds := []tea.Cmd{m.analyzeCmd()}
		if m.opts.Watcher != nil {
			cmds = append(cmds, m.opts.Watcher.Next())
		}
		return m, tea.Batch(cmds...)

	case MsgError:
		m.Err = msg
		m.Loading = false
		return m, nil

	case tea.KeyMsg:
		if m.InputMode {
			switch msg.Type {
			case tea.KeyEnter:
				m.InputMode = false
				m.InputBuffer.Blur()
				m.performSearch()
				m.refreshDetails()
				return m, nil
			case tea.KeyEsc:
				m.clearSearch()
				return m, nil
			}
			m.InputBuffer, cmd = m.InputBuffer.Update(msg)
			return m, cmd
		}

		if m.ShowHelp {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "?", "esc":
				m.ShowHelp = false
			case "up", "k":
				if m.HelpScrollY > 0 {
					m.HelpScrollY--
				}
			case "down", "j":
				m.HelpScrollY++
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			if m.SearchActive {
				m.clearSearch()
				return m, nil
			}
			if m.Mode != ModeSteps {
				m.Mode = ModeSteps
				m.refreshDetails()
			}
			return m, nil
		case "?":
			m.ShowHelp = true
			m.HelpScrollY = 0
			m.HelpContent = renderHelp(m.opts.Help, m.WindowSize.Width*80/100)
			return m, nil
		case "tab":
			m.RightFocus = !m.RightFocus
			return m, nil
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "g", "home":
			m.move(-len(m.Result.Simulation().Trace) - len(m.Result.Graph.Nodes))
		case "G", "end":
			m.move(len(m.Result.Simulation().Trace) + len(m.Result.Graph.Nodes))
		case "c":
			m.toggleMode(ModeFlow)
		case "x":
			m.toggleMode(ModeComplexity)
		case "d":
			m.toggleMode(ModeDiscrepancies)
		case "r":
			m.Loading = true
			return m, m.analyzeCmd()
		case "/":
			m.InputMode = true
			m.InputBuffer.Focus()
			m.InputBuffer.SetValue("")
			return m, textinput.Blink
		}
		m.refreshDetails()
	}

	return m, cmd
}

func (m *AppModel) toggleMode(mode Mode) {
	if m.Mode == mode {
		m.Mode = ModeSteps
	} else {
		m.Mode = mode
	}
	m.RightFocus = false
	m.DetailsViewport.GotoTop()
}

// move shifts the cursor of the focused list by delta, clamped.
func (m *AppModel) move(delta int) {
	if m.RightFocus {
		if delta < 0 {
			m.DetailsViewport.LineUp(-delta)
		} else {
			m.DetailsViewport.LineDown(delta)
		}
		return
	}
	if m.Mode == ModeFlow {
		m.FlowSelectedIdx = clamp(m.FlowSelectedIdx+delta, len(m.Result.Graph.Nodes))
		m.DetailsViewport.GotoTop()
		return
	}
	m.SelectedIdx = clamp(m.SelectedIdx+delta, len(m.FilteredIndices))
	m.DetailsViewport.GotoTop()
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func (m *AppModel) clearSearch() {
	m.InputMode = false
	m.InputBuffer.Blur()
	m.InputBuffer.SetValue("")
	m.performSearch()
	m.refreshDetails()
}

// performSearch filters the step list to steps whose source text or
// variable names contain the search term.
func (m *AppModel) performSearch() {
	trace := m.Result.Simulation().Trace
	term := strings.ToLower(strings.TrimSpace(m.InputBuffer.Value()))
	m.SearchActive = term != ""

	filtered := make([]int, 0, len(trace))
	for i, st := range trace {
		if !m.SearchActive || stepMatches(st, term) {
			filtered = append(filtered, i)
		}
	}
	m.FilteredIndices = filtered
	m.SelectedIdx = clamp(m.SelectedIdx, len(m.FilteredIndices))
}

func stepMatches(st model.Step, term string) bool {
	if strings.Contains(strings.ToLower(st.LiteralText), term) {
		return true
	}
	for name := range st.Variables {
		if strings.Contains(strings.ToLower(name), term) {
			return true
		}
	}
	return false
}

func (m *AppModel) refreshDetails() {
	m.DetailsViewport.SetContent(m.detailsContent())
}

func (m AppModel) analyzeCmd() tea.Cmd {
	a, load, logger := m.opts.Analyzer, m.opts.Load, m.opts.Logger
	return func() tea.Msg {
		if load == nil {
			return MsgError(errNoSource)
		}
		req, err := load()
		if err != nil {
			return MsgError(err)
		}
		res, err := a.Analyze(context.Background(), req)
		if err != nil {
			logger.Warn("analysis failed", zap.Error(err))
			return MsgError(err)
		}
		return MsgAnalysisReady(res)
	}
}

func renderHelp(md string, width int) string {
	if width < 40 {
		width = 40
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
