package tui

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tracelens/internal/model"
)

var errNoSource = errors.New("no program to analyze")

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dimmedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	matchStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true) // Sky Blue/Cyan

	adviceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")) // Orange

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	activeColor = lipgloss.Color("205")
	borderColor = lipgloss.Color("63")
)

func (m AppModel) View() string {
	if m.Loading {
		return "\n  Simulating... please wait.\n"
	}
	if m.Err != nil {
		return fmt.Sprintf("\n  Error: %v\n\n  Press r to retry or q to quit.\n", m.Err)
	}
	if m.ShowHelp {
		return m.renderHelpDialog()
	}

	width := m.WindowSize.Width
	height := m.WindowSize.Height

	netWidth := max(width-6, 20)
	leftWidth := netWidth / 2
	rightWidth := netWidth - leftWidth

	// Total box height (including borders)
	boxHeight := max(height-6, 6)
	interiorHeight := max(boxHeight-2, 2)

	var leftView string
	if m.Mode == ModeFlow {
		leftView = m.renderNodeList(leftWidth, interiorHeight)
	} else {
		leftView = m.renderStepList(leftWidth, interiorHeight)
	}

	lBorder, rBorder := activeColor, borderColor
	if m.RightFocus {
		lBorder, rBorder = borderColor, activeColor
	}

	left := lipgloss.NewStyle().
		Width(leftWidth).
		Height(interiorHeight).
		Border(lipgloss.NormalBorder()).
		BorderForeground(lBorder).
		Render(leftView)

	vp := m.DetailsViewport
	vp.Width = rightWidth
	vp.Height = interiorHeight
	right := lipgloss.NewStyle().
		Width(rightWidth).
		Height(interiorHeight).
		Border(lipgloss.NormalBorder()).
		BorderForeground(rBorder).
		Render(vp.View())

	header := titleStyle.Render(fmt.Sprintf("tracelens %s", model.Version)) + " " + m.statusLine()

	footer := "\n" + m.helpLine()
	if m.InputMode {
		footer = fmt.Sprintf("\nSearch: %s", m.InputBuffer.View())
	}

	return header + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, left, right) + footer
}

func (m AppModel) statusLine() string {
	sim := m.Result.Simulation()
	parts := []string{
		string(m.Result.Language),
		fmt.Sprintf("%d steps", len(sim.Trace)),
		"output: " + string(m.Result.Outcome.Source),
	}
	if sim.Truncated {
		parts = append(parts, adviceStyle.Render("iteration cap reached"))
	}
	if !m.Result.Outcome.Success {
		parts = append(parts, errorStyle.Render(m.Result.Outcome.Error))
	}
	if m.opts.Watcher != nil {
		parts = append(parts, fmt.Sprintf("watching (run %d)", m.Runs))
	}
	return strings.Join(parts, " | ")
}

func (m AppModel) helpLine() string {
	switch m.Mode {
	case ModeFlow:
		return "Flow: ↑/↓: Select Node • Tab: Scroll Details • c/Esc: Back to Steps • ?: Help • q: Quit"
	case ModeComplexity:
		return "Complexity: ↑/↓: Steps • x/Esc: Back • ?: Help • q: Quit"
	case ModeDiscrepancies:
		return "Check: ↑/↓: Steps • d/Esc: Back • ?: Help • q: Quit"
	}
	if m.RightFocus {
		return "Details: ↑/↓: Scroll • Tab: Return to Steps • ?: Help • q: Quit"
	}
	return "↑/↓: Step • g/G: First/Last • Tab: Details • /: Search • c: Flow • x: Complexity • d: Check • r: Re-run • ?: Help • q: Quit"
}

// window returns the [start, end) slice of n rows that keeps sel visible.
func window(sel, n, visible int) (int, int) {
	visible = max(visible, 1)
	if n <= visible {
		return 0, n
	}
	start := 0
	if sel >= visible/2 {
		start = sel - visible/2
	}
	if start+visible > n {
		start = n - visible
	}
	return start, start + visible
}

func truncate(line string, width int) string {
	r := []rune(line)
	if width > 5 && len(r) > width-2 {
		return string(r[:width-5]) + "..."
	}
	return line
}

func (m AppModel) renderStepList(width, height int) string {
	var sb strings.Builder
	title := "Steps"
	if m.SearchActive {
		title = fmt.Sprintf("Steps matching %q", m.InputBuffer.Value())
	}
	sb.WriteString(headingStyle.Render(title))
	sb.WriteString("\n\n")

	trace := m.Result.Simulation().Trace
	mismatched := m.mismatchedSteps()
	start, end := window(m.SelectedIdx, len(m.FilteredIndices), height-2)
	for i := start; i < end; i++ {
		idx := m.FilteredIndices[i]
		st := trace[idx]

		icon := stepIcon(trace, idx)
		if mismatched[st.Index] {
			icon = model.IconMismatch
		}
		line := truncate(fmt.Sprintf("%4d %s L%-3d %s", st.Index, icon, st.SourceLine, st.LiteralText), width)

		style := normalStyle
		switch {
		case i == m.SelectedIdx:
			style = selectedStyle
		case m.Mode == ModeDiscrepancies && mismatched[st.Index]:
			style = adviceStyle
		case m.SearchActive:
			style = matchStyle
		}
		sb.WriteString(style.Render(line))
		sb.WriteString("\n")
	}
	if len(m.FilteredIndices) == 0 {
		sb.WriteString(dimmedStyle.Render("No steps."))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// stepIcon marks the most notable thing a step did.
func stepIcon(trace model.Trace, idx int) string {
	st := trace[idx]
	prevOut := 0
	if idx > 0 {
		prevOut = len(trace[idx-1].AccumulatedOutput)
	}
	switch {
	case st.BranchLabel != "":
		return model.IconBranch
	case len(st.AccumulatedOutput) > prevOut:
		return model.IconOutput
	case len(st.VariableChanges) > 0:
		return model.ChangeIcon(st.VariableChanges[0].Kind)
	}
	return model.IconOK
}

func (m AppModel) renderNodeList(width, height int) string {
	var sb strings.Builder
	sb.WriteString(headingStyle.Render("Control Flow"))
	sb.WriteString("\n\n")

	current := 0
	if idx := m.SelectedStep(); idx >= 0 {
		current = m.Result.Simulation().Trace[idx].SourceLine
	}

	nodes := m.Result.Graph.Nodes
	start, end := window(m.FlowSelectedIdx, len(nodes), height-2)
	for i := start; i < end; i++ {
		n := nodes[i]
		label := n.Label
		if n.Kind == model.NodeStart || n.Kind == model.NodeEnd {
			label = strings.ToUpper(string(n.Kind))
		}
		line := fmt.Sprintf("%s L%-3d %s", model.NodeIcon(n.Kind), n.SourceLine, label)
		if n.Unreachable {
			line += " (unreachable)"
		}
		line = truncate(line, width)

		style := normalStyle
		switch {
		case i == m.FlowSelectedIdx:
			style = selectedStyle
		case n.Unreachable:
			style = dimmedStyle
		case current > 0 && n.SourceLine == current:
			style = matchStyle
		}
		sb.WriteString(style.Render(line))
		sb.WriteString("\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func (m AppModel) mismatchedSteps() map[int]bool {
	out := map[int]bool{}
	if m.Result.Comparison == nil {
		return out
	}
	for _, d := range m.Result.Comparison.Discrepancies {
		out[d.StepIndex] = true
	}
	return out
}

// detailsContent renders the right panel for the current mode.
func (m AppModel) detailsContent() string {
	switch m.Mode {
	case ModeFlow:
		return m.nodeDetails()
	case ModeComplexity:
		return m.complexityDetails()
	case ModeDiscrepancies:
		return m.discrepancyDetails()
	}
	return m.stepDetails()
}

func (m AppModel) stepDetails() string {
	idx := m.SelectedStep()
	if idx < 0 {
		return "No entries found."
	}
	st := m.Result.Simulation().Trace[idx]

	var sb strings.Builder
	sb.WriteString(headingStyle.Render(fmt.Sprintf("Step %d, line %d", st.Index, st.SourceLine)))
	sb.WriteString("\n")
	m.writeLineContext(&sb, st.SourceLine)

	if st.BranchLabel != "" {
		fmt.Fprintf(&sb, "\n%s %s", model.IconBranch, st.BranchLabel)
	}
	if st.Rationale != "" {
		sb.WriteString("\n" + adviceStyle.Render(st.Rationale))
	}

	sb.WriteString("\n\n--- Variables ---")
	changed := map[string]model.ChangeKind{}
	for _, c := range st.VariableChanges {
		changed[c.Name] = c.Kind
	}
	names := make([]string, 0, len(st.Variables))
	for k := range st.Variables {
		names = append(names, k)
	}
	sort.Strings(names)
	if len(names) == 0 {
		sb.WriteString("\n(none)")
	}
	for _, k := range names {
		line := fmt.Sprintf("%s %s = %s", model.ChangeIcon(changed[k]), k, model.FormatValue(st.Variables[k]))
		if _, ok := changed[k]; ok {
			line = matchStyle.Render(line)
		}
		sb.WriteString("\n" + line)
	}
	for _, c := range st.VariableChanges {
		if c.Kind == model.ChangeDeleted {
			fmt.Fprintf(&sb, "\n%s %s (was %s)", model.IconDeleted, c.Name, model.FormatValue(c.PreviousValue))
		}
	}

	if len(st.CallStack) > 0 {
		sb.WriteString("\n\n--- Call Stack ---")
		for i := len(st.CallStack) - 1; i >= 0; i-- {
			f := st.CallStack[i]
			fmt.Fprintf(&sb, "\n%s (line %d)", f.FunctionName, f.SourceLine)
		}
	}

	sb.WriteString("\n\n--- Output ---")
	if len(st.AccumulatedOutput) == 0 {
		sb.WriteString("\n" + dimmedStyle.Render("(nothing yet)"))
	}
	for _, line := range st.AccumulatedOutput {
		sb.WriteString("\n" + model.IconOutput + " " + line)
	}

	if idx == len(m.Result.Simulation().Trace)-1 {
		if rec := m.Result.Outcome.Reconciliation; rec != nil && !rec.Matches {
			sb.WriteString("\n\n" + adviceStyle.Render(fmt.Sprintf("Real output differs on %d line(s)", len(rec.Mismatches))))
		}
	}
	return sb.String()
}

func (m AppModel) writeLineContext(sb *strings.Builder, line int) {
	lc := model.SourceLineContext(m.Result.Source, line)
	if lc.ErrorMsg != "" {
		return
	}
	if lc.HasBefore2 {
		sb.WriteString(dimmedStyle.Render(fmt.Sprintf("\n  %4d  %s", lc.LineNumber-2, lc.Before2)))
	}
	if lc.HasBefore1 {
		sb.WriteString(dimmedStyle.Render(fmt.Sprintf("\n  %4d  %s", lc.LineNumber-1, lc.Before1)))
	}
	fmt.Fprintf(sb, "\n%s %4d  %s", model.IconOutput, lc.LineNumber, lc.Target)
	if lc.HasAfter1 {
		sb.WriteString(dimmedStyle.Render(fmt.Sprintf("\n  %4d  %s", lc.LineNumber+1, lc.After1)))
	}
	if lc.HasAfter2 {
		sb.WriteString(dimmedStyle.Render(fmt.Sprintf("\n  %4d  %s", lc.LineNumber+2, lc.After2)))
	}
}

func (m AppModel) nodeDetails() string {
	nodes := m.Result.Graph.Nodes
	if m.FlowSelectedIdx >= len(nodes) {
		return "No graph."
	}
	n := nodes[m.FlowSelectedIdx]

	var sb strings.Builder
	sb.WriteString(headingStyle.Render(fmt.Sprintf("%s %s node %s", model.NodeIcon(n.Kind), n.Kind, n.ID)))
	if n.SourceLine > 0 {
		sb.WriteString("\n")
		m.writeLineContext(&sb, n.SourceLine)
	}
	if n.Unreachable {
		sb.WriteString("\n\n" + adviceStyle.Render("No path from the start reaches this node."))
	}

	sb.WriteString("\n\n--- Leads to ---")
	for _, e := range m.Result.Graph.Outgoing(n.ID) {
		target, _ := m.Result.Graph.Node(e.Target)
		desc := target.Label
		if target.Kind == model.NodeEnd {
			desc = "END"
		}
		cond := ""
		if e.Condition != "" {
			cond = "[" + e.Condition + "] "
		}
		note := ""
		if e.Annotation != "" {
			note = " (" + e.Annotation + ")"
		}
		fmt.Fprintf(&sb, "\n%sL%d %s%s", cond, target.SourceLine, desc, note)
	}
	fmt.Fprintf(&sb, "\n\nReached from %d edge(s)", m.Result.Graph.InDegree(n.ID))

	var hits []string
	for _, st := range m.Result.Simulation().Trace {
		if n.SourceLine > 0 && st.SourceLine == n.SourceLine {
			hits = append(hits, fmt.Sprint(st.Index))
		}
	}
	if len(hits) > 0 {
		fmt.Fprintf(&sb, "\nExecuted at step(s): %s", strings.Join(hits, ", "))
	}
	return sb.String()
}

func (m AppModel) complexityDetails() string {
	c := m.Result.Complexity
	var sb strings.Builder
	sb.WriteString(headingStyle.Render("Complexity estimate"))
	fmt.Fprintf(&sb, "\n\nTime:        %s (%s)", c.EstimatedTimeClass, c.EstimatedTimeClass.Name())
	fmt.Fprintf(&sb, "\nSpace:       %s (%s)", c.EstimatedSpaceClass, c.EstimatedSpaceClass.Name())
	fmt.Fprintf(&sb, "\nLoop depth:  %d", c.LoopNestingDepth)
	fmt.Fprintf(&sb, "\nRecursion:   %t", c.HasRecursion)
	fmt.Fprintf(&sb, "\nCyclomatic:  %d", c.CyclomaticComplexity)
	if c.ObservedSteps > 0 {
		fmt.Fprintf(&sb, "\nSteps run:   %d", c.ObservedSteps)
	}
	if len(c.Notes) > 0 {
		sb.WriteString("\n\n--- Notes ---")
		for _, n := range c.Notes {
			sb.WriteString("\n- " + n)
		}
	}
	sb.WriteString("\n\n" + dimmedStyle.Render("Estimated from the source text; treat it as a hint."))
	return sb.String()
}

func (m AppModel) discrepancyDetails() string {
	cmp := m.Result.Comparison
	if cmp == nil {
		return "No predicted trace loaded.\n\nStart tracelens with --predicted <file> to check your own trace."
	}

	var sb strings.Builder
	sb.WriteString(headingStyle.Render(fmt.Sprintf("Prediction check: %d discrepancies", len(cmp.Discrepancies))))
	if cmp.Unaligned > 0 {
		fmt.Fprintf(&sb, "\n%d step(s) only in one trace (predicted %d, actual %d)", cmp.Unaligned, cmp.PredictedSteps, cmp.ActualSteps)
	}

	var stepIndex int
	if idx := m.SelectedStep(); idx >= 0 {
		stepIndex = m.Result.Simulation().Trace[idx].Index
	}
	var here, elsewhere []model.Discrepancy
	for _, d := range cmp.Discrepancies {
		if d.StepIndex == stepIndex {
			here = append(here, d)
		} else {
			elsewhere = append(elsewhere, d)
		}
	}
	if len(here) > 0 {
		fmt.Fprintf(&sb, "\n\n--- Step %d ---", stepIndex)
		for _, d := range here {
			sb.WriteString("\n" + adviceStyle.Render(model.IconMismatch+" "+d.Explanation))
		}
	} else if len(cmp.Discrepancies) == 0 {
		sb.WriteString("\n\nYour prediction matches every aligned step.")
	}
	if len(elsewhere) > 0 {
		sb.WriteString("\n\n--- Other steps ---")
		for _, d := range elsewhere {
			sb.WriteString("\n" + model.IconMismatch + " " + d.Explanation)
		}
	}
	return sb.String()
}

func (m *AppModel) renderHelpDialog() string {
	w, h := m.WindowSize.Width, m.WindowSize.Height
	if w < 20 || h < 10 {
		return "Window too small"
	}

	helpWidth := min(max(w*80/100, 40), w-4)
	helpHeight := max(h-6, 5)

	lines := strings.Split(m.HelpContent, "\n")
	contentHeight := helpHeight - 2

	startY := m.HelpScrollY
	if startY > len(lines)-contentHeight {
		startY = len(lines) - contentHeight
	}
	if startY < 0 {
		startY = 0
	}
	m.HelpScrollY = startY

	endY := min(startY+contentHeight, len(lines))
	content := strings.Join(lines[startY:endY], "\n")

	dialog := lipgloss.NewStyle().
		Width(helpWidth).
		Height(helpHeight).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Render(content)

	return lipgloss.Place(w, h,
		lipgloss.Center, lipgloss.Center,
		dialog,
	)
}

func (m AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.analyzeCmd()}
	if m.opts.Watcher != nil {
		cmds = append(cmds, m.opts.Watcher.Next())
	}
	return tea.Batch(cmds...)
}
