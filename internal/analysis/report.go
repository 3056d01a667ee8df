package analysis

import (
	"fmt"
	"sort"
	"strings"

	"tracelens/internal/model"
)

// GenerateReport renders a plain-text report. verbose adds every variable
// snapshot and the full graph edge list.
func GenerateReport(res Result, verbose bool) string {
	var sb strings.Builder
	sim := res.Simulation()

	section(&sb, "TRACELENS REPORT")
	fmt.Fprintf(&sb, "Run:        %s\n", res.RunID)
	fmt.Fprintf(&sb, "Language:   %s\n", res.Language)
	fmt.Fprintf(&sb, "Output via: %s\n", res.Outcome.Source)
	status := "ok"
	if !res.Outcome.Success {
		status = "failed: " + res.Outcome.Error
	}
	fmt.Fprintf(&sb, "Status:     %s\n", status)
	if sim.Truncated {
		fmt.Fprintf(&sb, "Note:       iteration cap reached after %d statements; the trace is partial\n", sim.Executed)
	}
	if res.Outcome.RealError != "" {
		fmt.Fprintf(&sb, "Note:       real execution unavailable (%s)\n", res.Outcome.RealError)
	}

	section(&sb, "OUTPUT")
	if len(res.Outcome.Output) == 0 {
		sb.WriteString("(no output)\n")
	}
	for _, line := range res.Outcome.Output {
		sb.WriteString(line + "\n")
	}
	if rec := res.Outcome.Reconciliation; rec != nil && !rec.Matches {
		sb.WriteString("\nSimulated output differs from the real run:\n")
		for _, m := range rec.Mismatches {
			fmt.Fprintf(&sb, "  line %d: simulated %s, real %s\n", m.Line, quoteIf(m.Simulated, m.HasSimulated), quoteIf(m.Real, m.HasReal))
		}
	}

	section(&sb, fmt.Sprintf("TRACE (%d steps)", len(sim.Trace)))
	for _, st := range sim.Trace {
		fmt.Fprintf(&sb, "%4d  L%-4d %s\n", st.Index, st.SourceLine, st.LiteralText)
		if st.BranchLabel != "" {
			fmt.Fprintf(&sb, "            %s %s\n", model.IconBranch, st.BranchLabel)
		}
		if st.Rationale != "" {
			fmt.Fprintf(&sb, "            %s\n", st.Rationale)
		}
		for _, c := range st.VariableChanges {
			fmt.Fprintf(&sb, "            %s %s\n", model.ChangeIcon(c.Kind), describeChange(c))
		}
		if verbose {
			fmt.Fprintf(&sb, "            vars: %s\n", formatVars(st.Variables))
		}
	}
	if !sim.Success {
		line := sim.Trace.Final().SourceLine
		ctx := model.SourceLineContext(res.Source, line)
		if ctx.ErrorMsg == "" {
			sb.WriteString("\nStopped near:\n")
			writeContext(&sb, ctx)
		}
	}

	section(&sb, "FINAL VARIABLES")
	sb.WriteString(formatVars(sim.FinalVariables) + "\n")

	section(&sb, "COMPLEXITY (estimate)")
	c := res.Complexity
	fmt.Fprintf(&sb, "Time:        %s (%s)\n", c.EstimatedTimeClass, c.EstimatedTimeClass.Name())
	fmt.Fprintf(&sb, "Space:       %s (%s)\n", c.EstimatedSpaceClass, c.EstimatedSpaceClass.Name())
	fmt.Fprintf(&sb, "Loop depth:  %d\n", c.LoopNestingDepth)
	fmt.Fprintf(&sb, "Recursion:   %t\n", c.HasRecursion)
	fmt.Fprintf(&sb, "Cyclomatic:  %d\n", c.CyclomaticComplexity)
	for _, n := range c.Notes {
		fmt.Fprintf(&sb, "  - %s\n", n)
	}

	section(&sb, "CONTROL FLOW")
	var decisions, loops, unreachable int
	for _, n := range res.Graph.Nodes {
		switch n.Kind {
		case model.NodeDecision:
			decisions++
		case model.NodeLoop:
			loops++
		}
		if n.Unreachable {
			unreachable++
		}
	}
	fmt.Fprintf(&sb, "%d nodes, %d edges, %d decisions, %d loops\n", len(res.Graph.Nodes), len(res.Graph.Edges), decisions, loops)
	if unreachable > 0 {
		fmt.Fprintf(&sb, "%d unreachable node(s):\n", unreachable)
		for _, n := range res.Graph.Nodes {
			if n.Unreachable {
				fmt.Fprintf(&sb, "  L%d %s\n", n.SourceLine, n.Label)
			}
		}
	}
	if verbose {
		for _, e := range res.Graph.Edges {
			fmt.Fprintf(&sb, "  %s -> %s %s %s\n", e.Source, e.Target, e.Condition, e.Annotation)
		}
	}

	if cmp := res.Comparison; cmp != nil {
		section(&sb, "PREDICTION CHECK")
		if len(cmp.Discrepancies) == 0 {
			sb.WriteString("No discrepancies in the aligned steps.\n")
		}
		for _, d := range cmp.Discrepancies {
			fmt.Fprintf(&sb, "%s %s\n", model.IconMismatch, d.Explanation)
		}
		if cmp.Unaligned > 0 {
			fmt.Fprintf(&sb, "%d step(s) exist in only one trace and were not compared (predicted %d, actual %d)\n",
				cmp.Unaligned, cmp.PredictedSteps, cmp.ActualSteps)
		}
	}
	return sb.String()
}

func section(sb *strings.Builder, title string) {
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("=", len(title)) + "\n")
}

func describeChange(c model.VariableChange) string {
	switch c.Kind {
	case model.ChangeCreated:
		return fmt.Sprintf("%s = %s", c.Name, model.FormatValue(c.CurrentValue))
	case model.ChangeDeleted:
		return fmt.Sprintf("%s removed (was %s)", c.Name, model.FormatValue(c.PreviousValue))
	}
	return fmt.Sprintf("%s: %s -> %s", c.Name, model.FormatValue(c.PreviousValue), model.FormatValue(c.CurrentValue))
}

func formatVars(vars map[string]model.Value) string {
	if len(vars) == 0 {
		return "(none)"
	}
	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = k + "=" + model.FormatValue(vars[k])
	}
	return strings.Join(parts, ", ")
}

func quoteIf(s string, ok bool) string {
	if !ok {
		return "(missing)"
	}
	return fmt.Sprintf("%q", s)
}

func writeContext(sb *strings.Builder, ctx model.LineContext) {
	n := ctx.LineNumber
	if ctx.HasBefore2 {
		fmt.Fprintf(sb, "   %4d  %s\n", n-2, ctx.Before2)
	}
	if ctx.HasBefore1 {
		fmt.Fprintf(sb, "   %4d  %s\n", n-1, ctx.Before1)
	}
	fmt.Fprintf(sb, " > %4d  %s\n", n, ctx.Target)
	if ctx.HasAfter1 {
		fmt.Fprintf(sb, "   %4d  %s\n", n+1, ctx.After1)
	}
	if ctx.HasAfter2 {
		fmt.Fprintf(sb, "   %4d  %s\n", n+2, ctx.After2)
	}
}
