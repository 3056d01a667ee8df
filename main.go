package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"github.com/tcnksm/go-latest"
	"go.uber.org/zap"

	"tracelens/internal/analysis"
	"tracelens/internal/cfg"
	"tracelens/internal/compare"
	"tracelens/internal/config"
	"tracelens/internal/execute"
	"tracelens/internal/logging"
	"tracelens/internal/model"
	"tracelens/internal/sim"
	"tracelens/internal/tui"
	"tracelens/internal/web"
)

func checkUpdate(currentVer string, up config.UpdateConfig) {
	githubTag := &latest.GithubTag{
		Owner:      up.Owner,
		Repository: up.Repo,
	}

	res, err := latest.Check(githubTag, currentVer)
	if err != nil {
		return // Silently fail
	}

	if res.Outdated {
		fmt.Printf("\n✨ A new version is available: %s (you have %s)\n", res.Current, currentVer)
		fmt.Printf("👉 Download it from https://github.com/%s/%s/releases\n", up.Owner, up.Repo)
	} else {
		fmt.Printf("✅ You are using the latest version: %s\n", currentVer)
	}
}

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tracelens [options] <program file>\n\n")
		fmt.Fprintf(os.Stderr, "tracelens steps through a small C++, Python or JavaScript program and shows\n")
		fmt.Fprintf(os.Stderr, "the value of every variable after each statement, without compiling it.\n")
		fmt.Fprintf(os.Stderr, "It also draws the control-flow graph, estimates complexity and checks\n")
		fmt.Fprintf(os.Stderr, "a trace you predicted by hand.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tracelens sum.cpp                      # Step through in the terminal\n")
		fmt.Fprintf(os.Stderr, "  tracelens --watch sum.py               # Re-run whenever sum.py is saved\n")
		fmt.Fprintf(os.Stderr, "  tracelens -r --stdin \"3 4\" add.py      # Print a report\n")
		fmt.Fprintf(os.Stderr, "  tracelens -r -p mine.yaml loop.js      # Check a predicted trace\n")
		fmt.Fprintf(os.Stderr, "  tracelens --dot loop.py | dot -Tsvg    # Control-flow graph\n")
		fmt.Fprintf(os.Stderr, "  tracelens --json loop.py               # Full analysis as JSON\n")
		fmt.Fprintf(os.Stderr, "  tracelens --web                        # Browser mode\n")
	}

	jsonFlag := pflag.BoolP("json", "j", false, "Output the full analysis as JSON")
	reportFlag := pflag.BoolP("report", "r", false, "Print a plain-text report (CLI mode)")
	outputFlag := pflag.StringP("output", "o", "", "Save the report, JSON or DOT output to the specified file")
	dotFlag := pflag.Bool("dot", false, "Output the control-flow graph in Graphviz DOT format")
	verboseFlag := pflag.BoolP("verbose", "v", false, "Include every variable snapshot in the report and log at debug level")
	webFlag := pflag.BoolP("web", "w", false, "Start Web Mode (address from config, default :8080)")
	versionFlag := pflag.BoolP("version", "V", false, "Print version information")
	updateFlag := pflag.BoolP("update", "u", false, "Check for a newer release")
	configFlag := pflag.StringP("config", "c", config.DefaultPath, "Configuration file")
	langFlag := pflag.StringP("lang", "l", "", "Source language: cpp, python or javascript (default: from extension or content)")
	stdinFlag := pflag.String("stdin", "", "Input given to the program")
	stdinFileFlag := pflag.String("stdin-file", "", "Read the program's input from a file")
	predictedFlag := pflag.StringP("predicted", "p", "", "Predicted trace (YAML or JSON) to check against the simulation")
	watchFlag := pflag.Bool("watch", false, "Re-run the analysis when the program file changes (TUI mode)")
	helpFlag := pflag.BoolP("help", "h", false, "Show this help message")
	pflag.Parse()

	if *helpFlag {
		pflag.Usage()
		return
	}

	if *versionFlag {
		fmt.Printf("tracelens version %s\n", model.Version)
		return
	}

	conf, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := conf.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error in %s: %v\n", *configFlag, err)
		os.Exit(1)
	}

	if *updateFlag {
		checkUpdate(model.Version, conf.Update)
		return
	}

	tuiMode := !*webFlag && !*reportFlag && !*jsonFlag && !*dotFlag
	var logger *zap.Logger
	if tuiMode {
		logger, err = logging.ForTUI(conf.Logging, *verboseFlag)
	} else {
		logger, err = logging.New(conf.Logging, *verboseFlag)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	simOpts := []sim.Option{
		sim.WithIterationCap(conf.Simulation.IterationCap),
		sim.WithMaxCallDepth(conf.Simulation.MaxCallDepth),
	}
	runner := execute.NewRunner(newExecutor(conf, logger),
		execute.WithLogger(logger),
		execute.WithSimOptions(simOpts...))
	analyzer := analysis.NewAnalyzer(analysis.WithLogger(logger), analysis.WithRunner(runner))

	if *webFlag {
		runWebMode(conf, analyzer, simOpts, logger)
		return
	}

	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}
	src := source{
		path:      pflag.Arg(0),
		lang:      *langFlag,
		stdin:     *stdinFlag,
		stdinFile: *stdinFileFlag,
		predicted: *predictedFlag,
	}

	switch {
	case *dotFlag:
		runDotMode(src, *outputFlag)
	case *reportFlag:
		runReportMode(analyzer, src, *outputFlag, *verboseFlag)
	case *jsonFlag:
		runJSONMode(analyzer, src, *outputFlag)
	default:
		runTuiMode(analyzer, src, *watchFlag, logger)
	}
}

// newExecutor returns the real-execution backend the config asks for, or
// nil when programs are only simulated.
func newExecutor(conf *config.Config, logger *zap.Logger) execute.Executor {
	switch conf.Execution.Mode {
	case config.ExecRemote:
		return execute.NewClient(conf.Execution.RemoteURL,
			execute.WithTimeout(conf.GetExecutionTimeout()),
			execute.WithClientLogger(logger))
	case config.ExecLocal:
		return execute.NewLocal(logger).WithTimeout(conf.GetExecutionTimeout())
	}
	return nil
}

// source describes the program named on the command line.
type source struct {
	path      string
	lang      string
	stdin     string
	stdinFile string
	predicted string
}

// load reads the program, its input and the predicted trace. It is called
// again on every TUI re-run.
func (s source) load() (analysis.Request, error) {
	code, err := os.ReadFile(s.path)
	if err != nil {
		return analysis.Request{}, fmt.Errorf("failed to read program: %w", err)
	}
	req := analysis.Request{Source: string(code), Stdin: s.stdin}

	switch {
	case s.lang != "":
		lang, ok := model.ParseLanguage(s.lang)
		if !ok {
			return analysis.Request{}, fmt.Errorf("unsupported language %q", s.lang)
		}
		req.Language = lang
	default:
		if lang, ok := model.LanguageFromFilename(s.path); ok {
			req.Language = lang
		}
	}

	if s.stdinFile != "" {
		data, err := os.ReadFile(s.stdinFile)
		if err != nil {
			return analysis.Request{}, fmt.Errorf("failed to read input: %w", err)
		}
		req.Stdin = string(data)
	}

	if s.predicted != "" {
		tr, err := compare.LoadTrace(s.predicted)
		if err != nil {
			return analysis.Request{}, err
		}
		req.Predicted = tr
	}
	return req, nil
}

func mustLoad(src source) analysis.Request {
	req, err := src.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return req
}

func mustAnalyze(analyzer *analysis.Analyzer, src source) analysis.Result {
	res, err := analyzer.Analyze(context.Background(), mustLoad(src))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error analyzing %s: %v\n", src.path, err)
		os.Exit(1)
	}
	return res
}

func writeOutput(outputFile string, data []byte, what string) {
	if outputFile == "" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s to %s: %v\n", what, outputFile, err)
		os.Exit(1)
	}
	fmt.Printf("%s saved to %s\n", what, outputFile)
}

func runReportMode(analyzer *analysis.Analyzer, src source, outputFile string, verbose bool) {
	res := mustAnalyze(analyzer, src)
	report := analysis.GenerateReport(res, verbose)
	writeOutput(outputFile, []byte(report+"\n"), "Report")
}

func runJSONMode(analyzer *analysis.Analyzer, src source, outputFile string) {
	res := mustAnalyze(analyzer, src)
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
	writeOutput(outputFile, append(data, '\n'), "JSON")
}

func runDotMode(src source, outputFile string) {
	req := mustLoad(src)
	g := cfg.Build(req.Source, req.Language)
	writeOutput(outputFile, []byte(cfg.DOT(g)), "Graph")
}

func runWebMode(conf *config.Config, analyzer *analysis.Analyzer, simOpts []sim.Option, logger *zap.Logger) {
	if err := conf.ValidateWeb(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if conf.Execution.Mode == config.ExecLocal {
		logger.Warn("local execution is enabled; submitted programs run on this host",
			zap.String("addr", conf.Web.Addr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := web.NewServer(
		web.WithAddr(conf.Web.Addr),
		web.WithAnalyzer(analyzer),
		web.WithSimOptions(simOpts...),
		web.WithLogger(logger))

	fmt.Printf("Starting tracelens web server at http://localhost%s\n", displayAddr(srv.Addr()))
	if err := srv.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// displayAddr keeps only the port of addr for the localhost URL.
func displayAddr(addr string) string {
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i:]
	}
	return ":" + addr
}

func runTuiMode(analyzer *analysis.Analyzer, src source, watch bool, logger *zap.Logger) {
	opts := tui.Options{
		Analyzer: analyzer,
		Load:     src.load,
		Help:     web.Help(),
		Logger:   logger,
	}
	if watch {
		w, err := tui.NewWatcher(filepath.Clean(src.path))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer w.Close()
		opts.Watcher = w
	}

	m := tui.InitialModel(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
