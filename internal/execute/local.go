package execute

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"tracelens/internal/model"
)

// SandboxPath is the PATH given to locally run programs.
const SandboxPath = "/usr/local/bin:/usr/bin:/bin"

// keptEnv lists the inherited variables a local run may see.
var keptEnv = map[string]bool{"HOME": true, "LANG": true, "LC_ALL": true, "TERM": true, "TMPDIR": true}

var interpreters = map[model.Language][]string{
	model.LangPython:     {"python3", "-I"},
	model.LangJavaScript: {"node"},
}

// Local runs Python and JavaScript programs with a locally installed
// interpreter. C++ is not supported because it needs a compiler toolchain.
type Local struct {
	logger  *zap.Logger
	timeout time.Duration
}

// NewLocal creates a local executor.
func NewLocal(logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{logger: logger}
}

// WithTimeout bounds each run; zero means no limit beyond ctx.
func (l *Local) WithTimeout(d time.Duration) *Local {
	l.timeout = d
	return l
}

// Execute implements Executor. The program is written to a temporary file
// and run with a sanitized environment; cancelling ctx kills it.
func (l *Local) Execute(ctx context.Context, req Request) (Result, error) {
	argv, ok := interpreters[req.Language]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, req.Language)
	}
	bin, err := exec.LookPath(argv[0])
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	script, err := os.CreateTemp("", "tracelens-*"+extension(req.Language))
	if err != nil {
		return Result{}, fmt.Errorf("creating script: %w", err)
	}
	defer os.Remove(script.Name())
	if _, err := script.WriteString(req.Code); err != nil {
		script.Close()
		return Result{}, fmt.Errorf("writing script: %w", err)
	}
	if err := script.Close(); err != nil {
		return Result{}, fmt.Errorf("writing script: %w", err)
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	args := append(append([]string{}, argv[1:]...), script.Name())
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = sandboxEnv(os.Environ())
	cmd.Stdin = strings.NewReader(req.Stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	}
	res := Result{Success: runErr == nil, OutputLines: scanLines(&stdout)}
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, runErr)
		}
		res.Error = strings.TrimSpace(stderr.String())
		if res.Error == "" {
			res.Error = runErr.Error()
		}
	}
	l.logger.Debug("local execution",
		zap.String("interpreter", bin),
		zap.Bool("success", res.Success),
		zap.Int("lines", len(res.OutputLines)))
	return res, nil
}

// sandboxEnv drops every inherited variable except a few locale and
// terminal settings and pins PATH to SandboxPath.
func sandboxEnv(environ []string) []string {
	var env []string
	for _, e := range environ {
		name, _, ok := strings.Cut(e, "=")
		if ok && keptEnv[name] {
			env = append(env, e)
		}
	}
	return append(env, "PATH="+SandboxPath)
}

func scanLines(buf *bytes.Buffer) []string {
	lines := []string{}
	scanner := bufio.NewScanner(buf)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

func extension(lang model.Language) string {
	if lang == model.LangJavaScript {
		return ".js"
	}
	return ".py"
}
