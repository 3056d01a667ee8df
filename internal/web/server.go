// Package web serves the tracelens JSON API and the embedded browser page.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tracelens/internal/analysis"
	"tracelens/internal/cfg"
	"tracelens/internal/compare"
	"tracelens/internal/complexity"
	"tracelens/internal/model"
	"tracelens/internal/sim"
	"tracelens/internal/syntax"
)

//go:embed static/*
var staticFS embed.FS

//go:embed help.md
var helpMD string

// maxBody caps request bodies.
const maxBody = 1 << 20

// Help returns the user guide as markdown with the version filled in.
func Help() string {
	return strings.ReplaceAll(helpMD, "{{VERSION}}", model.Version)
}

// Server is the HTTP front end. Handlers share no mutable state, so one
// Server serves concurrent requests.
type Server struct {
	addr     string
	analyzer *analysis.Analyzer
	builder  *cfg.Builder
	simOpts  []sim.Option
	logger   *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAnalyzer sets the analyzer behind /api/analyze.
func WithAnalyzer(a *analysis.Analyzer) Option {
	return func(s *Server) {
		if a != nil {
			s.analyzer = a
		}
	}
}

// WithSimOptions configures /api/simulate.
func WithSimOptions(opts ...sim.Option) Option {
	return func(s *Server) {
		s.simOpts = append(s.simOpts, opts...)
	}
}

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// NewServer creates a Server listening on :8080 unless WithAddr is given.
func NewServer(opts ...Option) *Server {
	s := &Server{addr: ":8080", logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.analyzer == nil {
		s.analyzer = analysis.NewAnalyzer(analysis.WithLogger(s.logger))
	}
	s.builder = cfg.NewBuilder(cfg.WithLogger(s.logger))
	return s
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	subFS, _ := fs.Sub(staticFS, "static")
	mux.Handle("GET /", http.FileServer(http.FS(subFS)))

	mux.HandleFunc("POST /api/simulate", s.handleSimulate)
	mux.HandleFunc("POST /api/graph", s.handleGraph)
	mux.HandleFunc("POST /api/complexity", s.handleComplexity)
	mux.HandleFunc("POST /api/compare", s.handleCompare)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/line-context", s.handleLineContext)
	mux.HandleFunc("GET /api/help", s.handleHelp)

	return s.withRequestID(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web server listening", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("web server shutdown: %w", err)
		}
		<-errCh
		return nil
	}
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}

// programRequest is the body shared by the program endpoints.
type programRequest struct {
	Code      string      `json:"code"`
	Language  string      `json:"language"`
	Stdin     string      `json:"stdin"`
	Predicted model.Trace `json:"predicted,omitempty"`
}

func (p programRequest) language() (model.Language, error) {
	if strings.TrimSpace(p.Language) == "" {
		return syntax.Detect(p.Code), nil
	}
	lang, ok := model.ParseLanguage(p.Language)
	if !ok {
		return "", fmt.Errorf("unsupported language %q", p.Language)
	}
	return lang, nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func decodeProgram(w http.ResponseWriter, r *http.Request) (programRequest, model.Language, bool) {
	var req programRequest
	if !decode(w, r, &req) {
		return req, "", false
	}
	lang, err := req.language()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return req, "", false
	}
	return req, lang, true
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	req, lang, ok := decodeProgram(w, r)
	if !ok {
		return
	}
	opts := append([]sim.Option{sim.WithLogger(s.logger)}, s.simOpts...)
	s.writeJSON(w, sim.Simulate(req.Code, lang, req.Stdin, opts...))
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	req, lang, ok := decodeProgram(w, r)
	if !ok {
		return
	}
	g := s.builder.Build(req.Code, lang)
	if r.URL.Query().Get("format") == "dot" {
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		w.Write([]byte(cfg.DOT(g)))
		return
	}
	s.writeJSON(w, g)
}

func (s *Server) handleComplexity(w http.ResponseWriter, r *http.Request) {
	req, lang, ok := decodeProgram(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, complexity.Estimate(req.Code, complexity.WithLanguage(lang)))
}

type compareRequest struct {
	Predicted model.Trace `json:"predicted"`
	Actual    model.Trace `json:"actual"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !decode(w, r, &req) {
		return
	}
	s.writeJSON(w, compare.Summarize(req.Predicted, req.Actual))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, lang, ok := decodeProgram(w, r)
	if !ok {
		return
	}
	res, err := s.analyzer.Analyze(r.Context(), analysis.Request{
		Source:    req.Code,
		Language:  lang,
		Stdin:     req.Stdin,
		Predicted: req.Predicted,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	response := struct {
		analysis.Result
		Report        string `json:"report"`
		VerboseReport string `json:"verboseReport"`
		Version       string `json:"version"`
	}{
		Result:        res,
		Report:        analysis.GenerateReport(res, false),
		VerboseReport: analysis.GenerateReport(res, true),
		Version:       model.Version,
	}
	s.writeJSON(w, response)
}

type lineContextRequest struct {
	Code string `json:"code"`
	Line int    `json:"line"`
}

func (s *Server) handleLineContext(w http.ResponseWriter, r *http.Request) {
	var req lineContextRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Line < 1 {
		http.Error(w, "line must be at least 1", http.StatusBadRequest)
		return
	}
	s.writeJSON(w, model.SourceLineContext(req.Code, req.Line))
}

func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown")
	w.Write([]byte(Help()))
}
