package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/version"
)

// DefaultDebounce is the quiet period after the last change before a rebuild.
const DefaultDebounce = 300 * time.Millisecond

// BuildFunc runs one build. Each call captures its own build instant.
type BuildFunc func(ctx context.Context) (*build.BuildReport, error)

// Options configures a preview Server.
type Options struct {
	InputDir  string
	OutputDir string
	// ConfigPath is watched alongside InputDir when set.
	ConfigPath string
	Addr       string
	Debounce   time.Duration
	// RebuildEvery requests a periodic rebuild when positive.
	RebuildEvery time.Duration
	// Registry enables MetricsPath when non-nil.
	Registry    *prometheus.Registry
	MetricsPath string
	Build       BuildFunc
}

// Server builds the site, serves the output directory and rebuilds on change.
type Server struct {
	opts     Options
	status   *buildStatus
	errs     *ferrors.HTTPErrorAdapter
	debounce *debouncer
	filter   eventFilter

	ready chan struct{}
	addr  net.Addr
}

// New validates opts and resolves directories to absolute paths.
func New(opts Options) (*Server, error) {
	if opts.Build == nil {
		return nil, ferrors.ConfigError("preview requires a build function").Build()
	}
	absIn, err := filepath.Abs(opts.InputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve input dir: %w", err)
	}
	if st, statErr := os.Stat(absIn); statErr != nil || !st.IsDir() {
		return nil, ferrors.FileSystemError("input directory not found").
			WithContext("path", absIn).
			WithCause(statErr).
			Build()
	}
	absOut, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output dir: %w", err)
	}
	opts.InputDir, opts.OutputDir = absIn, absOut
	if opts.ConfigPath != "" {
		if opts.ConfigPath, err = filepath.Abs(opts.ConfigPath); err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	return &Server{
		opts:     opts,
		status:   &buildStatus{},
		errs:     ferrors.NewHTTPErrorAdapter(nil),
		debounce: newDebouncer(opts.Debounce),
		filter:   eventFilter{inputDir: absIn, outputDir: absOut, configPath: opts.ConfigPath},
		ready:    make(chan struct{}),
	}, nil
}

// Handler serves the output directory, /health and, when a registry is set, metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	if s.opts.Registry != nil {
		mux.Handle(s.opts.MetricsPath, metrics.HTTPHandler(s.opts.Registry))
	}
	files := http.FileServer(http.Dir(s.opts.OutputDir))
	mux.Handle("/", noCache(s.withBuildError(files)))
	return mux
}

// noCache makes browsers revalidate every file so rebuilds show up on reload.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}

// withBuildError answers with the build error until a first build succeeds.
func (s *Server) withBuildError(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hasErr, err, good := s.status.getStatus(); hasErr && !good {
			s.errs.WriteErrorResponse(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.errs.WriteErrorResponse(w, r, ferrors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", "GET").
			Build())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(s.status.health(version.Resolved()))
}

// Addr returns the listen address once Run has bound it, or nil.
func (s *Server) Addr() net.Addr {
	select {
	case <-s.ready:
		return s.addr
	default:
		return nil
	}
}

// rebuild runs one build and records its result. Build failures are logged,
// never returned: the server keeps serving the last good output.
func (s *Server) rebuild(ctx context.Context) {
	report, err := s.opts.Build(ctx)
	s.status.record(report, err)
	if err != nil {
		slog.Warn("Rebuild failed", logfields.Error(err))
		return
	}
	if report != nil {
		slog.Info("Site rebuilt", logfields.BuildID(report.BuildID), slog.String("summary", report.Summary()))
	}
}

// Run performs the initial build, then serves and watches until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	s.rebuild(ctx)

	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return ferrors.RuntimeError("failed to listen").
			WithContext("addr", s.opts.Addr).
			WithCause(err).
			Build()
	}
	s.addr = ln.Addr()
	close(s.ready)

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	slog.Info("Preview server listening", slog.String("url", "http://"+ln.Addr().String()))

	watcher, err := newWatcher(s.opts.InputDir, s.opts.ConfigPath)
	if err != nil {
		_ = srv.Close()
		return err
	}
	defer func() { _ = watcher.Close() }()

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	worker := &rebuildWorker{rebuild: s.rebuild}
	go worker.run(workerCtx, s.debounce.req)

	if s.opts.RebuildEvery > 0 {
		sched, err := newRebuildScheduler(s.opts.RebuildEvery, s.debounce.request)
		if err != nil {
			_ = srv.Close()
			return err
		}
		sched.Start()
		defer func() { _ = sched.Shutdown() }()
	}

	for {
		select {
		case <-ctx.Done():
			return s.shutdown(srv)
		case err, ok := <-serveErr:
			if !ok {
				serveErr = nil
				continue
			}
			return ferrors.RuntimeError("preview server stopped").WithCause(err).Build()
		case ev, ok := <-watcher.Events:
			if !ok {
				return s.shutdown(srv)
			}
			if s.filter.handleFileEvent(watcher, ev) {
				s.debounce.trigger()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return s.shutdown(srv)
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (s *Server) shutdown(srv *http.Server) error {
	slog.Info("Shutting down preview server")
	s.debounce.stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	return nil
}
