// Package server exposes the registry and the visualization pipeline over
// HTTP. It is a thin edge: every handler validates input, delegates to the
// store or the pipeline runner, and serializes the result. No layout or
// rendering logic lives here.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/codeatlas/codeatlas/pkg/cache"
	apperrors "github.com/codeatlas/codeatlas/pkg/errors"
	"github.com/codeatlas/codeatlas/pkg/ingest"
	"github.com/codeatlas/codeatlas/pkg/pipeline"
	"github.com/codeatlas/codeatlas/pkg/registry"
	"github.com/codeatlas/codeatlas/pkg/selection"
)

// === Configuration ===

// DefaultAddr is the default listen address.
const DefaultAddr = "127.0.0.1:8640"

// Options configures the HTTP server.
type Options struct {
	// Addr is the listen address. Default: DefaultAddr.
	Addr string

	// ReadTimeout bounds reading a full request. Default: 15s.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing a full response. Default: 30s.
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown. Default: 10s.
	ShutdownTimeout time.Duration

	validated bool
}

// ValidateAndSetDefaults validates the options and fills in defaults.
// Safe to call multiple times.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Addr == "" {
		o.Addr = DefaultAddr
	}
	if o.ReadTimeout == 0 {
		o.ReadTimeout = 15 * time.Second
	}
	if o.WriteTimeout == 0 {
		o.WriteTimeout = 30 * time.Second
	}
	if o.ShutdownTimeout == 0 {
		o.ShutdownTimeout = 10 * time.Second
	}
	if o.ReadTimeout < 0 || o.WriteTimeout < 0 || o.ShutdownTimeout < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "timeouts must be positive")
	}
	o.validated = true
	return nil
}

// === Server ===

// Server wires the store, the pipeline runner, and the selection store
// behind one chi router.
type Server struct {
	Store     registry.Store
	Runner    *pipeline.Runner
	Loader    *ingest.Loader
	Selection selection.Store
	Logger    *log.Logger

	opts Options

	mu   sync.RWMutex
	jobs map[string]*ingestJob
}

// New creates a server over a registry store. A nil cache disables
// pipeline caching, a nil selection store keeps selection in memory,
// a nil logger uses the default.
func New(store registry.Store, c cache.Cache, sel selection.Store, logger *log.Logger, opts Options) (*Server, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if sel == nil {
		sel = selection.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		Store:     store,
		Runner:    pipeline.NewRunner(store, c, nil, logger),
		Loader:    ingest.NewLoader(store, c, logger),
		Selection: sel,
		Logger:    logger,
		opts:      opts,
		jobs:      make(map[string]*ingestJob),
	}, nil
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.handleListProjects)
			r.Post("/", s.handleCreateProject)
			r.Post("/{name}/ingest", s.handleIngest)
			r.Get("/{name}/status", s.handleProjectStatus)
			r.Get("/{name}/files", s.handleProjectFiles)
			r.Get("/{name}/workflows", s.handleProjectWorkflows)
			r.Get("/{name}/workflows/{workflow}/diagram", s.handleWorkflowDiagram)
		})

		r.Route("/files/{fileID}", func(r chi.Router) {
			r.Get("/", s.handleFileDetails)
			r.Get("/layout", s.handleFileLayout)
		})

		r.Get("/jobs/{jobID}", s.handleJobStatus)

		r.Get("/selection", s.handleGetSelection)
		r.Put("/selection", s.handlePutSelection)
	})
	return r
}

// Start runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Router(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInternal, err, "shutdown failed")
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "server failed")
	}
}
