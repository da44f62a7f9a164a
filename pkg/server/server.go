// Package server exposes the generation pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz      liveness check
//	GET  /version      build metadata as JSON
//	POST /v1/generate  sample image in the body, generated image out
//	POST /v1/model     sample image in the body, adjacency model out
//
// Generation parameters travel in the query string (width, height, tile,
// levels, seed, attempts, method, format, scale). Every response to
// /v1/generate carries the run ID in the X-Run-ID header and, on success,
// the seed in X-Seed so the run can be reproduced.
//
// Requests are bounded before any work starts: the sample's declared size is
// read from its header, and the solved grid and rendered image are checked
// against [Config.MaxCells] and [Config.MaxPixels]. Oversized requests fail
// with 400.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/waveflow/pkg/observability"
	"github.com/matzehuels/waveflow/pkg/pipeline"
)

// Default request limits. Each collapse scans the whole wave, so solve time
// grows with the square of the cell count.
const (
	DefaultMaxBodyBytes    = 16 << 20
	DefaultMaxCells        = 256 * 256
	DefaultMaxPixels       = 4096 * 4096
	DefaultMaxSamplePixels = 2048 * 2048
)

// Config configures a Server.
type Config struct {
	Runner       *pipeline.Runner
	Logger       *log.Logger
	MaxBodyBytes int64
	// MaxCells bounds the solved grid (width·height·tile²).
	MaxCells int
	// MaxPixels bounds the rendered image (cells·scale²).
	MaxPixels int
	// MaxSamplePixels bounds the declared size of an uploaded sample.
	MaxSamplePixels int
	// Timeout bounds a single request, solving included. Zero means no limit.
	Timeout time.Duration
}

// Server serves the HTTP API.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	maxBody int64
	limits  limits
	timeout time.Duration
	router  chi.Router
}

// New creates a server. A nil Runner gets an uncached one.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.MaxCells <= 0 {
		cfg.MaxCells = DefaultMaxCells
	}
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = DefaultMaxPixels
	}
	if cfg.MaxSamplePixels <= 0 {
		cfg.MaxSamplePixels = DefaultMaxSamplePixels
	}
	s := &Server{
		runner:  cfg.Runner,
		logger:  cfg.Logger,
		maxBody: cfg.MaxBodyBytes,
		limits: limits{
			cells:        int64(cfg.MaxCells),
			pixels:       int64(cfg.MaxPixels),
			samplePixels: int64(cfg.MaxSamplePixels),
		},
		timeout: cfg.Timeout,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(hooksMiddleware)
	if s.timeout > 0 {
		r.Use(middleware.Timeout(s.timeout))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/generate", s.handleGenerate)
		r.Post("/model", s.handleModel)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// hooksMiddleware reports every request to the registered HTTP hooks.
func hooksMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, time.Since(start))
	})
}
