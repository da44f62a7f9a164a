package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/matzehuels/waveflow/pkg/buildinfo"
	"github.com/matzehuels/waveflow/pkg/errors"
	"github.com/matzehuels/waveflow/pkg/modelio"
	"github.com/matzehuels/waveflow/pkg/observability"
	"github.com/matzehuels/waveflow/pkg/pipeline"
	"github.com/matzehuels/waveflow/pkg/quantize"
	"github.com/matzehuels/waveflow/pkg/render"
	"github.com/matzehuels/waveflow/pkg/render/dot"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	opts, err := generateOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.Sample, err = s.readSample(w, r); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Logger = s.logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.limits.checkOutput(&opts); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if result != nil {
		w.Header().Set("X-Run-ID", result.RunID)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	format, _ := render.ParseFormat(opts.Formats[0])
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("X-Seed", strconv.FormatUint(result.Seed, 10))
	if result.CacheInfo.RenderHit {
		w.Header().Set("X-Cache", "hit")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[opts.Formats[0]])
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := pipeline.Options{Method: q.Get("method"), Logger: s.logger}
	var err error
	if opts.Levels, err = intParam(q.Get("levels"), "levels"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.Sample, err = s.readSample(w, r); err != nil {
		s.writeError(w, r, err)
		return
	}

	_, m, err := s.runner.Learn(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	switch format := strings.ToLower(q.Get("format")); format {
	case "", "json":
		var buf bytes.Buffer
		if err := modelio.WriteJSON(m, &buf); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(buf.Bytes())
	case "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = io.WriteString(w, dot.ToDOT(m, dot.Options{Levels: opts.Levels}))
	case "svg":
		svg, err := dot.RenderSVG(dot.ToDOT(m, dot.Options{Levels: opts.Levels}))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(svg)
	default:
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidFormat, "unknown model format %q (want json, dot or svg)", format))
	}
}

// readSample reads the request body and checks the declared size of the
// image it holds before anything decodes its pixels.
func (s *Server) readSample(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := s.readBody(w, r)
	if err != nil {
		return nil, err
	}
	cfg, _, err := quantize.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := s.limits.checkSample(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	return data, nil
}

// generateOptions parses generation parameters from the query string.
func generateOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Method:  q.Get("method"),
		Refresh: q.Get("refresh") == "true",
	}
	ints := []struct {
		name string
		dst  *int
	}{
		{"width", &opts.Width},
		{"height", &opts.Height},
		{"levels", &opts.Levels},
		{"tile", &opts.TileSize},
		{"attempts", &opts.Attempts},
		{"scale", &opts.Scale},
	}
	for _, p := range ints {
		v, err := intParam(q.Get(p.name), p.name)
		if err != nil {
			return opts, err
		}
		*p.dst = v
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "seed must be an unsigned integer, got %q", v)
		}
		opts.Seed = &seed
	}
	if v := q.Get("format"); v != "" {
		opts.Formats = []string{v}
	}
	return opts, nil
}

func intParam(v, name string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be an integer, got %q", name, v)
	}
	return n, nil
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read sample image")
	}
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "request body must contain a sample image")
	}
	return data, nil
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidSample,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeContradiction:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorBody{
		Error: errors.UserMessage(err),
		Code:  string(errors.GetCode(err)),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("encode response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}
