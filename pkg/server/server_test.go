package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/waveflow/pkg/modelio"
	"github.com/matzehuels/waveflow/pkg/observability"
)

func encodePNG(t *testing.T, w, h int, pix ...uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	copy(img.Pix, pix)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestServer() *Server {
	return New(Config{Logger: log.New(io.Discard)})
}

func do(t *testing.T, s *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHealthAndVersion(t *testing.T) {
	s := newTestServer()

	rec := do(t, s, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/version", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("version status = %d", rec.Code)
	}
	var info map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info["version"] == "" {
		t.Errorf("version missing from %v", info)
	}
}

func TestGenerate(t *testing.T) {
	s := newTestServer()
	sample := encodePNG(t, 2, 2, 0, 255, 255, 0)

	rec := do(t, s, http.MethodPost, "/v1/generate?width=6&height=4&levels=2&seed=11&scale=2", sample)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get("X-Run-ID") == "" {
		t.Error("missing X-Run-ID")
	}
	if got := rec.Header().Get("X-Seed"); got != "11" {
		t.Errorf("X-Seed = %q, want 11", got)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 8 {
		t.Errorf("image = %dx%d, want 12x8", b.Dx(), b.Dy())
	}
}

func TestGenerateBMP(t *testing.T) {
	s := newTestServer()
	rec := do(t, s, http.MethodPost, "/v1/generate?width=2&height=2&levels=1&format=bmp", encodePNG(t, 1, 1, 9))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/bmp" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestGenerateErrors(t *testing.T) {
	s := newTestServer()
	sample := encodePNG(t, 2, 2, 0, 255, 255, 0)
	tests := []struct {
		name   string
		target string
		body   []byte
		status int
		code   string
	}{
		{"bad integer", "/v1/generate?width=abc&height=2&levels=2", sample, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad seed", "/v1/generate?width=2&height=2&levels=2&seed=-1", sample, http.StatusBadRequest, "INVALID_INPUT"},
		{"empty body", "/v1/generate?width=2&height=2&levels=2", nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"zero width", "/v1/generate?height=2&levels=2", sample, http.StatusBadRequest, "INVALID_CONFIG"},
		{"bad format", "/v1/generate?width=2&height=2&levels=2&format=gif", sample, http.StatusBadRequest, "INVALID_FORMAT"},
		{"not an image", "/v1/generate?width=2&height=2&levels=2", []byte("hello"), http.StatusBadRequest, "INVALID_FORMAT"},
		{"contradiction", "/v1/generate?width=3&height=1&levels=2&seed=1", encodePNG(t, 1, 1, 0), http.StatusUnprocessableEntity, "CONTRADICTION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.target, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			if body := decodeError(t, rec); body.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Code, tt.code)
			}
		})
	}
}

func TestGenerateLimits(t *testing.T) {
	s := New(Config{Logger: log.New(io.Discard), MaxSamplePixels: 16})
	sample := encodePNG(t, 2, 2, 0, 255, 255, 0)
	tests := []struct {
		name   string
		target string
		body   []byte
	}{
		{"too many cells", "/v1/generate?width=8192&height=8192&levels=2", sample},
		{"tile multiplies cells", "/v1/generate?width=256&height=256&tile=2&levels=2", sample},
		{"too many pixels", "/v1/generate?width=256&height=256&levels=2&scale=64", sample},
		{"sample too large", "/v1/generate?width=2&height=2&levels=2", encodePNG(t, 5, 5)},
		{"model sample too large", "/v1/model?levels=2", encodePNG(t, 5, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.target, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			if body := decodeError(t, rec); body.Code != "INVALID_INPUT" {
				t.Errorf("code = %q, want INVALID_INPUT", body.Code)
			}
		})
	}

	rec := do(t, s, http.MethodPost, "/v1/generate?width=256&height=256&levels=2&seed=3", sample)
	if rec.Code != http.StatusOK {
		t.Errorf("request at the limits: status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestGenerateContradictionCarriesRunID(t *testing.T) {
	s := newTestServer()
	rec := do(t, s, http.MethodPost, "/v1/generate?width=2&height=2&levels=2&attempts=2", encodePNG(t, 1, 1, 0))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Run-ID") == "" {
		t.Error("failed runs should still report their run ID")
	}
	if msg := decodeError(t, rec).Error; !strings.Contains(msg, "after 2 attempts") {
		t.Errorf("error = %q", msg)
	}
}

func TestModel(t *testing.T) {
	s := newTestServer()
	sample := encodePNG(t, 2, 2, 0, 255, 255, 0)

	rec := do(t, s, http.MethodPost, "/v1/model?levels=2", sample)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	m, err := modelio.ReadJSON(rec.Body)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if m.Len() != 2 {
		t.Errorf("model has %d levels, want 2", m.Len())
	}

	rec = do(t, s, http.MethodPost, "/v1/model?levels=2&format=dot", sample)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "digraph model {") {
		t.Errorf("dot response %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodPost, "/v1/model?levels=2&format=yaml", sample)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format status = %d", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/v1/model", sample)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing levels status = %d", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer()
	if rec := do(t, s, http.MethodGet, "/v1/generate", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /v1/generate status = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("GET /nope status = %d", rec.Code)
	}
}

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu       sync.Mutex
	statuses []int
	errors   int
}

func (h *recordingHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func (h *recordingHooks) OnError(context.Context, string, string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors++
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	s := newTestServer()
	do(t, s, http.MethodGet, "/healthz", nil)
	do(t, s, http.MethodPost, "/v1/generate", nil)

	if len(hooks.statuses) != 2 || hooks.statuses[0] != http.StatusOK || hooks.statuses[1] != http.StatusBadRequest {
		t.Errorf("statuses = %v", hooks.statuses)
	}
	if hooks.errors != 1 {
		t.Errorf("errors = %d, want 1", hooks.errors)
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newTestServer().ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("ListenAndServe = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
