package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/waveflow/pkg/cache"
	"github.com/matzehuels/waveflow/pkg/errors"
	"github.com/matzehuels/waveflow/pkg/grid"
	"github.com/matzehuels/waveflow/pkg/modelio"
	"github.com/matzehuels/waveflow/pkg/observability"
	"github.com/matzehuels/waveflow/pkg/quantize"
	"github.com/matzehuels/waveflow/pkg/render"
	"github.com/matzehuels/waveflow/pkg/wfc"
)

// Runner executes the pipeline with caching. It holds no per-run state, so
// one Runner may serve concurrent runs with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer uses
// cache.DefaultKeyer and a nil logger uses log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Close releases the cache.
func (r *Runner) Close() error {
	return r.Cache.Close()
}

// Execute runs quantize → learn → solve → render with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Artifacts: make(map[string][]byte),
	}
	logger := r.Logger.With("run", result.RunID[:8])

	// Stage 1+2: Quantize and learn
	learnStart := time.Now()
	sample, model, modelHit, err := r.learn(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("learn: %w", err)
	}
	result.Sample = sample
	result.Model = model
	result.Stats.LearnTime = time.Since(learnStart)
	result.Stats.SampleWidth, result.Stats.SampleHeight = sample.Width, sample.Height
	result.Stats.ModelLevels = model.Len()
	result.CacheInfo.ModelHit = modelHit

	var modelJSON bytes.Buffer
	if err := modelio.WriteJSON(model, &modelJSON); err != nil {
		return nil, fmt.Errorf("hash model: %w", err)
	}
	result.ModelHash = cache.Hash(modelJSON.Bytes())

	logger.Info("learned model",
		"levels", model.Len(),
		"cached", modelHit,
		"duration", result.Stats.LearnTime)

	seeded := opts.Seed != nil
	result.Seed = wfc.RandomSeed()
	if seeded {
		result.Seed = *opts.Seed
	}

	// Seeded runs are reproducible, so their artifacts may come from cache.
	if artifacts, ok := r.cachedArtifacts(ctx, result.ModelHash, result.Seed, seeded, opts); ok {
		result.Artifacts = artifacts
		result.CacheInfo.RenderHit = true
		logger.Info("served from cache", "seed", result.Seed)
		return result, nil
	}

	// Stage 3: Solve
	solveStart := time.Now()
	out, stats, err := r.solve(ctx, model, result.Seed, opts)
	result.Stats.Attempts = stats.Attempts
	result.Stats.Collapses = stats.Collapses
	result.Stats.SolveTime = time.Since(solveStart)
	if err != nil {
		return result, fmt.Errorf("solve: %w", err)
	}
	result.Output = out

	w, h := opts.GridSize()
	logger.Info("generated grid",
		"cells", w*h,
		"seed", result.Seed,
		"attempts", stats.Attempts,
		"duration", result.Stats.SolveTime)

	// Stage 4: Render
	renderStart := time.Now()
	artifacts, err := r.Render(ctx, out, opts)
	if err != nil {
		return result, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	if seeded {
		for format, data := range artifacts {
			key, _ := r.Keyer.ArtifactKey(result.ModelHash, true, artifactKeyOpts(opts, result.Seed, format))
			r.cacheSet(ctx, "artifact", key, data, cache.TTLArtifact)
		}
	}
	return result, nil
}

// Learn quantizes the sample and extracts its adjacency model, using the
// cache unless opts.Refresh is set. The returned grid is empty on a cache
// hit.
func (r *Runner) Learn(ctx context.Context, opts Options) (grid.Grid, *wfc.Model, error) {
	sample, m, _, err := r.learn(ctx, opts)
	return sample, m, err
}

func (r *Runner) learn(ctx context.Context, opts Options) (grid.Grid, *wfc.Model, bool, error) {
	if err := opts.ValidateForLearn(); err != nil {
		return grid.Grid{}, nil, false, err
	}
	method, _ := quantize.ParseMethod(opts.Method)

	data, err := sampleBytes(opts)
	if err != nil {
		return grid.Grid{}, nil, false, err
	}

	// In-memory images have no stable encoding to hash.
	var key string
	if data != nil {
		key = r.Keyer.ModelKey(cache.Hash(data), cache.ModelKeyOpts{Levels: opts.Levels, Method: string(method)})
		if !opts.Refresh {
			if m, ok := r.cachedModel(ctx, key); ok {
				return grid.Grid{}, m, true, nil
			}
		}
	}

	img := opts.SampleImage
	hooks := observability.Pipeline()
	hooks.OnQuantizeStart(ctx, string(method), opts.Levels)
	start := time.Now()
	if img == nil {
		if img, _, err = quantize.Decode(bytes.NewReader(data)); err != nil {
			hooks.OnQuantizeComplete(ctx, string(method), 0, 0, time.Since(start), err)
			return grid.Grid{}, nil, false, err
		}
	}
	sample, err := quantize.ToGrid(img, opts.Levels, method)
	hooks.OnQuantizeComplete(ctx, string(method), sample.Width, sample.Height, time.Since(start), err)
	if err != nil {
		return grid.Grid{}, nil, false, err
	}

	start = time.Now()
	m, err := wfc.BuildModel(sample)
	if err != nil {
		hooks.OnLearnComplete(ctx, 0, time.Since(start), err)
		return grid.Grid{}, nil, false, err
	}
	hooks.OnLearnComplete(ctx, m.Len(), time.Since(start), nil)
	opts.Logger.Debug("quantized sample", "width", sample.Width, "height", sample.Height, "method", method)

	if key != "" {
		var buf bytes.Buffer
		if err := modelio.WriteJSON(m, &buf); err == nil {
			r.cacheSet(ctx, "model", key, buf.Bytes(), cache.TTLModel)
		}
	}
	return sample, m, false, nil
}

// sampleBytes returns the encoded sample, reading it from disk if needed.
// It returns nil for in-memory images.
func sampleBytes(opts Options) ([]byte, error) {
	switch {
	case len(opts.Sample) > 0:
		return opts.Sample, nil
	case opts.SamplePath != "":
		if err := errors.ValidateImagePath(opts.SamplePath); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(opts.SamplePath)
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "sample image %s not found", opts.SamplePath)
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read sample image %s", opts.SamplePath)
		}
		return data, nil
	}
	return nil, nil
}

func (r *Runner) cachedModel(ctx context.Context, key string) (*wfc.Model, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "model")
		return nil, false
	}
	m, err := modelio.ReadJSON(bytes.NewReader(data))
	if err != nil {
		observability.Cache().OnCacheMiss(ctx, "model")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "model")
	return m, true
}

func (r *Runner) cachedArtifacts(ctx context.Context, modelHash string, seed uint64, seeded bool, opts Options) (map[string][]byte, bool) {
	if opts.Refresh || !seeded {
		return nil, false
	}
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key, ok := r.Keyer.ArtifactKey(modelHash, true, artifactKeyOpts(opts, seed, format))
		if !ok {
			return nil, false
		}
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			observability.Cache().OnCacheMiss(ctx, "artifact")
			return nil, false
		}
		artifacts[format] = data
	}
	observability.Cache().OnCacheHit(ctx, "artifact")
	return artifacts, true
}

func (r *Runner) cacheSet(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

func artifactKeyOpts(opts Options, seed uint64, format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Width:    opts.Width * opts.TileSize,
		Height:   opts.Height * opts.TileSize,
		Levels:   opts.Levels,
		Attempts: opts.Attempts,
		Seed:     seed,
		Format:   format,
		Scale:    opts.Scale,
	}
}

// Solve generates an output grid from m. A nil opts.Seed draws a fresh seed.
func (r *Runner) Solve(ctx context.Context, m *wfc.Model, opts Options) (grid.Grid, wfc.Stats, error) {
	seed := wfc.RandomSeed()
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	return r.solve(ctx, m, seed, opts)
}

func (r *Runner) solve(ctx context.Context, m *wfc.Model, seed uint64, opts Options) (grid.Grid, wfc.Stats, error) {
	if err := opts.ValidateForSolve(); err != nil {
		return grid.Grid{}, wfc.Stats{}, err
	}
	w, h := opts.GridSize()
	s, err := wfc.NewSolver(m, wfc.Options{
		Width:       w,
		Height:      h,
		Levels:      opts.Levels,
		Rand:        wfc.NewRand(seed),
		MaxAttempts: opts.Attempts,
		OnStep:      opts.OnStep,
	})
	if err != nil {
		return grid.Grid{}, wfc.Stats{}, err
	}

	hooks := observability.Pipeline()
	hooks.OnSolveStart(ctx, w, h, opts.Levels)
	start := time.Now()
	out, err := s.Solve(ctx)
	stats := s.Stats()
	hooks.OnSolveComplete(ctx, stats.Attempts, stats.Collapses, time.Since(start), err)
	return out, stats, err
}

// Render encodes g in every requested format.
func (r *Runner) Render(ctx context.Context, g grid.Grid, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	var img image.Image = render.ToImage(g, opts.Levels)
	img = render.Scale(img, opts.Scale)

	hooks := observability.Pipeline()
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, name := range opts.Formats {
		format, _ := render.ParseFormat(name)
		hooks.OnRenderStart(ctx, string(format))
		start := time.Now()

		var buf bytes.Buffer
		err := render.Encode(&buf, img, format)
		hooks.OnRenderComplete(ctx, string(format), buf.Len(), time.Since(start), err)
		if err != nil {
			return nil, err
		}
		artifacts[name] = buf.Bytes()
	}
	return artifacts, nil
}
