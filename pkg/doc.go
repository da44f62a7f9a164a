// Package pkg provides the core libraries for waveflow image generation.
//
// # Overview
//
// Waveflow reduces a sample image to a grid of luminance levels, learns which
// levels may sit next to each other, and fills a new grid with Wave Function
// Collapse so that every pair of neighbors was also seen in the sample. The
// pkg directory is organized into four main areas:
//
//  1. [wfc] - Domain logic (adjacency model, wave, propagation, solver)
//  2. [quantize], [render] - Image input and output
//  3. [cache], [observability] - Infrastructure
//  4. [pipeline], [server] - Orchestration and the HTTP API
//
// # Architecture
//
// The typical data flow through waveflow:
//
//	Sample image (PNG, JPEG, GIF, BMP, TIFF, WebP)
//	         ↓
//	    [quantize] package (BT.709 luminance → levels 1..L)
//	         ↓
//	    [wfc] package (learn model → collapse + propagate)
//	         ↓
//	    [render] package (levels → gray → PNG/BMP/TIFF)
//
// # Quick Start
//
// Generate a grid from a sample:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/waveflow/pkg/quantize"
//	    "github.com/matzehuels/waveflow/pkg/render"
//	    "github.com/matzehuels/waveflow/pkg/wfc"
//	)
//
//	// 1. Quantize the sample
//	sample, _ := quantize.LoadGrid("sample.png", 4, quantize.MethodUniform)
//
//	// 2. Learn and solve
//	out, _, err := wfc.Generate(context.Background(), sample, wfc.Options{
//	    Width:  64,
//	    Height: 48,
//	    Levels: 4,
//	    Rand:   wfc.NewRand(42),
//	})
//
//	// 3. Write the image
//	_ = render.Save("out.png", render.ToImage(out, 4))
//
// # Main Packages
//
// ## Core Domain Logic
//
// [grid] - Row-major level grids shared by every stage.
//
// [wfc] - Wave Function Collapse over level grids. [wfc.BuildModel] extracts
// per-direction adjacency sets from a sample; [wfc.Solver] repeats
// select → collapse → propagate until every cell is decided. Contradictions
// surface as [wfc.ContradictionError]; an optional restart bound retries the
// whole solve.
//
// ## Images
//
// [quantize] - Decoding and luminance quantization (uniform bands or k-means
// clusters).
//
// [render] - Level-to-gray mapping, nearest-neighbor scaling, PNG/BMP/TIFF
// encoding and terminal output.
//
// [render/dot] - Adjacency model diagrams as Graphviz DOT or SVG.
//
// [modelio] - JSON import and export of adjacency models.
//
// ## Infrastructure
//
// [config] - YAML and TOML run configuration.
//
// [cache] - Model and image caching with file, Redis and null backends.
//
// [observability] - Hooks for pipeline, cache and HTTP events.
//
// [errors] - Coded errors and input validation.
//
// [buildinfo] - Version metadata injected at build time.
//
// ## Orchestration
//
// [pipeline] - Complete generation pipeline (quantize → learn → solve →
// render) used by the CLI and the HTTP server. Ensures consistent behavior
// across both entry points.
//
// [server] - HTTP API over the pipeline.
//
// # Common Workflows
//
// Reproduce a run:
//
//	seed := uint64(42)
//	result, _ := runner.Execute(ctx, pipeline.Options{
//	    SamplePath: "sample.png", Width: 64, Height: 48, Levels: 4, Seed: &seed,
//	})
//
// Retry on contradiction:
//
//	s, _ := wfc.NewSolver(model, wfc.Options{
//	    Width: 64, Height: 48, Levels: 4, Rand: wfc.NewRand(seed), MaxAttempts: 20,
//	})
//	out, err := s.Solve(ctx)
//	if wfc.IsContradiction(err) {
//	    // every attempt failed
//	}
//
// Export a model diagram:
//
//	svg, _ := dot.RenderSVG(dot.ToDOT(model, dot.Options{Levels: 4}))
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/wfc/...                # Specific package
//	go test -run Example ./pkg/...       # Examples only
//
// Redis-backed cache tests run when WAVEFLOW_TEST_REDIS names a server.
//
// [wfc]: https://pkg.go.dev/github.com/matzehuels/waveflow/pkg/wfc
// [wfc.BuildModel]: https://pkg.go.dev/github.com/matzehuels/waveflow/pkg/wfc#BuildModel
// [wfc.Solver]: https://pkg.go.dev/github.com/matzehuels/waveflow/pkg/wfc#Solver
// [wfc.ContradictionError]: https://pkg.go.dev/github.com/matzehuels/waveflow/pkg/wfc#ContradictionError
// [grid]: https://pkg.go.dev/github.com/matzehuels/waveflow/pkg/grid
// [quantize]: https://pkg.go.dev/github.com/matzehuels/waveflow/pkg/quantize
// [render]: https://pkg.go.dev/github.com/matzehuels/waveflow/pkg/render
// [render/dot]: https://pkg.go.dev/github.com/matzehuels/waveflow/pkg/render/dot
// [modelio]: https://pkg.go.dev/github.com/matzehuels/waveflow/pkg/modelio
// [config]: https://pkg.go.dev/github.com/matzehuels/waveflow/pkg/config
// [cache]: https://pkg.go.dev/github.com/matzehuels/waveflow/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/waveflow/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/waveflow/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/waveflow/pkg/buildinfo
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/waveflow/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/waveflow/pkg/server
package pkg
