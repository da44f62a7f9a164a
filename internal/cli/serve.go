package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/waveflow/pkg/cache"
	"github.com/matzehuels/waveflow/pkg/pipeline"
	"github.com/matzehuels/waveflow/pkg/server"
)

// serveFlags holds the command-line flags for the serve command.
type serveFlags struct {
	addr          string
	timeout       time.Duration
	maxBody       int64
	maxCells      int
	maxPixels     int
	maxSample     int
	noCache       bool
	scope         string
	redisAddr     string
	redisPassword string
	redisDB       int
}

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generation API over HTTP",
		Long: `Serve exposes the pipeline over HTTP:

  GET  /healthz
  GET  /version
  POST /v1/generate?width=64&height=48&levels=4[&seed=&attempts=&tile=&method=&format=&scale=]
  POST /v1/model?levels=4[&method=&format=json|dot|svg]

Both POST endpoints take the sample image as the request body. Requests above
--max-cells, --max-pixels or --max-sample-pixels are rejected with 400.
Results are cached on disk, or in Redis when --redis-addr is set.`,
		Example: `  waveflow serve --addr :8080
  waveflow serve --redis-addr localhost:6379 --cache-scope prod`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", ":8080", "listen address")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 60*time.Second, "per-request timeout (0 disables)")
	cmd.Flags().Int64Var(&flags.maxBody, "max-body", server.DefaultMaxBodyBytes, "maximum sample upload size in bytes")
	cmd.Flags().IntVar(&flags.maxCells, "max-cells", server.DefaultMaxCells, "maximum solved grid size in cells")
	cmd.Flags().IntVar(&flags.maxPixels, "max-pixels", server.DefaultMaxPixels, "maximum rendered image size in pixels")
	cmd.Flags().IntVar(&flags.maxSample, "max-sample-pixels", server.DefaultMaxSamplePixels, "maximum sample image size in pixels")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&flags.scope, "cache-scope", "", "prefix cache keys to share one cache between deployments")
	cmd.Flags().StringVar(&flags.redisAddr, "redis-addr", "", "Redis address for the shared cache")
	cmd.Flags().StringVar(&flags.redisPassword, "redis-password", "", "Redis password")
	cmd.Flags().IntVar(&flags.redisDB, "redis-db", 0, "Redis database number")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, flags serveFlags) error {
	store, err := c.serveCache(ctx, flags)
	if err != nil {
		return err
	}

	keyer := cache.NewDefaultKeyer()
	if flags.scope != "" {
		keyer = cache.NewScopedKeyer(keyer, flags.scope)
	}
	runner := pipeline.NewRunner(store, keyer, c.Logger)
	defer runner.Close()

	srv := server.New(server.Config{
		Runner:          runner,
		Logger:          c.Logger,
		MaxBodyBytes:    flags.maxBody,
		MaxCells:        flags.maxCells,
		MaxPixels:       flags.maxPixels,
		MaxSamplePixels: flags.maxSample,
		Timeout:         flags.timeout,
	})

	printInfo("Serving on %s", StyleLink.Render("http://"+displayAddr(flags.addr)))
	err = srv.ListenAndServe(ctx, flags.addr)
	if errors.Is(err, context.Canceled) {
		printSuccess("Server stopped")
		return nil
	}
	return err
}

// serveCache picks Redis, the file cache or no cache from the flags.
func (c *CLI) serveCache(ctx context.Context, flags serveFlags) (cache.Cache, error) {
	switch {
	case flags.noCache:
		return cache.NewNullCache(), nil
	case flags.redisAddr != "":
		spinner := newSpinnerWithContext(ctx, "Connecting to Redis...")
		spinner.Start()
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     flags.redisAddr,
			Password: flags.redisPassword,
			DB:       flags.redisDB,
		})
		if err != nil {
			spinner.StopWithError("Redis unavailable")
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		spinner.StopWithSuccess("Connected to Redis at " + flags.redisAddr)
		return rc, nil
	}
	return newCache(false)
}

// displayAddr fills in a host for addresses like ":8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
