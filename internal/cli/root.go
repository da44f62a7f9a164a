// Package cli implements the waveflow command-line interface.
//
// waveflow learns the adjacency rules of a grayscale sample image and
// generates new images that follow them with Wave Function Collapse.
//
// # Commands
//
// The main commands are:
//   - generate: Run a config file and write the generated image
//   - model: Export the learned adjacency model as JSON, DOT or SVG
//   - preview: Show generated grids in the terminal and reroll them
//   - serve: Expose the pipeline over HTTP
//   - cache: Manage the local result cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// reports every pipeline stage through the observability hooks. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Example
//
//	c := cli.New(os.Stderr, cli.LogInfo)
//	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	    os.Exit(1)
//	}
package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/waveflow/pkg/buildinfo"
	"github.com/matzehuels/waveflow/pkg/observability"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Waveflow generates images from the adjacency rules of a sample",
		Long:         `Waveflow quantizes a sample image into luminance levels, learns which levels may sit next to each other, and fills a new grid with Wave Function Collapse.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
				observability.NewLogHooks(c.Logger).Register()
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.modelCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
