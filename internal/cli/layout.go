package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeatlas/codeatlas/pkg/pipeline"
)

// layoutCommand creates the layout command for rendering file structure.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
		refresh    bool
	)
	opts := c.pipelineOptions()

	cmd := &cobra.Command{
		Use:   "layout [file-id]",
		Short: "Compute and render the structure layout of a file",
		Long: `Compute and render the structure layout of a file.

The layout command loads a file's parsed elements from the registry,
arranges them into columns of nested blocks, annotates source lines, and
fits the result to the viewport. Output formats: json (default), svg.

Layouts are deterministic; rendered artifacts are cached locally.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr, pipeline.FormatJSON)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			opts.Refresh = refresh
			return c.runLayout(cmd, args[0], opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass caches for this run")

	// Layout flags
	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", opts.Mode, "display mode: by-kind (default), by-position")
	cmd.Flags().Float64Var(&opts.Width, "width", opts.Width, "viewport width")
	cmd.Flags().Float64Var(&opts.Height, "height", opts.Height, "viewport height")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), svg (comma-separated)")

	return cmd
}

// runLayout builds the structure layout and writes the requested formats.
func (c *CLI) runLayout(cmd *cobra.Command, fileID string, opts pipeline.Options, output string, noCache bool) error {
	store, err := c.newStore(cmd)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	runner, err := c.newRunner(cmd, store, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}

	opts.Logger = c.Logger
	ctx := cmd.Context()

	spinner := newSpinnerWithContext(ctx, "Computing structure layout...")
	spinner.Start()

	layout, stats, info, err := runner.BuildStructureWithCacheInfo(ctx, fileID, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}

	artifacts, renderHit, err := runner.RenderWithCacheInfo(ctx, layout, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	printSuccess("Layout complete")
	return writeArtifacts(artifacts, opts.Formats, basePath(output, fileID), stats.NodeCount, info.LoadHit && renderHit)
}
