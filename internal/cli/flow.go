package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeatlas/codeatlas/pkg/pipeline"
)

// flowCommand creates the flow command for rendering workflow diagrams.
func (c *CLI) flowCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
	)
	opts := c.pipelineOptions()

	cmd := &cobra.Command{
		Use:   "flow [project] [workflow]",
		Short: "Render the call-flow diagram of a workflow",
		Long: `Render the call-flow diagram of a workflow.

The flow command loads a workflow's call traces from the registry and
arranges them around the endpoint pivot: backend callees grow downstream,
frontend callers grow upstream. Output formats: svg (default), dot, png,
json.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr, pipeline.FormatSVG)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runFlow(cmd, args[0], args[1], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().Float64Var(&opts.Width, "width", opts.Width, "viewport width")
	cmd.Flags().Float64Var(&opts.Height, "height", opts.Height, "viewport height")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png, json (comma-separated)")

	return cmd
}

// runFlow builds the trace layout and writes the requested formats.
func (c *CLI) runFlow(cmd *cobra.Command, project, workflow string, opts pipeline.Options, output string, noCache bool) error {
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

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Tracing %s...", workflow))
	spinner.Start()

	layout, stats, err := runner.BuildTrace(ctx, project, workflow, opts)
	if err != nil {
		spinner.StopWithError("Trace failed")
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

	printSuccess("Flow diagram complete")
	return writeArtifacts(artifacts, opts.Formats, basePath(output, workflow), stats.NodeCount, renderHit)
}
