package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/codeatlas/codeatlas/pkg/ingest"
)

// ingestCommand creates the ingest command for loading parser output.
func (c *CLI) ingestCommand() *cobra.Command {
	var (
		noCache     bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Load a parser output directory into the registry",
		Long: `Load a parser output directory into the registry.

The directory must contain a project.json manifest, per-file element
payloads under files/, and optionally a workflows.json with call traces.
Unchanged files (by content hash) are skipped on re-ingest.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runIngest(cmd, args[0], noCache, concurrency)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the content-hash skip cache")
	cmd.Flags().IntVar(&concurrency, "concurrency", ingest.DefaultConcurrency, "parallel file loads")

	return cmd
}

func (c *CLI) runIngest(cmd *cobra.Command, dir string, noCache bool, concurrency int) error {
	store, err := c.newStore(cmd)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	cch, err := c.newCache(cmd, noCache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer cch.Close()

	loader := ingest.NewLoader(store, cch, c.Logger)
	loader.Concurrency = concurrency

	spinner := newSpinnerWithContext(cmd.Context(), "Ingesting "+dir+"...")
	spinner.Start()

	report, err := loader.Run(cmd.Context(), dir)
	if err != nil {
		spinner.StopWithError("Ingest failed")
		return err
	}
	spinner.Stop()

	printSuccess("Ingested %s", report.Project)
	printDetail("%d files (%d skipped), %d elements, %d workflows in %s",
		report.Files, report.Skipped, report.Elements, report.Workflows,
		report.Duration.Round(time.Millisecond))
	printNewline()
	printNextStep("Inspect", fmt.Sprintf("%s files %s", appName, report.Project))
	return nil
}
