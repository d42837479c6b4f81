package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeatlas/codeatlas/pkg/server"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API server.

The server exposes the registry and the layout pipeline: project and file
listings, parsing status, structure layouts, workflow diagrams, ingest
jobs, and the shared selection state. It shuts down gracefully on SIGINT.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, addr string) error {
	store, err := c.newStore(cmd)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	cch, err := c.newCache(cmd, false)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer cch.Close()

	sel, err := c.newSelectionStore()
	if err != nil {
		return fmt.Errorf("open selection store: %w", err)
	}
	defer sel.Close()

	if addr == "" {
		addr = c.Config.Server.Addr
	}

	srv, err := server.New(store, cch, sel, c.Logger, server.Options{Addr: addr})
	if err != nil {
		return err
	}

	printInfo("Serving on http://%s", addr)
	return srv.Start(cmd.Context())
}
