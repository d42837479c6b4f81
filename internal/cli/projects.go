package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeatlas/codeatlas/pkg/registry"
)

// projectsCommand creates the projects command group.
func (c *CLI) projectsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage registered projects",
	}

	cmd.AddCommand(c.projectsListCommand())
	cmd.AddCommand(c.projectsAddCommand())
	cmd.AddCommand(c.projectsRemoveCommand())

	return cmd
}

// projectsListCommand creates the "projects list" subcommand.
func (c *CLI) projectsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newStore(cmd)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			projects, err := store.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				printInfo("No projects registered")
				printNextStep("Ingest one", appName+" ingest <dir>")
				return nil
			}
			for _, p := range projects {
				state := StyleDim.Render("pending")
				if p.Parsed {
					state = styleCached.Render("parsed")
				}
				fmt.Println(StyleValue.Render(p.Name) + " " + state)
				printDetail("%s", p.RootPath)
			}
			return nil
		},
	}
}

// projectsAddCommand creates the "projects add" subcommand.
func (c *CLI) projectsAddCommand() *cobra.Command {
	var rootPath string

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Register a project without ingesting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newStore(cmd)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			p := &registry.Project{Name: args[0], RootPath: rootPath}
			if err := store.CreateProject(cmd.Context(), p); err != nil {
				return err
			}
			printSuccess("Registered %s", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&rootPath, "path", "", "project root path")
	return cmd
}

// projectsRemoveCommand creates the "projects remove" subcommand.
func (c *CLI) projectsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [name]",
		Short: "Delete a project and all of its parsed data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newStore(cmd)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			p, err := store.ProjectByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := store.DeleteProject(cmd.Context(), p.ID); err != nil {
				return err
			}
			printSuccess("Removed %s", args[0])
			return nil
		},
	}
}
