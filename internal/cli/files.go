package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// filesCommand creates the files command for listing a project's files.
func (c *CLI) filesCommand() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "files [project]",
		Short: "List the files of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFiles(cmd, args[0], status)
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "show element coverage per file")
	return cmd
}

func (c *CLI) runFiles(cmd *cobra.Command, projectName string, status bool) error {
	store, err := c.newStore(cmd)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	p, err := store.ProjectByName(cmd.Context(), projectName)
	if err != nil {
		return err
	}

	if status {
		st, err := store.ParsingStatus(cmd.Context(), p.ID)
		if err != nil {
			return err
		}
		for _, f := range st.Files {
			fmt.Println(StyleValue.Render(f.Path) + " " + StyleDim.Render(f.FileID))
			printDetail("%d/%d lines covered (%.0f%%)", f.Covered, f.LOC, f.Coverage*100)
		}
		return nil
	}

	files, err := store.ListFiles(cmd.Context(), p.ID)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		printInfo("No files ingested for %s", projectName)
		return nil
	}
	for _, f := range files {
		fmt.Println(StyleValue.Render(f.Path) + " " + StyleDim.Render(fmt.Sprintf("%s · %s · %d loc", f.ID, f.Kind, f.LOC)))
	}
	printNewline()
	printNextStep("Layout", appName+" layout <file-id>")
	return nil
}
