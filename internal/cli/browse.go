package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/codeatlas/codeatlas/pkg/registry"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// browseCommand creates the interactive project browser.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Interactively pick a project, file, or workflow",
		Long: `Interactively pick a project, file, or workflow.

The picker walks projects first, then the chosen project's files and
workflows. The final choice is persisted as the current selection, which
other commands and the API share.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd)
		},
	}
}

func (c *CLI) runBrowse(cmd *cobra.Command) error {
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

	model := NewBrowseModel(projects, func(projectID string) ([]BrowseEntry, error) {
		return loadEntries(cmd, store, projectID)
	})

	final, err := tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
	if err != nil {
		return fmt.Errorf("browse: %w", err)
	}

	m, ok := final.(BrowseModel)
	if !ok || m.Choice == nil {
		return nil
	}
	return c.applyChoice(cmd, m.Project.Name, *m.Choice)
}

// loadEntries lists a project's files and workflows as picker entries.
func loadEntries(cmd *cobra.Command, store registry.Store, projectID string) ([]BrowseEntry, error) {
	files, err := store.ListFiles(cmd.Context(), projectID)
	if err != nil {
		return nil, err
	}
	workflows, err := store.ListWorkflows(cmd.Context(), projectID)
	if err != nil {
		return nil, err
	}

	entries := make([]BrowseEntry, 0, len(files)+len(workflows))
	for _, f := range files {
		entries = append(entries, BrowseEntry{
			Kind:  EntryFile,
			ID:    f.ID,
			Label: f.Path,
			Note:  fmt.Sprintf("%s · %d loc", f.Kind, f.LOC),
		})
	}
	for _, w := range workflows {
		entries = append(entries, BrowseEntry{
			Kind:  EntryWorkflow,
			ID:    w.Name,
			Label: w.Name,
			Note:  w.Endpoint.Name,
		})
	}
	return entries, nil
}

// applyChoice persists the picked entry as the shared selection.
func (c *CLI) applyChoice(cmd *cobra.Command, projectName string, choice BrowseEntry) error {
	selStore, err := c.newSelectionStore()
	if err != nil {
		return fmt.Errorf("open selection store: %w", err)
	}
	defer selStore.Close()

	sel, err := selStore.Get(cmd.Context())
	if err != nil {
		return err
	}
	sel = sel.SelectProject(projectName)

	switch choice.Kind {
	case EntryFile:
		sel = sel.SelectFile(choice.ID)
		printSuccess("Selected %s / %s", projectName, choice.Label)
		printNextStep("Layout", fmt.Sprintf("%s layout %s -f svg", appName, choice.ID))
	case EntryWorkflow:
		sel = sel.SelectWorkflow(choice.ID)
		printSuccess("Selected %s / %s", projectName, choice.Label)
		printNextStep("Flow", fmt.Sprintf("%s flow %s %s", appName, projectName, choice.ID))
	}
	return selStore.Set(cmd.Context(), sel)
}

// =============================================================================
// BrowseModel - Interactive project/file/workflow selection
// =============================================================================

// Entry kinds.
const (
	EntryFile     = "file"
	EntryWorkflow = "workflow"
)

// BrowseEntry is one pickable row in the second phase.
type BrowseEntry struct {
	Kind  string
	ID    string
	Label string
	Note  string
}

type browsePhase int

const (
	phaseProjects browsePhase = iota
	phaseEntries
)

// BrowseModel is the bubbletea model for the two-phase picker.
type BrowseModel struct {
	Projects []registry.Project
	Entries  []BrowseEntry
	Project  *registry.Project
	Choice   *BrowseEntry
	Err      error

	phase   browsePhase
	cursor  int
	offset  int
	height  int
	entries func(projectID string) ([]BrowseEntry, error)
}

// NewBrowseModel creates a picker over the given projects. The entries
// callback loads a project's files and workflows on demand.
func NewBrowseModel(projects []registry.Project, entries func(projectID string) ([]BrowseEntry, error)) BrowseModel {
	return BrowseModel{
		Projects: projects,
		entries:  entries,
		height:   15,
	}
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.phase == phaseEntries {
				m.phase = phaseProjects
				m.Project = nil
				m.cursor, m.offset = 0, 0
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < m.rowCount()-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter":
			return m.pick()
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m BrowseModel) rowCount() int {
	if m.phase == phaseProjects {
		return len(m.Projects)
	}
	return len(m.Entries)
}

// pick handles enter: descend into a project, or finish on an entry.
func (m BrowseModel) pick() (tea.Model, tea.Cmd) {
	if m.phase == phaseProjects {
		p := m.Projects[m.cursor]
		entries, err := m.entries(p.ID)
		if err != nil {
			m.Err = err
			return m, tea.Quit
		}
		m.Project = &p
		m.Entries = entries
		m.phase = phaseEntries
		m.cursor, m.offset = 0, 0
		return m, nil
	}
	if len(m.Entries) == 0 {
		return m, nil
	}
	choice := m.Entries[m.cursor]
	m.Choice = &choice
	return m, tea.Quit
}

func (m BrowseModel) View() string {
	var b strings.Builder

	if m.phase == phaseProjects {
		b.WriteString(StyleTitle.Render("Select Project"))
	} else {
		b.WriteString(StyleTitle.Render("Select File or Workflow") +
			listDimStyle.Render("  · "+m.Project.Name))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  esc back  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > m.rowCount() {
		end = m.rowCount()
	}

	for i := m.offset; i < end; i++ {
		cursor := "  "
		style := listNormalStyle
		if i == m.cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}

		var label, note string
		if m.phase == phaseProjects {
			p := m.Projects[i]
			label = p.Name
			note = p.RootPath
		} else {
			e := m.Entries[i]
			label = e.Label
			note = e.Kind + " · " + e.Note
		}

		b.WriteString(cursor + style.Render(label))
		if note != "" {
			b.WriteString("  " + listDimStyle.Render(note))
		}
		b.WriteString("\n")
	}

	if m.phase == phaseEntries && len(m.Entries) == 0 {
		b.WriteString(listDimStyle.Render("  nothing ingested yet"))
		b.WriteString("\n")
	}

	return b.String()
}
