package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/codeatlas/codeatlas/pkg/registry"
)

func testBrowseModel() BrowseModel {
	projects := []registry.Project{
		{ID: "p1", Name: "demo-api", RootPath: "/src/demo-api"},
		{ID: "p2", Name: "billing", RootPath: "/src/billing"},
	}
	return NewBrowseModel(projects, func(projectID string) ([]BrowseEntry, error) {
		if projectID != "p1" {
			return nil, nil
		}
		return []BrowseEntry{
			{Kind: EntryFile, ID: "main-py", Label: "src/main.py", Note: "python · 40 loc"},
			{Kind: EntryWorkflow, ID: "checkout", Label: "checkout", Note: "POST /checkout"},
		}, nil
	})
}

func key(s string) tea.KeyMsg {
	if len(s) == 1 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{}
}

func step(t *testing.T, m tea.Model, msg tea.Msg) BrowseModel {
	t.Helper()
	next, _ := m.Update(msg)
	bm, ok := next.(BrowseModel)
	if !ok {
		t.Fatalf("Update returned %T, want BrowseModel", next)
	}
	return bm
}

func TestBrowsePickFile(t *testing.T) {
	m := testBrowseModel()

	m = step(t, m, key("enter")) // into demo-api
	if m.Project == nil || m.Project.Name != "demo-api" {
		t.Fatalf("expected demo-api selected, got %+v", m.Project)
	}
	if len(m.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(m.Entries))
	}

	m = step(t, m, key("enter")) // pick first entry
	if m.Choice == nil || m.Choice.ID != "main-py" {
		t.Fatalf("expected main-py choice, got %+v", m.Choice)
	}
}

func TestBrowsePickWorkflow(t *testing.T) {
	m := testBrowseModel()

	m = step(t, m, key("enter"))
	m = step(t, m, key("down"))
	m = step(t, m, key("enter"))

	if m.Choice == nil || m.Choice.Kind != EntryWorkflow || m.Choice.ID != "checkout" {
		t.Fatalf("expected checkout workflow choice, got %+v", m.Choice)
	}
}

func TestBrowseEscGoesBack(t *testing.T) {
	m := testBrowseModel()

	m = step(t, m, key("enter"))
	m = step(t, m, key("esc"))

	if m.Project != nil {
		t.Error("esc should return to the project list")
	}
	if m.Choice != nil {
		t.Error("no choice should be recorded")
	}
}

func TestBrowseCursorBounds(t *testing.T) {
	m := testBrowseModel()

	m = step(t, m, key("up")) // already at top
	m = step(t, m, key("down"))
	m = step(t, m, key("down")) // past the end

	if got := m.rowCount(); got != 2 {
		t.Fatalf("rowCount() = %d, want 2", got)
	}
	m = step(t, m, key("enter")) // billing has no entries
	if m.Project == nil || m.Project.Name != "billing" {
		t.Fatalf("expected billing selected, got %+v", m.Project)
	}
	m = step(t, m, key("enter")) // enter on empty list is a no-op
	if m.Choice != nil {
		t.Error("empty list should not produce a choice")
	}
}

func TestBrowseView(t *testing.T) {
	m := testBrowseModel()

	view := m.View()
	if !strings.Contains(view, "Select Project") {
		t.Error("project phase view should show the title")
	}
	if !strings.Contains(view, "demo-api") {
		t.Error("view should list projects")
	}

	m = step(t, m, key("enter"))
	view = m.View()
	if !strings.Contains(view, "src/main.py") || !strings.Contains(view, "checkout") {
		t.Error("entry phase view should list files and workflows")
	}
}
