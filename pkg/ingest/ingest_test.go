package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas/codeatlas/pkg/cache"
	apperrors "github.com/codeatlas/codeatlas/pkg/errors"
	"github.com/codeatlas/codeatlas/pkg/facts"
	"github.com/codeatlas/codeatlas/pkg/registry"
)

// writeFixture lays out a parser output directory with two files and one
// workflow.
func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, WriteManifest(filepath.Join(dir, "project.json"), &Manifest{
		Name:     "demo-api",
		RootPath: "/src/demo-api",
		Files: []ManifestFile{
			{ID: "main-py", Path: "src/main.py", Kind: "python", LOC: 40},
			{ID: "app-js", Path: "src/app.js", Kind: "javascript", LOC: 25},
		},
	}))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "files"), 0755))
	writeJSON(t, filepath.Join(dir, "files", "main-py.json"), facts.FileDetails{
		Content: "def handler(): ...",
		Elements: []facts.CodeElement{
			{ID: 1, Kind: facts.KindFunction, Name: "handler", StartLine: 1, EndLine: 10},
			{ID: 2, Kind: facts.KindImport, Name: "os", StartLine: 12, EndLine: 12},
		},
	})
	writeJSON(t, filepath.Join(dir, "files", "app-js.json"), facts.FileDetails{
		Content: "function render() {}",
		Elements: []facts.CodeElement{
			{ID: 1, Kind: facts.KindFunction, Name: "render", StartLine: 1, EndLine: 5},
		},
	})

	writeJSON(t, filepath.Join(dir, "workflows.json"), []facts.Workflow{
		{
			Name:     "checkout",
			Endpoint: facts.Endpoint{Name: "POST /checkout", Path: "src/main.py"},
			PythonTrace: &facts.CallTree{
				Name: "handler", Path: "src/main.py",
				Callees: []*facts.CallTree{{Name: "charge", Path: "src/billing.py"}},
			},
		},
	})
	return dir
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func TestLoaderRun(t *testing.T) {
	ctx := context.Background()
	dir := writeFixture(t)
	store := registry.NewMemoryStore()

	loader := NewLoader(store, nil, nil)
	report, err := loader.Run(ctx, dir)
	require.NoError(t, err)

	require.NotEmpty(t, report.JobID)
	require.Equal(t, "demo-api", report.Project)
	require.Equal(t, 2, report.Files)
	require.Equal(t, 0, report.Skipped)
	require.Equal(t, 3, report.Elements)
	require.Equal(t, 1, report.Workflows)

	p, err := store.ProjectByName(ctx, "demo-api")
	require.NoError(t, err)
	require.True(t, p.Parsed)

	fd, err := store.FileDetails(ctx, "main-py")
	require.NoError(t, err)
	require.Len(t, fd.Elements, 2)

	ws, err := store.ListWorkflows(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, ws, 1)
	require.Equal(t, "checkout", ws[0].Name)
}

func TestLoaderSkipsUnchangedFiles(t *testing.T) {
	ctx := context.Background()
	dir := writeFixture(t)
	store := registry.NewMemoryStore()

	fileCache, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)

	loader := NewLoader(store, fileCache, nil)
	report, err := loader.Run(ctx, dir)
	require.NoError(t, err)
	require.Equal(t, 0, report.Skipped)

	// Second run over the same payloads skips every file
	report, err = loader.Run(ctx, dir)
	require.NoError(t, err)
	require.Equal(t, 2, report.Skipped)
	require.Equal(t, 0, report.Elements)

	// Changing one payload re-ingests only that file
	writeJSON(t, filepath.Join(dir, "files", "app-js.json"), facts.FileDetails{
		Content: "function render() { return null }",
		Elements: []facts.CodeElement{
			{ID: 1, Kind: facts.KindFunction, Name: "render", StartLine: 1, EndLine: 6},
		},
	})
	report, err = loader.Run(ctx, dir)
	require.NoError(t, err)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, 1, report.Elements)
}

func TestLoaderMissingPayloadIsNotFatal(t *testing.T) {
	ctx := context.Background()
	dir := writeFixture(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "files", "app-js.json")))

	store := registry.NewMemoryStore()
	loader := NewLoader(store, nil, nil)

	report, err := loader.Run(ctx, dir)
	require.NoError(t, err)
	require.Equal(t, 2, report.Files)
	require.Equal(t, 2, report.Elements)

	// The file record exists, its facts do not
	_, err = store.FileByID(ctx, "app-js")
	require.NoError(t, err)
	_, err = store.FileDetails(ctx, "app-js")
	require.True(t, apperrors.Is(err, apperrors.ErrCodeFileNotFound))
}

func TestLoaderRejectsBadManifest(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := registry.NewMemoryStore()
	loader := NewLoader(store, nil, nil)

	// Missing manifest
	_, err := loader.Run(ctx, dir)
	require.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidManifest))

	// Manifest without a name
	require.NoError(t, WriteManifest(filepath.Join(dir, "project.json"), &Manifest{}))
	_, err = loader.Run(ctx, dir)
	require.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidManifest))
}

func TestLoaderReusesExistingProject(t *testing.T) {
	ctx := context.Background()
	dir := writeFixture(t)
	store := registry.NewMemoryStore()

	existing := &registry.Project{Name: "demo-api", RootPath: "/src/demo-api"}
	require.NoError(t, store.CreateProject(ctx, existing))

	loader := NewLoader(store, nil, nil)
	_, err := loader.Run(ctx, dir)
	require.NoError(t, err)

	projects, err := store.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, existing.ID, projects[0].ID)
}
