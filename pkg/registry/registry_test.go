package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/codeatlas/codeatlas/pkg/errors"
	"github.com/codeatlas/codeatlas/pkg/facts"
)

// storeFactories lists the backends every conformance test runs against.
// Mongo only runs when CODEATLAS_TEST_MONGO_URI is set.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	factories := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			path := filepath.Join(t.TempDir(), "registry.db")
			s, err := NewSQLiteStore(context.Background(), path)
			require.NoError(t, err)
			return s
		},
	}
	if uri := os.Getenv("CODEATLAS_TEST_MONGO_URI"); uri != "" {
		factories["mongo"] = func(t *testing.T) Store {
			s, err := NewMongoStore(context.Background(), uri, "codeatlas_test")
			require.NoError(t, err)
			return s
		}
	}
	return factories
}

func TestStoreProjects(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			defer s.Close()

			p := &Project{Name: "demo-api", RootPath: "/src/demo-api"}
			require.NoError(t, s.CreateProject(ctx, p))
			require.NotEmpty(t, p.ID)
			require.False(t, p.CreatedAt.IsZero())

			// Duplicate name conflicts
			err := s.CreateProject(ctx, &Project{Name: "demo-api", RootPath: "/elsewhere"})
			require.True(t, apperrors.Is(err, apperrors.ErrCodeConflict))

			got, err := s.ProjectByName(ctx, "demo-api")
			require.NoError(t, err)
			require.Equal(t, p.ID, got.ID)
			require.Equal(t, "/src/demo-api", got.RootPath)

			_, err = s.ProjectByName(ctx, "missing")
			require.True(t, apperrors.Is(err, apperrors.ErrCodeProjectNotFound))

			require.NoError(t, s.CreateProject(ctx, &Project{Name: "another", RootPath: "/src/another"}))
			all, err := s.ListProjects(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			// Sorted by name
			require.Equal(t, "another", all[0].Name)
			require.Equal(t, "demo-api", all[1].Name)

			require.NoError(t, s.MarkParsed(ctx, p.ID, true))
			got, err = s.ProjectByName(ctx, "demo-api")
			require.NoError(t, err)
			require.True(t, got.Parsed)

			err = s.MarkParsed(ctx, "missing-id", true)
			require.True(t, apperrors.Is(err, apperrors.ErrCodeProjectNotFound))
		})
	}
}

func TestStoreFiles(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			defer s.Close()

			p := &Project{Name: "demo-api", RootPath: "/src/demo-api"}
			require.NoError(t, s.CreateProject(ctx, p))

			f := &File{ID: "main-py", ProjectID: p.ID, Path: "src/main.py", Kind: "python", LOC: 120}
			require.NoError(t, s.UpsertFile(ctx, f))

			// Upsert replaces
			f.LOC = 140
			require.NoError(t, s.UpsertFile(ctx, f))

			got, err := s.FileByID(ctx, "main-py")
			require.NoError(t, err)
			require.Equal(t, 140, got.LOC)

			_, err = s.FileByID(ctx, "missing")
			require.True(t, apperrors.Is(err, apperrors.ErrCodeFileNotFound))

			require.NoError(t, s.UpsertFile(ctx, &File{
				ID: "app-js", ProjectID: p.ID, Path: "src/app.js", Kind: "javascript", LOC: 80,
			}))
			files, err := s.ListFiles(ctx, p.ID)
			require.NoError(t, err)
			require.Len(t, files, 2)
			// Sorted by path
			require.Equal(t, "src/app.js", files[0].Path)
			require.Equal(t, "src/main.py", files[1].Path)
		})
	}
}

func TestStoreElements(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			defer s.Close()

			p := &Project{Name: "demo-api", RootPath: "/src/demo-api"}
			require.NoError(t, s.CreateProject(ctx, p))
			require.NoError(t, s.UpsertFile(ctx, &File{
				ID: "main-py", ProjectID: p.ID, Path: "src/main.py", Kind: "python", LOC: 20,
			}))

			parent := int64(1)
			els := []facts.CodeElement{
				{ID: 1, Kind: facts.KindClass, Name: "App", StartLine: 1, EndLine: 20},
				{ID: 2, ParentID: &parent, Kind: facts.KindFunction, Name: "run", StartLine: 5, EndLine: 12},
			}
			require.NoError(t, s.SaveElements(ctx, "main-py", "class App: ...", els))

			fd, err := s.FileDetails(ctx, "main-py")
			require.NoError(t, err)
			require.Equal(t, "class App: ...", fd.Content)
			require.Len(t, fd.Elements, 2)
			require.Equal(t, facts.KindClass, fd.Elements[0].Kind)
			require.NotNil(t, fd.Elements[1].ParentID)
			require.Equal(t, int64(1), *fd.Elements[1].ParentID)

			// Invalid elements are rejected before any write
			bad := []facts.CodeElement{{ID: 0, Kind: facts.KindFunction, Name: "x", StartLine: 1, EndLine: 1}}
			err = s.SaveElements(ctx, "main-py", "", bad)
			require.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidElement))

			_, err = s.FileDetails(ctx, "missing")
			require.True(t, apperrors.Is(err, apperrors.ErrCodeFileNotFound))
		})
	}
}

func TestStoreWorkflows(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			defer s.Close()

			p := &Project{Name: "demo-api", RootPath: "/src/demo-api"}
			require.NoError(t, s.CreateProject(ctx, p))

			ws := []facts.Workflow{
				{
					Name:     "checkout",
					Endpoint: facts.Endpoint{Name: "POST /checkout", Path: "api/checkout.py"},
					PythonTrace: &facts.CallTree{
						Name: "checkout",
						Path: "api/checkout.py",
						Callees: []*facts.CallTree{
							{Name: "charge", Path: "billing.py"},
						},
					},
				},
				{
					Name:     "login",
					Endpoint: facts.Endpoint{Name: "POST /login", Path: "api/auth.py"},
				},
			}
			require.NoError(t, s.SaveWorkflows(ctx, p.ID, ws))

			got, err := s.ListWorkflows(ctx, p.ID)
			require.NoError(t, err)
			require.Len(t, got, 2)
			require.Equal(t, "checkout", got[0].Name)
			require.NotNil(t, got[0].PythonTrace)
			require.Len(t, got[0].PythonTrace.Callees, 1)
			require.Nil(t, got[1].PythonTrace)

			// Save replaces the previous set
			require.NoError(t, s.SaveWorkflows(ctx, p.ID, ws[:1]))
			got, err = s.ListWorkflows(ctx, p.ID)
			require.NoError(t, err)
			require.Len(t, got, 1)
		})
	}
}

func TestStoreParsingStatus(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			defer s.Close()

			p := &Project{Name: "demo-api", RootPath: "/src/demo-api"}
			require.NoError(t, s.CreateProject(ctx, p))
			require.NoError(t, s.UpsertFile(ctx, &File{
				ID: "main-py", ProjectID: p.ID, Path: "src/main.py", Kind: "python", LOC: 10,
			}))
			require.NoError(t, s.UpsertFile(ctx, &File{
				ID: "app-js", ProjectID: p.ID, Path: "src/app.js", Kind: "javascript", LOC: 10,
			}))

			// main.py: lines 1-5 covered
			require.NoError(t, s.SaveElements(ctx, "main-py", "", []facts.CodeElement{
				{ID: 1, Kind: facts.KindFunction, Name: "a", StartLine: 1, EndLine: 3},
				{ID: 2, Kind: facts.KindFunction, Name: "b", StartLine: 2, EndLine: 5},
			}))
			require.NoError(t, s.MarkParsed(ctx, p.ID, true))

			st, err := s.ParsingStatus(ctx, p.ID)
			require.NoError(t, err)
			require.True(t, st.Parsed)
			require.Len(t, st.Files, 2)

			// Sorted by path: app.js has no facts yet
			require.Equal(t, "src/app.js", st.Files[0].Path)
			require.Equal(t, 0, st.Files[0].Covered)
			require.Equal(t, 0.0, st.Files[0].Coverage)

			require.Equal(t, "src/main.py", st.Files[1].Path)
			require.Equal(t, 5, st.Files[1].Covered)
			require.InDelta(t, 0.5, st.Files[1].Coverage, 1e-9)
		})
	}
}

func TestStoreDeleteProject(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			defer s.Close()

			p := &Project{Name: "demo-api", RootPath: "/src/demo-api"}
			require.NoError(t, s.CreateProject(ctx, p))
			require.NoError(t, s.UpsertFile(ctx, &File{
				ID: "main-py", ProjectID: p.ID, Path: "src/main.py", Kind: "python", LOC: 10,
			}))
			require.NoError(t, s.SaveElements(ctx, "main-py", "", []facts.CodeElement{
				{ID: 1, Kind: facts.KindFunction, Name: "a", StartLine: 1, EndLine: 3},
			}))
			require.NoError(t, s.SaveWorkflows(ctx, p.ID, []facts.Workflow{{Name: "checkout"}}))

			require.NoError(t, s.DeleteProject(ctx, p.ID))

			_, err := s.ProjectByName(ctx, "demo-api")
			require.True(t, apperrors.Is(err, apperrors.ErrCodeProjectNotFound))
			_, err = s.FileDetails(ctx, "main-py")
			require.True(t, apperrors.Is(err, apperrors.ErrCodeFileNotFound))

			// Deleting twice fails
			err = s.DeleteProject(ctx, p.ID)
			require.True(t, apperrors.Is(err, apperrors.ErrCodeProjectNotFound))

			// Name is free for reuse
			require.NoError(t, s.CreateProject(ctx, &Project{Name: "demo-api", RootPath: "/again"}))
		})
	}
}
