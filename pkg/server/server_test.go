package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas/codeatlas/pkg/facts"
	"github.com/codeatlas/codeatlas/pkg/ingest"
	"github.com/codeatlas/codeatlas/pkg/registry"
	"github.com/codeatlas/codeatlas/pkg/viz"
)

func newTestServer(t *testing.T) (*Server, registry.Store) {
	t.Helper()
	store := registry.NewMemoryStore()
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})
	s, err := New(store, nil, nil, logger, Options{})
	require.NoError(t, err)
	return s, store
}

// seedStore registers a project with one parsed file and one workflow.
func seedStore(t *testing.T, store registry.Store) *registry.Project {
	t.Helper()
	ctx := context.Background()

	p := &registry.Project{Name: "demo-api", RootPath: "/src/demo-api"}
	require.NoError(t, store.CreateProject(ctx, p))
	require.NoError(t, store.UpsertFile(ctx, &registry.File{
		ID: "main-py", ProjectID: p.ID, Path: "src/main.py", Kind: "python", LOC: 40,
	}))
	require.NoError(t, store.SaveElements(ctx, "main-py", "def handler(): ...", []facts.CodeElement{
		{ID: 1, Kind: facts.KindFunction, Name: "handler", StartLine: 1, EndLine: 10},
		{ID: 2, Kind: facts.KindImport, Name: "os", StartLine: 12, EndLine: 12},
	}))
	require.NoError(t, store.SaveWorkflows(ctx, p.ID, []facts.Workflow{{
		Name:     "checkout",
		Endpoint: facts.Endpoint{Name: "POST /checkout", Path: "src/main.py"},
		PythonTrace: &facts.CallTree{
			Name: "handler", Path: "src/main.py",
			Callees: []*facts.CallTree{{Name: "charge", Path: "src/billing.py"}},
		},
	}}))
	return p
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rr := doJSON(t, s.Router(), http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", decodeBody[map[string]string](t, rr)["status"])
	require.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestProjects(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	rr := doJSON(t, h, http.MethodPost, "/api/projects", map[string]string{
		"name": "demo-api", "root_path": "/src/demo-api",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decodeBody[registry.Project](t, rr)
	require.NotEmpty(t, created.ID)

	// Duplicate name
	rr = doJSON(t, h, http.MethodPost, "/api/projects", map[string]string{"name": "demo-api"})
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Equal(t, "STORE_CONFLICT", decodeBody[errorBody](t, rr).Code)

	// Missing name
	rr = doJSON(t, h, http.MethodPost, "/api/projects", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, decodeBody[[]registry.Project](t, rr), 1)
}

func TestProjectStatusAndFiles(t *testing.T) {
	s, store := newTestServer(t)
	seedStore(t, store)
	h := s.Router()

	rr := doJSON(t, h, http.MethodGet, "/api/projects/demo-api/status", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	status := decodeBody[registry.Status](t, rr)
	require.Len(t, status.Files, 1)
	require.Equal(t, "main-py", status.Files[0].FileID)

	rr = doJSON(t, h, http.MethodGet, "/api/projects/demo-api/files", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, decodeBody[[]registry.File](t, rr), 1)

	rr = doJSON(t, h, http.MethodGet, "/api/projects/missing/status", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "PROJECT_NOT_FOUND", decodeBody[errorBody](t, rr).Code)
}

func TestWorkflows(t *testing.T) {
	s, store := newTestServer(t)
	seedStore(t, store)
	h := s.Router()

	rr := doJSON(t, h, http.MethodGet, "/api/projects/demo-api/workflows", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	summaries := decodeBody[[]workflowSummary](t, rr)
	require.Len(t, summaries, 1)
	require.Equal(t, "checkout", summaries[0].Name)
	require.NotContains(t, rr.Body.String(), "python_trace")

	rr = doJSON(t, h, http.MethodGet, "/api/projects/demo-api/workflows/checkout/diagram", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	layout := decodeBody[viz.Layout](t, rr)
	require.True(t, layout.IsTrace())
	require.Equal(t, "checkout", layout.Workflow)
	require.Len(t, layout.Nodes, 3)

	rr = doJSON(t, h, http.MethodGet, "/api/projects/demo-api/workflows/missing/diagram", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "WORKFLOW_NOT_FOUND", decodeBody[errorBody](t, rr).Code)
}

func TestFileEndpoints(t *testing.T) {
	s, store := newTestServer(t)
	seedStore(t, store)
	h := s.Router()

	rr := doJSON(t, h, http.MethodGet, "/api/files/main-py", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	fd := decodeBody[facts.FileDetails](t, rr)
	require.Len(t, fd.Elements, 2)

	rr = doJSON(t, h, http.MethodGet, "/api/files/main-py/layout?mode=by-kind&width=1024&height=768", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	layout := decodeBody[viz.Layout](t, rr)
	require.True(t, layout.IsStructure())
	require.Len(t, layout.Blocks, 2)

	rr = doJSON(t, h, http.MethodGet, "/api/files/main-py/layout?mode=sideways", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "INVALID_MODE", decodeBody[errorBody](t, rr).Code)

	rr = doJSON(t, h, http.MethodGet, "/api/files/main-py/layout?width=nope", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/files/missing", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "FILE_NOT_FOUND", decodeBody[errorBody](t, rr).Code)
}

func TestSelection(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	rr := doJSON(t, h, http.MethodGet, "/api/selection", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodPut, "/api/selection", map[string]string{
		"project": "demo-api", "file_id": "main-py",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/selection", nil)
	sel := decodeBody[map[string]any](t, rr)
	require.Equal(t, "demo-api", sel["project_name"])
	require.Equal(t, "main-py", sel["file_id"])

	// Selecting a workflow clears the file
	rr = doJSON(t, h, http.MethodPut, "/api/selection", map[string]string{"workflow": "checkout"})
	require.Equal(t, http.StatusOK, rr.Code)
	sel = decodeBody[map[string]any](t, rr)
	require.Equal(t, "checkout", sel["workflow_name"])
	require.NotContains(t, sel, "file_id")

	// Empty body clears everything
	rr = doJSON(t, h, http.MethodPut, "/api/selection", map[string]string{})
	require.Equal(t, http.StatusOK, rr.Code)
	sel = decodeBody[map[string]any](t, rr)
	require.NotContains(t, sel, "project_name")
}

func TestIngestJob(t *testing.T) {
	s, store := newTestServer(t)
	h := s.Router()

	dir := t.TempDir()
	require.NoError(t, ingest.WriteManifest(filepath.Join(dir, "project.json"), &ingest.Manifest{
		Name:     "demo-api",
		RootPath: "/src/demo-api",
		Files:    []ingest.ManifestFile{{ID: "main-py", Path: "src/main.py", Kind: "python", LOC: 40}},
	}))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "files"), 0755))
	payload, err := json.Marshal(facts.FileDetails{
		Content:  "def handler(): ...",
		Elements: []facts.CodeElement{{ID: 1, Kind: facts.KindFunction, Name: "handler", StartLine: 1, EndLine: 10}},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "files", "main-py.json"), payload, 0644))

	rr := doJSON(t, h, http.MethodPost, "/api/projects/demo-api/ingest", map[string]string{"dir": dir})
	require.Equal(t, http.StatusAccepted, rr.Code)
	jobID := decodeBody[map[string]string](t, rr)["job_id"]
	require.NotEmpty(t, jobID)

	job := waitForJob(t, h, jobID)
	require.Equal(t, JobDone, job.State)
	require.NotNil(t, job.Report)
	require.Equal(t, 1, job.Report.Files)

	p, err := store.ProjectByName(context.Background(), "demo-api")
	require.NoError(t, err)
	require.True(t, p.Parsed)

	// Missing dir
	rr = doJSON(t, h, http.MethodPost, "/api/projects/demo-api/ingest", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	// Unknown job
	rr = doJSON(t, h, http.MethodGet, "/api/jobs/nope", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestIngestJobProjectMismatch(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	dir := t.TempDir()
	require.NoError(t, ingest.WriteManifest(filepath.Join(dir, "project.json"), &ingest.Manifest{
		Name: "other-project",
	}))

	rr := doJSON(t, h, http.MethodPost, "/api/projects/demo-api/ingest", map[string]string{"dir": dir})
	require.Equal(t, http.StatusAccepted, rr.Code)
	jobID := decodeBody[map[string]string](t, rr)["job_id"]

	job := waitForJob(t, h, jobID)
	require.Equal(t, JobFailed, job.State)
	require.NotEmpty(t, job.Error)
}

func waitForJob(t *testing.T, h http.Handler, jobID string) ingestJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rr := doJSON(t, h, http.MethodGet, "/api/jobs/"+jobID, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		job := decodeBody[ingestJob](t, rr)
		if job.State != JobRunning {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return ingestJob{}
}
