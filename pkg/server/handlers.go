package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/codeatlas/codeatlas/pkg/buildinfo"
	apperrors "github.com/codeatlas/codeatlas/pkg/errors"
	"github.com/codeatlas/codeatlas/pkg/facts"
	"github.com/codeatlas/codeatlas/pkg/pipeline"
	"github.com/codeatlas/codeatlas/pkg/registry"
)

// === Health ===

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// === Projects ===

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.Store.ListProjects(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, projects)
}

type createProjectRequest struct {
	Name     string `json:"name"`
	RootPath string `json:"root_path"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Name == "" {
		s.writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "project name is required"))
		return
	}

	p := &registry.Project{Name: req.Name, RootPath: req.RootPath}
	if err := s.Store.CreateProject(r.Context(), p); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, p)
}

type ingestRequest struct {
	Dir string `json:"dir"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req ingestRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Dir == "" {
		s.writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "ingest dir is required"))
		return
	}

	jobID := s.startIngest(name, req.Dir)
	s.writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

func (s *Server) handleProjectStatus(w http.ResponseWriter, r *http.Request) {
	p, err := s.Store.ProjectByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	status, err := s.Store.ParsingStatus(r.Context(), p.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleProjectFiles(w http.ResponseWriter, r *http.Request) {
	p, err := s.Store.ProjectByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	files, err := s.Store.ListFiles(r.Context(), p.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, files)
}

// workflowSummary is the listing shape: names and endpoints without the
// trace trees.
type workflowSummary struct {
	Name     string         `json:"name"`
	Endpoint facts.Endpoint `json:"endpoint"`
}

func (s *Server) handleProjectWorkflows(w http.ResponseWriter, r *http.Request) {
	p, err := s.Store.ProjectByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	ws, err := s.Store.ListWorkflows(r.Context(), p.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	summaries := make([]workflowSummary, 0, len(ws))
	for _, wf := range ws {
		summaries = append(summaries, workflowSummary{Name: wf.Name, Endpoint: wf.Endpoint})
	}
	s.writeJSON(w, http.StatusOK, summaries)
}

// === Files and layouts ===

func (s *Server) handleFileDetails(w http.ResponseWriter, r *http.Request) {
	fd, err := s.Store.FileDetails(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fd)
}

func (s *Server) handleFileLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := layoutOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	layout, _, err := s.Runner.BuildStructure(r.Context(), chi.URLParam(r, "fileID"), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, layout)
}

func (s *Server) handleWorkflowDiagram(w http.ResponseWriter, r *http.Request) {
	opts, err := layoutOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	layout, _, err := s.Runner.BuildTrace(r.Context(),
		chi.URLParam(r, "name"), chi.URLParam(r, "workflow"), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, layout)
}

// layoutOptions reads pipeline options from query parameters.
func layoutOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{Mode: q.Get("mode")}

	if v := q.Get("width"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return opts, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid width: %q", v)
		}
		opts.Width = f
	}
	if v := q.Get("height"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return opts, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid height: %q", v)
		}
		opts.Height = f
	}
	opts.Refresh = q.Get("refresh") == "true"
	return opts, nil
}

// === Jobs ===

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobByID(chi.URLParam(r, "jobID"))
	if !ok {
		s.writeError(w, apperrors.New(apperrors.ErrCodeNotFound, "job not found: %s", chi.URLParam(r, "jobID")))
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

// === Selection ===

type selectionRequest struct {
	Project  string `json:"project"`
	FileID   string `json:"file_id"`
	Workflow string `json:"workflow"`
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	sel, err := s.Selection.Get(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sel)
}

func (s *Server) handlePutSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	sel, err := s.Selection.Get(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Apply the most specific transition named in the request. A file or
	// workflow selection implies its project.
	switch {
	case req.Workflow != "":
		if req.Project != "" {
			sel = sel.SelectProject(req.Project)
		}
		sel = sel.SelectWorkflow(req.Workflow)
	case req.FileID != "":
		if req.Project != "" {
			sel = sel.SelectProject(req.Project)
		}
		sel = sel.SelectFile(req.FileID)
	case req.Project != "":
		sel = sel.SelectProject(req.Project)
	default:
		sel = sel.Clear()
	}

	if err := s.Selection.Set(r.Context(), sel); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sel)
}
