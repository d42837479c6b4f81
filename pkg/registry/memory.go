package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/codeatlas/codeatlas/pkg/errors"
	"github.com/codeatlas/codeatlas/pkg/facts"
)

// MemoryStore is an in-memory Store for tests and development.
// All returned values are copies; mutating them does not affect the store.
type MemoryStore struct {
	mu        sync.RWMutex
	projects  map[string]*Project // by ID
	files     map[string]*File    // by ID
	details   map[string]*facts.FileDetails
	workflows map[string][]facts.Workflow // by project ID
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects:  make(map[string]*Project),
		files:     make(map[string]*File),
		details:   make(map[string]*facts.FileDetails),
		workflows: make(map[string][]facts.Workflow),
	}
}

// CreateProject registers a project. Names are unique; a missing ID is
// assigned. CreatedAt/UpdatedAt are set if zero.
func (s *MemoryStore) CreateProject(ctx context.Context, p *Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.projects {
		if existing.Name == p.Name {
			return apperrors.New(apperrors.ErrCodeConflict, "project already exists: %s", p.Name)
		}
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	cp := *p
	s.projects[p.ID] = &cp
	return nil
}

// ProjectByName looks up a project by its unique name.
func (s *MemoryStore) ProjectByName(ctx context.Context, name string) (*Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.projects {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.New(apperrors.ErrCodeProjectNotFound, "project not found: %s", name)
}

// ListProjects returns all projects sorted by name.
func (s *MemoryStore) ListProjects(ctx context.Context) ([]Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// MarkParsed updates the parsed flag on a project.
func (s *MemoryStore) MarkParsed(ctx context.Context, projectID string, parsed bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return apperrors.New(apperrors.ErrCodeProjectNotFound, "project not found: %s", projectID)
	}
	p.Parsed = parsed
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteProject removes a project with its files, facts, and workflows.
func (s *MemoryStore) DeleteProject(ctx context.Context, projectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectID]; !ok {
		return apperrors.New(apperrors.ErrCodeProjectNotFound, "project not found: %s", projectID)
	}
	for id, f := range s.files {
		if f.ProjectID == projectID {
			delete(s.files, id)
			delete(s.details, id)
		}
	}
	delete(s.workflows, projectID)
	delete(s.projects, projectID)
	return nil
}

// UpsertFile inserts or replaces a file record.
func (s *MemoryStore) UpsertFile(ctx context.Context, f *File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[f.ProjectID]; !ok {
		return apperrors.New(apperrors.ErrCodeProjectNotFound, "project not found: %s", f.ProjectID)
	}
	cp := *f
	s.files[f.ID] = &cp
	return nil
}

// ListFiles returns the files of a project sorted by path.
func (s *MemoryStore) ListFiles(ctx context.Context, projectID string) ([]File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.projects[projectID]; !ok {
		return nil, apperrors.New(apperrors.ErrCodeProjectNotFound, "project not found: %s", projectID)
	}
	out := make([]File, 0)
	for _, f := range s.files {
		if f.ProjectID == projectID {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// FileByID looks up a file record.
func (s *MemoryStore) FileByID(ctx context.Context, fileID string) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[fileID]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeFileNotFound, "file not found: %s", fileID)
	}
	cp := *f
	return &cp, nil
}

// SaveElements stores the parsed content and elements for a file.
func (s *MemoryStore) SaveElements(ctx context.Context, fileID string, content string, els []facts.CodeElement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := facts.ValidateElements(els); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[fileID]; !ok {
		return apperrors.New(apperrors.ErrCodeFileNotFound, "file not found: %s", fileID)
	}
	s.details[fileID] = &facts.FileDetails{
		Content:  content,
		Elements: append([]facts.CodeElement(nil), els...),
	}
	return nil
}

// FileDetails returns the stored content and elements for a file.
func (s *MemoryStore) FileDetails(ctx context.Context, fileID string) (*facts.FileDetails, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	fd, ok := s.details[fileID]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeFileNotFound, "no parsed facts for file: %s", fileID)
	}
	return &facts.FileDetails{
		Content:  fd.Content,
		Elements: append([]facts.CodeElement(nil), fd.Elements...),
	}, nil
}

// SaveWorkflows replaces the stored workflows of a project.
func (s *MemoryStore) SaveWorkflows(ctx context.Context, projectID string, ws []facts.Workflow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectID]; !ok {
		return apperrors.New(apperrors.ErrCodeProjectNotFound, "project not found: %s", projectID)
	}
	s.workflows[projectID] = append([]facts.Workflow(nil), ws...)
	return nil
}

// ListWorkflows returns the stored workflows of a project.
func (s *MemoryStore) ListWorkflows(ctx context.Context, projectID string) ([]facts.Workflow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.projects[projectID]; !ok {
		return nil, apperrors.New(apperrors.ErrCodeProjectNotFound, "project not found: %s", projectID)
	}
	return append([]facts.Workflow(nil), s.workflows[projectID]...), nil
}

// ParsingStatus reports per-file element coverage for a project.
func (s *MemoryStore) ParsingStatus(ctx context.Context, projectID string) (*Status, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[projectID]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeProjectNotFound, "project not found: %s", projectID)
	}

	st := &Status{ProjectID: projectID, Parsed: p.Parsed, Files: []FileStatus{}}
	for _, f := range s.files {
		if f.ProjectID != projectID {
			continue
		}
		var els []facts.CodeElement
		if fd, ok := s.details[f.ID]; ok {
			els = fd.Elements
		}
		st.Files = append(st.Files, fileStatus(*f, els))
	}
	sort.Slice(st.Files, func(i, j int) bool { return st.Files[i].Path < st.Files[j].Path })
	return st, nil
}

// Close does nothing for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
