package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	apperrors "github.com/codeatlas/codeatlas/pkg/errors"
	"github.com/codeatlas/codeatlas/pkg/facts"
	"github.com/codeatlas/codeatlas/pkg/observability"
)

// SQLiteStore is the default registry backend: a single-file database
// suitable for per-user CLI state.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	root_path  TEXT NOT NULL,
	parsed     INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id),
	path       TEXT NOT NULL,
	kind       TEXT NOT NULL,
	loc        INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_files_project ON files(project_id);

CREATE TABLE IF NOT EXISTS file_facts (
	file_id  TEXT PRIMARY KEY REFERENCES files(id),
	content  TEXT NOT NULL,
	elements BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS workflows (
	project_id TEXT NOT NULL REFERENCES projects(id),
	name       TEXT NOT NULL,
	payload    BLOB NOT NULL,
	PRIMARY KEY (project_id, name)
);
`

// NewSQLiteStore opens (or creates) the registry database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot open registry database: %s", path)
	}
	// Single writer; concurrent writes otherwise hit SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot initialize registry schema")
	}
	return &SQLiteStore{db: db}, nil
}

// observe reports an operation to the store hooks.
func (s *SQLiteStore) observe(ctx context.Context, op string, start time.Time, err error) {
	observability.Store().OnQuery(ctx, "sqlite", op, time.Since(start), err)
}

// CreateProject registers a project. Names are unique; a missing ID is
// assigned. CreatedAt/UpdatedAt are set if zero.
func (s *SQLiteStore) CreateProject(ctx context.Context, p *Project) (err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "CreateProject", start, err) }()

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

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE name = ?`, p.Name).Scan(&exists)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot check project name: %s", p.Name)
	}
	if exists > 0 {
		return apperrors.New(apperrors.ErrCodeConflict, "project already exists: %s", p.Name)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, root_path, parsed, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.RootPath, boolToInt(p.Parsed),
		p.CreatedAt.Format(time.RFC3339Nano), p.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot create project: %s", p.Name)
	}
	return nil
}

// ProjectByName looks up a project by its unique name.
func (s *SQLiteStore) ProjectByName(ctx context.Context, name string) (p *Project, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "ProjectByName", start, err) }()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, root_path, parsed, created_at, updated_at FROM projects WHERE name = ?`, name)
	p, err = scanProject(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.ErrCodeProjectNotFound, "project not found: %s", name)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot load project: %s", name)
	}
	return p, nil
}

// ListProjects returns all projects sorted by name.
func (s *SQLiteStore) ListProjects(ctx context.Context) (out []Project, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "ListProjects", start, err) }()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, root_path, parsed, created_at, updated_at FROM projects ORDER BY name`)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot list projects")
	}
	defer rows.Close()

	out = []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot scan project row")
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot list projects")
	}
	return out, nil
}

// MarkParsed updates the parsed flag on a project.
func (s *SQLiteStore) MarkParsed(ctx context.Context, projectID string, parsed bool) (err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "MarkParsed", start, err) }()

	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET parsed = ?, updated_at = ? WHERE id = ?`,
		boolToInt(parsed), time.Now().UTC().Format(time.RFC3339Nano), projectID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot update project: %s", projectID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.New(apperrors.ErrCodeProjectNotFound, "project not found: %s", projectID)
	}
	return nil
}

// DeleteProject removes a project with its files, facts, and workflows.
func (s *SQLiteStore) DeleteProject(ctx context.Context, projectID string) (err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "DeleteProject", start, err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot begin transaction")
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM file_facts WHERE file_id IN (SELECT id FROM files WHERE project_id = ?)`,
		projectID); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot delete file facts: %s", projectID)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM files WHERE project_id = ?`, projectID); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot delete files: %s", projectID)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM workflows WHERE project_id = ?`, projectID); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot delete workflows: %s", projectID)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, projectID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot delete project: %s", projectID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.New(apperrors.ErrCodeProjectNotFound, "project not found: %s", projectID)
	}
	if err = tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot commit delete: %s", projectID)
	}
	return nil
}

// UpsertFile inserts or replaces a file record.
func (s *SQLiteStore) UpsertFile(ctx context.Context, f *File) (err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "UpsertFile", start, err) }()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO files (id, project_id, path, kind, loc) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET project_id = excluded.project_id,
			path = excluded.path, kind = excluded.kind, loc = excluded.loc`,
		f.ID, f.ProjectID, f.Path, f.Kind, f.LOC)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot upsert file: %s", f.ID)
	}
	return nil
}

// ListFiles returns the files of a project sorted by path.
func (s *SQLiteStore) ListFiles(ctx context.Context, projectID string) (out []File, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "ListFiles", start, err) }()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, path, kind, loc FROM files WHERE project_id = ? ORDER BY path`, projectID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot list files: %s", projectID)
	}
	defer rows.Close()

	out = []File{}
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.Path, &f.Kind, &f.LOC); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot scan file row")
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot list files: %s", projectID)
	}
	return out, nil
}

// FileByID looks up a file record.
func (s *SQLiteStore) FileByID(ctx context.Context, fileID string) (f *File, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "FileByID", start, err) }()

	f = &File{}
	err = s.db.QueryRowContext(ctx,
		`SELECT id, project_id, path, kind, loc FROM files WHERE id = ?`, fileID).
		Scan(&f.ID, &f.ProjectID, &f.Path, &f.Kind, &f.LOC)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.ErrCodeFileNotFound, "file not found: %s", fileID)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot load file: %s", fileID)
	}
	return f, nil
}

// SaveElements stores the parsed content and elements for a file.
// Elements are stored as one JSON blob; they are always read back whole.
func (s *SQLiteStore) SaveElements(ctx context.Context, fileID string, content string, els []facts.CodeElement) (err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "SaveElements", start, err) }()

	if err = facts.ValidateElements(els); err != nil {
		return err
	}
	if _, err = s.FileByID(ctx, fileID); err != nil {
		return err
	}

	blob, err := json.Marshal(els)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot encode elements: %s", fileID)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO file_facts (file_id, content, elements) VALUES (?, ?, ?)
		ON CONFLICT(file_id) DO UPDATE SET content = excluded.content, elements = excluded.elements`,
		fileID, content, blob)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot save elements: %s", fileID)
	}
	return nil
}

// FileDetails returns the stored content and elements for a file.
func (s *SQLiteStore) FileDetails(ctx context.Context, fileID string) (fd *facts.FileDetails, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "FileDetails", start, err) }()

	var content string
	var blob []byte
	err = s.db.QueryRowContext(ctx,
		`SELECT content, elements FROM file_facts WHERE file_id = ?`, fileID).
		Scan(&content, &blob)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.ErrCodeFileNotFound, "no parsed facts for file: %s", fileID)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot load facts: %s", fileID)
	}

	var els []facts.CodeElement
	if err := json.Unmarshal(blob, &els); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot decode elements: %s", fileID)
	}
	return &facts.FileDetails{Content: content, Elements: els}, nil
}

// SaveWorkflows replaces the stored workflows of a project.
func (s *SQLiteStore) SaveWorkflows(ctx context.Context, projectID string, ws []facts.Workflow) (err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "SaveWorkflows", start, err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM workflows WHERE project_id = ?`, projectID); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot clear workflows: %s", projectID)
	}
	for _, w := range ws {
		payload, err := json.Marshal(w)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot encode workflow: %s", w.Name)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO workflows (project_id, name, payload) VALUES (?, ?, ?)`,
			projectID, w.Name, payload); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot save workflow: %s", w.Name)
		}
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot commit workflows: %s", projectID)
	}
	return nil
}

// ListWorkflows returns the stored workflows of a project sorted by name.
func (s *SQLiteStore) ListWorkflows(ctx context.Context, projectID string) (out []facts.Workflow, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "ListWorkflows", start, err) }()

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM workflows WHERE project_id = ? ORDER BY name`, projectID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot list workflows: %s", projectID)
	}
	defer rows.Close()

	out = []facts.Workflow{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot scan workflow row")
		}
		var w facts.Workflow
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot decode workflow")
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot list workflows: %s", projectID)
	}
	return out, nil
}

// ParsingStatus reports per-file element coverage for a project.
func (s *SQLiteStore) ParsingStatus(ctx context.Context, projectID string) (st *Status, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "ParsingStatus", start, err) }()

	var parsed int
	err = s.db.QueryRowContext(ctx, `SELECT parsed FROM projects WHERE id = ?`, projectID).Scan(&parsed)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.ErrCodeProjectNotFound, "project not found: %s", projectID)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "cannot load project: %s", projectID)
	}

	files, err := s.ListFiles(ctx, projectID)
	if err != nil {
		return nil, err
	}

	st = &Status{ProjectID: projectID, Parsed: parsed != 0, Files: []FileStatus{}}
	for _, f := range files {
		var els []facts.CodeElement
		if fd, err := s.FileDetails(ctx, f.ID); err == nil {
			els = fd.Elements
		} else if !apperrors.Is(err, apperrors.ErrCodeFileNotFound) {
			return nil, err
		}
		st.Files = append(st.Files, fileStatus(f, els))
	}
	return st, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// scanProject reads a project row from either *sql.Row or *sql.Rows.
func scanProject(row interface{ Scan(...any) error }) (*Project, error) {
	var p Project
	var parsed int
	var created, updated string
	if err := row.Scan(&p.ID, &p.Name, &p.RootPath, &parsed, &created, &updated); err != nil {
		return nil, err
	}
	p.Parsed = parsed != 0
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return &p, nil
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
