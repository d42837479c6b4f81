// Package registry stores projects, files, parsed elements, and workflow
// traces produced by the parser. It is the load edge of the visualization
// pipeline: everything downstream (structure, trace, render) is pure.
//
// Backends:
//   - SQLiteStore: default, single-file database for CLI usage
//   - MongoStore: shared store for server deployments
//   - MemoryStore: tests and development
package registry

import (
	"context"
	"time"

	"github.com/codeatlas/codeatlas/pkg/facts"
)

// Project is a registered codebase.
type Project struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	RootPath  string    `json:"root_path" bson:"root_path"`
	Parsed    bool      `json:"parsed" bson:"parsed"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// File is a source file within a project.
type File struct {
	ID        string `json:"id" bson:"_id"`
	ProjectID string `json:"project_id" bson:"project_id"`
	Path      string `json:"path" bson:"path"`
	Kind      string `json:"kind" bson:"kind"`
	LOC       int    `json:"loc" bson:"loc"`
}

// FileStatus reports element coverage for one file.
type FileStatus struct {
	FileID   string  `json:"file_id" bson:"file_id"`
	Path     string  `json:"path" bson:"path"`
	LOC      int     `json:"loc" bson:"loc"`
	Covered  int     `json:"covered" bson:"covered"`
	Coverage float64 `json:"coverage" bson:"coverage"`
}

// Status reports parsing state for a project.
type Status struct {
	ProjectID string       `json:"project_id" bson:"project_id"`
	Parsed    bool         `json:"parsed" bson:"parsed"`
	Files     []FileStatus `json:"files" bson:"files"`
}

// Store is the registry persistence interface.
type Store interface {
	// Projects
	CreateProject(ctx context.Context, p *Project) error
	ProjectByName(ctx context.Context, name string) (*Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	MarkParsed(ctx context.Context, projectID string, parsed bool) error
	DeleteProject(ctx context.Context, projectID string) error

	// Files
	UpsertFile(ctx context.Context, f *File) error
	ListFiles(ctx context.Context, projectID string) ([]File, error)
	FileByID(ctx context.Context, fileID string) (*File, error)

	// Parsed facts
	SaveElements(ctx context.Context, fileID string, content string, els []facts.CodeElement) error
	FileDetails(ctx context.Context, fileID string) (*facts.FileDetails, error)

	// Workflows
	SaveWorkflows(ctx context.Context, projectID string, ws []facts.Workflow) error
	ListWorkflows(ctx context.Context, projectID string) ([]facts.Workflow, error)

	// Status
	ParsingStatus(ctx context.Context, projectID string) (*Status, error)

	Close() error
}
