// Package ingest loads parser output into the registry.
//
// The parser (a separate tool) writes its results as a directory:
//
//	<dir>/project.json      project name, root path, and file manifest
//	<dir>/files/<id>.json   per-file content and elements
//	<dir>/workflows.json    call traces per workflow (optional)
//
// The Loader walks the manifest, decodes each file payload, and stores it.
// Files whose content hash matches a previous ingest are skipped via the
// cache, so re-running ingest after a partial parse is cheap.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/codeatlas/codeatlas/pkg/cache"
	apperrors "github.com/codeatlas/codeatlas/pkg/errors"
	"github.com/codeatlas/codeatlas/pkg/facts"
	"github.com/codeatlas/codeatlas/pkg/registry"
)

// DefaultConcurrency bounds the per-file fan-out.
const DefaultConcurrency = 8

// Manifest is the shape of <dir>/project.json.
type Manifest struct {
	Name     string         `json:"name"`
	RootPath string         `json:"root_path"`
	Files    []ManifestFile `json:"files"`
}

// ManifestFile is one file entry in the manifest.
type ManifestFile struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	Kind string `json:"kind"`
	LOC  int    `json:"loc"`
}

// Report summarizes one ingest run.
type Report struct {
	JobID     string        `json:"job_id"`
	Project   string        `json:"project"`
	Files     int           `json:"files"`
	Skipped   int           `json:"skipped"`
	Elements  int           `json:"elements"`
	Workflows int           `json:"workflows"`
	Duration  time.Duration `json:"duration"`
}

// Loader ingests a parser output directory into a registry store.
type Loader struct {
	Store       registry.Store
	Cache       cache.Cache
	Keyer       cache.Keyer
	Logger      *log.Logger
	Concurrency int
}

// NewLoader creates a loader. Nil cache disables the content-hash skip;
// nil logger discards output.
func NewLoader(store registry.Store, c cache.Cache, logger *log.Logger) *Loader {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Loader{
		Store:       store,
		Cache:       c,
		Keyer:       cache.NewDefaultKeyer(),
		Logger:      logger,
		Concurrency: DefaultConcurrency,
	}
}

// Run ingests the parser output at dir.
func (l *Loader) Run(ctx context.Context, dir string) (*Report, error) {
	start := time.Now()
	jobID := uuid.NewString()
	logger := l.Logger.With("job", jobID)

	manifest, err := readManifest(filepath.Join(dir, "project.json"))
	if err != nil {
		return nil, err
	}
	if manifest.Name == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidManifest, "manifest has no project name: %s", dir)
	}

	project, err := l.ensureProject(ctx, manifest)
	if err != nil {
		return nil, err
	}
	logger.Info("ingesting project", "project", project.Name, "files", len(manifest.Files))

	var skipped, elements atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	concurrency := l.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	g.SetLimit(concurrency)

	for _, mf := range manifest.Files {
		g.Go(func() error {
			n, skip, err := l.ingestFile(gctx, dir, project.ID, mf)
			if err != nil {
				return err
			}
			if skip {
				skipped.Add(1)
			}
			elements.Add(int64(n))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	workflows, err := l.ingestWorkflows(ctx, dir, project.ID)
	if err != nil {
		return nil, err
	}

	if err := l.Store.MarkParsed(ctx, project.ID, true); err != nil {
		return nil, err
	}

	report := &Report{
		JobID:     jobID,
		Project:   project.Name,
		Files:     len(manifest.Files),
		Skipped:   int(skipped.Load()),
		Elements:  int(elements.Load()),
		Workflows: workflows,
		Duration:  time.Since(start),
	}
	logger.Info("ingest complete",
		"files", report.Files,
		"skipped", report.Skipped,
		"elements", report.Elements,
		"workflows", report.Workflows,
		"duration", report.Duration)
	return report, nil
}

// ensureProject reuses an existing project of the same name or registers
// a new one.
func (l *Loader) ensureProject(ctx context.Context, m *Manifest) (*registry.Project, error) {
	p, err := l.Store.ProjectByName(ctx, m.Name)
	if err == nil {
		return p, nil
	}
	if !apperrors.Is(err, apperrors.ErrCodeProjectNotFound) {
		return nil, err
	}

	p = &registry.Project{Name: m.Name, RootPath: m.RootPath}
	if err := l.Store.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ingestFile stores one file's record and facts. Returns the element
// count and whether the facts were skipped as unchanged.
func (l *Loader) ingestFile(ctx context.Context, dir, projectID string, mf ManifestFile) (int, bool, error) {
	if mf.ID == "" {
		return 0, false, apperrors.New(apperrors.ErrCodeInvalidManifest, "manifest file entry has no id: %s", mf.Path)
	}

	if err := l.Store.UpsertFile(ctx, &registry.File{
		ID:        mf.ID,
		ProjectID: projectID,
		Path:      mf.Path,
		Kind:      mf.Kind,
		LOC:       mf.LOC,
	}); err != nil {
		return 0, false, err
	}

	path := filepath.Join(dir, "files", mf.ID+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Manifest entry without a payload: registered but unparsed
			l.Logger.Warn("no facts payload for file", "file", mf.ID)
			return 0, false, nil
		}
		return 0, false, apperrors.Wrap(apperrors.ErrCodeInvalidManifest, err, "cannot read facts payload: %s", path)
	}

	// Unchanged payloads were stored by a previous run
	key := l.Keyer.FactsKey(mf.ID, cache.FactsKeyOpts{ContentHash: cache.Hash(raw)})
	if _, hit, err := l.Cache.Get(ctx, key); err == nil && hit {
		return 0, true, nil
	}

	var fd facts.FileDetails
	if err := json.Unmarshal(raw, &fd); err != nil {
		return 0, false, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "cannot decode facts payload: %s", path)
	}
	if err := l.Store.SaveElements(ctx, mf.ID, fd.Content, fd.Elements); err != nil {
		return 0, false, err
	}

	if err := l.Cache.Set(ctx, key, []byte("1"), cache.TTLFacts); err != nil {
		// Cache failures only cost a re-ingest next time
		l.Logger.Warn("cannot record facts hash", "file", mf.ID, "err", err)
	}
	return len(fd.Elements), false, nil
}

// ingestWorkflows stores workflows.json if present. Returns the workflow count.
func (l *Loader) ingestWorkflows(ctx context.Context, dir, projectID string) (int, error) {
	path := filepath.Join(dir, "workflows.json")
	ws, err := facts.ReadWorkflows(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "cannot read workflows: %s", path)
	}
	if err := l.Store.SaveWorkflows(ctx, projectID, ws); err != nil {
		return 0, err
	}
	return len(ws), nil
}

// readManifest decodes <dir>/project.json.
func readManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidManifest, err, "cannot read manifest: %s", path)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidManifest, err, "cannot parse manifest: %s", path)
	}
	return &m, nil
}

// WriteManifest encodes a manifest, mostly for tests and fixtures.
func WriteManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
