package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"

	"github.com/codeatlas/codeatlas/pkg/cache"
	apperrors "github.com/codeatlas/codeatlas/pkg/errors"
	"github.com/codeatlas/codeatlas/pkg/facts"
	"github.com/codeatlas/codeatlas/pkg/observability"
	"github.com/codeatlas/codeatlas/pkg/registry"
	"github.com/codeatlas/codeatlas/pkg/structure"
	"github.com/codeatlas/codeatlas/pkg/trace"
	"github.com/codeatlas/codeatlas/pkg/viewport"
	"github.com/codeatlas/codeatlas/pkg/viz"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for its collaborators - it doesn't store
// pipeline results. Multiple goroutines can safely use the same Runner
// with different options.
type Runner struct {
	Store  registry.Store
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner over a registry store.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(store registry.Store, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Store:  store,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// BuildStructure runs load → compose → layout → annotate → fit for one file.
func (r *Runner) BuildStructure(ctx context.Context, fileID string, opts Options) (viz.Layout, *Stats, error) {
	l, stats, _, err := r.BuildStructureWithCacheInfo(ctx, fileID, opts)
	return l, stats, err
}

// BuildStructureWithCacheInfo is BuildStructure plus load cache hit info.
func (r *Runner) BuildStructureWithCacheInfo(ctx context.Context, fileID string, opts Options) (viz.Layout, *Stats, CacheInfo, error) {
	var info CacheInfo
	stats := &Stats{}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return viz.Layout{}, stats, info, err
	}
	if err := apperrors.ValidateFileID(fileID); err != nil {
		return viz.Layout{}, stats, info, err
	}

	loadStart := time.Now()
	observability.Pipeline().OnLoadStart(ctx, "file", fileID)
	fd, hit, err := r.loadFileDetails(ctx, fileID, opts.Refresh)
	stats.LoadTime = time.Since(loadStart)
	observability.Pipeline().OnLoadComplete(ctx, "file", fileID, elementCount(fd), stats.LoadTime, err)
	if err != nil {
		return viz.Layout{}, stats, info, err
	}
	info.LoadHit = hit

	layoutStart := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, viz.VizTypeStructure, len(fd.Elements))
	forest := structure.Compose(fd.Elements)
	plan, err := structure.Layout(forest, opts.Structure)
	if err != nil {
		observability.Pipeline().OnLayoutComplete(ctx, viz.VizTypeStructure, time.Since(layoutStart), err)
		return viz.Layout{}, stats, info, err
	}
	lines := structure.Annotate(forest)
	fit := viewport.Fit(planBounds(plan), opts.Width, opts.Height, opts.Viewport)
	layout := viz.ExportStructure(plan, lines, fit)
	stats.LayoutTime = time.Since(layoutStart)
	stats.NodeCount = forest.Count()
	observability.Pipeline().OnLayoutComplete(ctx, viz.VizTypeStructure, stats.LayoutTime, nil)

	r.Logger.Debug("built structure layout",
		"file", fileID,
		"elements", stats.NodeCount,
		"blocks", len(layout.Blocks),
		"duration", stats.LayoutTime)
	return layout, stats, info, nil
}

// BuildTrace runs load → normalize → layout → fit for one workflow.
func (r *Runner) BuildTrace(ctx context.Context, projectName, workflowName string, opts Options) (viz.Layout, *Stats, error) {
	stats := &Stats{}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return viz.Layout{}, stats, err
	}

	loadStart := time.Now()
	observability.Pipeline().OnLoadStart(ctx, "workflow", workflowName)
	w, err := r.loadWorkflow(ctx, projectName, workflowName)
	stats.LoadTime = time.Since(loadStart)
	observability.Pipeline().OnLoadComplete(ctx, "workflow", workflowName, 0, stats.LoadTime, err)
	if err != nil {
		return viz.Layout{}, stats, err
	}

	layoutStart := time.Now()
	diagram := trace.Normalize(*w)
	observability.Pipeline().OnLayoutStart(ctx, viz.VizTypeTrace, diagram.Count())
	if err := trace.Layout(diagram, opts.Trace); err != nil {
		observability.Pipeline().OnLayoutComplete(ctx, viz.VizTypeTrace, time.Since(layoutStart), err)
		return viz.Layout{}, stats, err
	}
	fit := viewport.Fit(diagramBounds(diagram, opts.Trace), opts.Width, opts.Height, opts.Viewport)
	layout := viz.ExportTrace(diagram, fit)
	stats.LayoutTime = time.Since(layoutStart)
	stats.NodeCount = diagram.Count()
	observability.Pipeline().OnLayoutComplete(ctx, viz.VizTypeTrace, stats.LayoutTime, nil)

	r.Logger.Debug("built trace layout",
		"workflow", workflowName,
		"nodes", stats.NodeCount,
		"duration", stats.LayoutTime)
	return layout, stats, nil
}

// loadFileDetails fetches a file's parsed facts, reusing the decoded
// payload from cache when possible.
func (r *Runner) loadFileDetails(ctx context.Context, fileID string, refresh bool) (*facts.FileDetails, bool, error) {
	key := r.Keyer.FactsKey(fileID, cache.FactsKeyOpts{})

	if !refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var fd facts.FileDetails
			if err := json.Unmarshal(data, &fd); err == nil {
				observability.Cache().OnCacheHit(ctx, "facts")
				return &fd, true, nil
			}
			// Corrupt entry: fall through to the store
			_ = r.Cache.Delete(ctx, key)
		}
		observability.Cache().OnCacheMiss(ctx, "facts")
	}

	fd, err := r.Store.FileDetails(ctx, fileID)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(fd); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLFacts); err == nil {
			observability.Cache().OnCacheSet(ctx, "facts", len(data))
		}
	}
	return fd, false, nil
}

// loadWorkflow resolves a workflow by name within a project.
func (r *Runner) loadWorkflow(ctx context.Context, projectName, workflowName string) (*facts.Workflow, error) {
	p, err := r.Store.ProjectByName(ctx, projectName)
	if err != nil {
		return nil, err
	}
	ws, err := r.Store.ListWorkflows(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	for i := range ws {
		if ws[i].Name == workflowName {
			return &ws[i], nil
		}
	}
	return nil, apperrors.New(apperrors.ErrCodeWorkflowNotFound, "workflow not found: %s/%s", projectName, workflowName)
}

// planBounds collects the extent of every placed block.
func planBounds(plan *structure.Plan) viewport.Bounds {
	b := viewport.NewBounds()
	plan.Walk(func(n *structure.Node) {
		b.AddRect(n.X, n.Y, n.Width, n.Height)
	})
	return b
}

// diagramBounds collects the extent of every node box. Trace coordinates
// put the depth axis on Y and the cross axis on X.
func diagramBounds(d *trace.Diagram, opts trace.Options) viewport.Bounds {
	b := viewport.NewBounds()
	for _, n := range d.Nodes() {
		b.AddRect(n.Y-opts.NodeWidth/2, n.X-opts.NodeHeight/2, opts.NodeWidth, opts.NodeHeight)
	}
	return b
}

func elementCount(fd *facts.FileDetails) int {
	if fd == nil {
		return 0
	}
	return len(fd.Elements)
}
