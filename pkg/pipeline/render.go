package pipeline

import (
	"context"
	"time"

	"github.com/codeatlas/codeatlas/pkg/cache"
	apperrors "github.com/codeatlas/codeatlas/pkg/errors"
	"github.com/codeatlas/codeatlas/pkg/observability"
	"github.com/codeatlas/codeatlas/pkg/render/blocks"
	"github.com/codeatlas/codeatlas/pkg/render/flow"
	"github.com/codeatlas/codeatlas/pkg/viz"
)

// Render generates artifacts for every requested format.
func (r *Runner) Render(ctx context.Context, l viz.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
}

// RenderWithCacheInfo renders with artifact caching and reports whether
// every artifact came from cache. Artifacts are keyed by the hash of the
// serialized layout, so a re-render of an unchanged layout is free.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l viz.Layout, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)

	layoutData, err := viz.MarshalLayout(l)
	if err != nil {
		observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
		return nil, false, err
	}
	layoutHash := cache.Hash(layoutData)

	artifacts := make(map[string][]byte, len(opts.Formats))
	allHit := true
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))

		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[format] = data
				continue
			}
			observability.Cache().OnCacheMiss(ctx, "artifact")
		}
		allHit = false

		data, err := r.renderFormat(ctx, l, format, layoutData)
		if err != nil {
			observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
			return nil, false, err
		}
		artifacts[format] = data

		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	if len(opts.Formats) == 0 {
		allHit = false
	}

	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
	r.Logger.Debug("rendered outputs", "formats", opts.Formats, "duration", time.Since(start))
	return artifacts, allHit, nil
}

// renderFormat dispatches one format to the matching sink.
func (r *Runner) renderFormat(ctx context.Context, l viz.Layout, format string, layoutData []byte) ([]byte, error) {
	switch format {
	case FormatJSON:
		return layoutData, nil

	case FormatSVG:
		if l.IsTrace() {
			return flow.SVG(l)
		}
		return blocks.SVG(l, blocks.WithLineGutter())

	case FormatDOT:
		dot, err := flow.DOT(l)
		if err != nil {
			return nil, err
		}
		return []byte(dot), nil

	case FormatPNG:
		if !l.IsTrace() {
			return nil, apperrors.New(apperrors.ErrCodeUnsupported, "png rendering is only available for trace layouts")
		}
		data, err := flow.PNG(ctx, l)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeRender, err, "cannot rasterize trace")
		}
		return data, nil

	default:
		return nil, apperrors.New(apperrors.ErrCodeInvalidFormat, "invalid format: %q", format)
	}
}
