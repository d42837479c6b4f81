package flow

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/codeatlas/codeatlas/pkg/viz"
)

// PNG rasterizes the DOT rendering of a trace layout using Graphviz.
func PNG(ctx context.Context, l viz.Layout) ([]byte, error) {
	dot, err := DOT(l)
	if err != nil {
		return nil, err
	}
	return renderDOT(ctx, dot, graphviz.PNG)
}

// GraphvizSVG renders the DOT form through Graphviz instead of the
// position-faithful [SVG] sink. Useful when Graphviz edge routing is
// preferred over the computed layout.
func GraphvizSVG(ctx context.Context, l viz.Layout) ([]byte, error) {
	dot, err := DOT(l)
	if err != nil {
		return nil, err
	}
	return renderDOT(ctx, dot, graphviz.SVG)
}

func renderDOT(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
