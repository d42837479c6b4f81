// Package pkg provides the core libraries for CodeAtlas code visualization.
//
// # Overview
//
// CodeAtlas turns parsed source facts into visual maps: per-file structure
// layouts with line annotations, and per-workflow call-flow diagrams that
// span frontend and backend traces. The pkg directory is organized into
// four main areas:
//
//  1. Domain logic - [facts], [structure], [trace], [viewport], [viz]
//  2. Infrastructure - [registry], [cache], [selection], [observability]
//  3. Edges - [ingest], [server], [render]
//  4. Orchestration - [pipeline]
//
// # Architecture
//
// The typical data flow through CodeAtlas:
//
//	Parser output (manifest + element payloads + traces)
//	         ↓
//	    [ingest] package (load into the registry)
//	         ↓
//	    [registry] package (projects, files, facts, workflows)
//	         ↓
//	    [structure] / [trace] packages (pure layout)
//	         ↓
//	    [viewport] + [viz] packages (fit + serialization format)
//	         ↓
//	    [render] package (SVG/DOT/PNG/JSON output)
//
// Everything downstream of the registry is pure and deterministic: the same
// facts always yield bit-identical layouts.
//
// # Quick Start
//
// Build and render a structure layout for one file:
//
//	import (
//	    "context"
//	    "github.com/codeatlas/codeatlas/pkg/pipeline"
//	    "github.com/codeatlas/codeatlas/pkg/registry"
//	)
//
//	store, _ := registry.NewSQLiteStore(context.Background(), "registry.db")
//	runner := pipeline.NewRunner(store, nil, nil, nil)
//
//	layout, _, _ := runner.BuildStructure(context.Background(), "main-py", pipeline.Options{})
//	artifacts, _ := runner.Render(context.Background(), layout, pipeline.Options{
//	    Formats: []string{pipeline.FormatSVG},
//	})
//
// The pipeline Runner handles caching, observability hooks, and the
// load → layout → fit → render sequencing.
package pkg
