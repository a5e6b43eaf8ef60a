// Package pkg provides the core libraries for xsheet, an exporter that turns
// a layered 2D animation document into numbered cel images plus an XDTS
// exposure sheet.
//
// # Overview
//
// An animator keys drawings on a timeline; a compositing tool needs every
// distinct drawing once and a sheet saying how long each one is held. The
// pkg directory is organized into these areas:
//
//  1. [document] - The layer tree, keyframe tracks and frame ranges
//  2. [walker] - Which layers become export units
//  3. [exposure] - Frame to cel mapping and change points
//  4. [plan] - Unit names, cel numbers and file paths
//  5. [render] - Producing the images, sequentially or in parallel
//  6. [xdts] - The exchangeDigitalTimeSheet writer
//  7. [pipeline] - Orchestration (plan → prepare → render → sheet)
//
// # Architecture
//
// The typical data flow through xsheet:
//
//	Document snapshot (.json, .yaml, .toml)
//	         ↓
//	    [io] package (decode + link the layer tree)
//	         ↓
//	    [walker] package (select units)
//	         ↓
//	    [plan] package (exposure, numbering, naming)
//	         ↓
//	    [render] package (cel images)  +  [xdts] package (sheet)
//
// # Quick Start
//
//	doc, _ := io.ImportDocument("walk.json")
//	opts := pipeline.DefaultOptions()
//	opts.ExportDir = "out"
//	res, err := pipeline.NewRunner(nil, nil, nil).Execute(ctx, doc, opts)
//	// out/Walk/Walk.xdts, out/Walk/Line/Line_0001.png, ...
//
// # Main Packages
//
// [errors] - Coded errors shared by every package. The CLI prints
// [errors.UserMessage] and tests match on codes with [errors.Is].
//
// [observability] - Hooks for plan, render and sheet events, no-op unless
// a consumer registers its own.
//
// [render/tree] - Graphviz diagrams of the walker's decisions, for
// debugging layer selection.
//
// [buildinfo] - Version information injected at build time.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/plan/...               # Specific package
//	go test -run Example ./pkg/...       # Examples only
package pkg
