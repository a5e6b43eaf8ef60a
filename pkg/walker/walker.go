// Package walker traverses a document's layer tree and selects the nodes that
// become export units.
//
// Traversal is depth-first in stacking order. Groups containing animation are
// collapsed into one candidate when flattening is enabled; otherwise their
// paint layers are emitted individually. Reference markers and their subtrees
// are never emitted.
package walker

import (
	"github.com/matzehuels/xsheet/pkg/document"
	"github.com/matzehuels/xsheet/pkg/exposure"
)

// Filter selects which layers qualify for export.
type Filter struct {
	IncludeInvisible      bool
	IncludeReference      bool
	IncludeStatic         bool
	FlattenAnimatedGroups bool
}

// DefaultFilter returns the default filter: visible, non-reference, animated
// layers only, with animated groups flattened.
func DefaultFilter() Filter {
	return Filter{FlattenAnimatedGroups: true}
}

// Status explains what the walker decided for one node.
type Status int

const (
	// StatusExported marks a paint layer emitted as an animated candidate.
	StatusExported Status = iota
	// StatusStatic marks a static paint layer emitted as a standalone image.
	StatusStatic
	// StatusFlattened marks a group emitted as one animated candidate.
	StatusFlattened
	// StatusAbsorbed marks a paint layer rendered as part of a flattened group.
	StatusAbsorbed
	// StatusDescended marks a group whose children were examined individually.
	StatusDescended
	// StatusHidden marks a node excluded because it or an ancestor is invisible.
	StatusHidden
	// StatusReference marks a node excluded because of its grey label.
	StatusReference
	// StatusMarker marks a reference marker; its subtree is never visited.
	StatusMarker
	// StatusSkippedStatic marks a static paint layer left out of the export.
	StatusSkippedStatic
	// StatusEmpty marks a group without qualifying content.
	StatusEmpty
)

var statusNames = map[Status]string{
	StatusExported:      "exported",
	StatusStatic:        "static",
	StatusFlattened:     "flattened",
	StatusAbsorbed:      "absorbed",
	StatusDescended:     "descended",
	StatusHidden:        "hidden",
	StatusReference:     "reference",
	StatusMarker:        "marker",
	StatusSkippedStatic: "static-skipped",
	StatusEmpty:         "empty",
}

func (s Status) String() string { return statusNames[s] }

// Included reports whether the node contributes pixels to some export unit.
func (s Status) Included() bool {
	switch s {
	case StatusExported, StatusStatic, StatusFlattened, StatusAbsorbed:
		return true
	}
	return false
}

// Candidate is a node eligible for export.
type Candidate struct {
	// Layer is the paint layer, or the group for flattened candidates.
	Layer *document.Layer
	// Layers are the paint layers whose pixels make up the candidate,
	// top-most first and without duplicates.
	Layers []*document.Layer
	// Animated is false for static standalone images.
	Animated bool
	// Flattened is true when Layer is a group collapsed into one unit.
	Flattened bool
}

// Keyframes returns the keyframe positions driving the candidate: the
// layer's own track or the sorted union over a flattened group's layers.
func (c Candidate) Keyframes() []int {
	tracks := make([][]int, 0, len(c.Layers))
	for _, l := range c.Layers {
		tracks = append(tracks, l.Track.Frames())
	}
	return exposure.Union(tracks...)
}

// Decision records the walker's verdict for one visited node.
type Decision struct {
	Layer  *document.Layer
	Depth  int
	Status Status
}

// Result is the outcome of a walk.
type Result struct {
	Candidates []Candidate
	// Decisions lists every node of the tree in traversal order, including
	// nodes that were skipped, for diagnostics.
	Decisions []Decision
}

// Animated returns the animated candidates in traversal order.
func (r Result) Animated() []Candidate {
	var out []Candidate
	for _, c := range r.Candidates {
		if c.Animated {
			out = append(out, c)
		}
	}
	return out
}

// Walk traverses doc and returns the export candidates. doc must have been
// linked with [document.Document.Link].
func Walk(doc *document.Document, f Filter) Result {
	w := &walk{filter: f}
	w.layers(doc.Layers, 0)
	return w.result
}

type walk struct {
	filter Filter
	result Result
}

func (w *walk) decide(l *document.Layer, depth int, s Status) {
	w.result.Decisions = append(w.result.Decisions, Decision{Layer: l, Depth: depth, Status: s})
}

func (w *walk) layers(layers []*document.Layer, depth int) {
	for _, l := range layers {
		w.node(l, depth)
	}
}

// excluded returns the status for a node rejected by the visibility or
// reference filters, or false when it passes.
func (w *walk) excluded(l *document.Layer) (Status, bool) {
	if !w.filter.IncludeInvisible && l.Hidden() {
		return StatusHidden, true
	}
	if !w.filter.IncludeReference && l.Reference() {
		return StatusReference, true
	}
	return 0, false
}

func (w *walk) node(l *document.Layer, depth int) {
	if l.IsReferenceMarker() {
		w.decide(l, depth, StatusMarker)
		w.skipSubtree(l.Children, depth+1, StatusMarker)
		return
	}
	if s, ok := w.excluded(l); ok {
		w.decide(l, depth, s)
		w.skipSubtree(l.Children, depth+1, s)
		return
	}

	switch l.Kind {
	case document.KindGroup:
		w.group(l, depth)
	case document.KindPaint:
		w.paint(l, depth)
	}
}

func (w *walk) group(g *document.Layer, depth int) {
	if w.filter.FlattenAnimatedGroups {
		layers := w.qualifying(g.Children)
		if anyAnimated(layers) {
			w.result.Candidates = append(w.result.Candidates, Candidate{
				Layer:     g,
				Layers:    layers,
				Animated:  true,
				Flattened: true,
			})
			w.decide(g, depth, StatusFlattened)
			w.absorb(g.Children, depth+1)
			return
		}
	}

	before := len(w.result.Candidates)
	idx := len(w.result.Decisions)
	w.decide(g, depth, StatusDescended)
	w.layers(g.Children, depth+1)
	if len(w.result.Candidates) == before {
		w.result.Decisions[idx].Status = StatusEmpty
	}
}

func (w *walk) paint(l *document.Layer, depth int) {
	if l.IsAnimated() {
		w.result.Candidates = append(w.result.Candidates, Candidate{
			Layer:    l,
			Layers:   []*document.Layer{l},
			Animated: true,
		})
		w.decide(l, depth, StatusExported)
		return
	}
	if !w.filter.IncludeStatic {
		w.decide(l, depth, StatusSkippedStatic)
		return
	}
	w.result.Candidates = append(w.result.Candidates, Candidate{
		Layer:  l,
		Layers: []*document.Layer{l},
	})
	w.decide(l, depth, StatusStatic)
}

// qualifying collects the paint layers below layers that pass the filters,
// in traversal order.
func (w *walk) qualifying(layers []*document.Layer) []*document.Layer {
	var out []*document.Layer
	seen := make(map[*document.Layer]bool)
	var visit func([]*document.Layer)
	visit = func(ls []*document.Layer) {
		for _, l := range ls {
			if l.IsReferenceMarker() {
				continue
			}
			if _, ok := w.excluded(l); ok {
				continue
			}
			if l.Kind == document.KindPaint && !seen[l] {
				seen[l] = true
				out = append(out, l)
			}
			visit(l.Children)
		}
	}
	visit(layers)
	return out
}

// absorb records decisions for the subtree of a flattened group.
func (w *walk) absorb(layers []*document.Layer, depth int) {
	for _, l := range layers {
		if l.IsReferenceMarker() {
			w.decide(l, depth, StatusMarker)
			w.skipSubtree(l.Children, depth+1, StatusMarker)
			continue
		}
		if s, ok := w.excluded(l); ok {
			w.decide(l, depth, s)
			w.skipSubtree(l.Children, depth+1, s)
			continue
		}
		if l.Kind == document.KindGroup {
			w.decide(l, depth, StatusDescended)
		} else {
			w.decide(l, depth, StatusAbsorbed)
		}
		w.absorb(l.Children, depth+1)
	}
}

func (w *walk) skipSubtree(layers []*document.Layer, depth int, s Status) {
	for _, l := range layers {
		w.decide(l, depth, s)
		w.skipSubtree(l.Children, depth+1, s)
	}
}

func anyAnimated(layers []*document.Layer) bool {
	for _, l := range layers {
		if l.IsAnimated() {
			return true
		}
	}
	return false
}
