package document

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsortedKeyframes is returned by [Document.Link] when a track's
	// keyframes are not strictly increasing.
	ErrUnsortedKeyframes = errors.New("keyframes must be strictly increasing")

	// ErrNegativeKeyframe is returned by [Document.Link] when a keyframe sits
	// before frame 0.
	ErrNegativeKeyframe = errors.New("keyframe position must not be negative")

	// ErrChildrenOnLeaf is returned by [Document.Link] when a non-group layer
	// has children.
	ErrChildrenOnLeaf = errors.New("only group layers may have children")

	// ErrTrackOnGroup is returned by [Document.Link] when a group layer
	// carries its own animation track.
	ErrTrackOnGroup = errors.New("group layers cannot carry keyframes")

	// ErrInvalidRange is returned by [Document.Link] when a frame range ends
	// before it starts or starts before frame 0.
	ErrInvalidRange = errors.New("invalid frame range")

	// ErrSharedLayer is returned by [Document.Link] when the same layer value
	// appears twice in the tree.
	ErrSharedLayer = errors.New("layer appears more than once in the tree")
)

// Light table names used by hosts that mark guide layers by name instead of
// by layer type.
const (
	LightTableName   = "Light Table"
	LightTablePrefix = "LT_"
)

// Kind classifies a node of the layer tree.
type Kind int

const (
	// KindPaint is a raster layer that can carry an animation track.
	KindPaint Kind = iota
	// KindGroup is a container owning an ordered list of child layers.
	KindGroup
	// KindReferenceMarker is an artist guide that is never exported.
	KindReferenceMarker
)

var kindNames = map[Kind]string{
	KindPaint:           "paint",
	KindGroup:           "group",
	KindReferenceMarker: "reference_marker",
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a wire name to a Kind. The empty string means paint.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "paint", "paintlayer":
		return KindPaint, nil
	case "group", "grouplayer":
		return KindGroup, nil
	case "reference_marker", "reference-marker", "marker":
		return KindReferenceMarker, nil
	default:
		return 0, fmt.Errorf("unknown layer kind %q", s)
	}
}

// ColorLabel is the host's color tag on a layer.
// 0=none, 1=blue, 2=green, 3=yellow, 4=orange, 5=brown, 6=red, 7=purple, 8=grey.
type ColorLabel int

// ColorGrey marks a layer as reference artwork.
const ColorGrey ColorLabel = 8

// FrameRange is an inclusive range of timeline frames.
type FrameRange struct {
	Start int `json:"start" yaml:"start" toml:"start"`
	End   int `json:"end" yaml:"end" toml:"end"`
}

// Len returns the number of frames in the range (End - Start + 1).
func (r FrameRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Valid reports whether the range is non-empty and starts at or after 0.
func (r FrameRange) Valid() bool {
	return r.Start >= 0 && r.End >= r.Start
}

// Contains reports whether frame lies within the range.
func (r FrameRange) Contains(frame int) bool {
	return frame >= r.Start && frame <= r.End
}

func (r FrameRange) String() string {
	return fmt.Sprintf("[%d,%d]", r.Start, r.End)
}

// Keyframe marks the frame where a new cel begins.
type Keyframe struct {
	Frame int
	// Source is the image holding this cel's pixels, relative to the
	// document's BaseDir unless absolute. Only renderers read it.
	Source string
	// Blank marks a stop frame: nothing is shown until the next keyframe.
	Blank bool
}

// Track is the animation track of a single paint layer.
type Track struct {
	Keyframes []Keyframe
}

// Empty reports whether the track has no keyframes.
func (t *Track) Empty() bool {
	return t == nil || len(t.Keyframes) == 0
}

// Frames returns the keyframe positions in order.
func (t *Track) Frames() []int {
	if t.Empty() {
		return nil
	}
	out := make([]int, len(t.Keyframes))
	for i, k := range t.Keyframes {
		out[i] = k.Frame
	}
	return out
}

// Active returns the keyframe whose cel is shown at frame. Frames before the
// first keyframe hold the first cel. ok is false for an empty track.
func (t *Track) Active(frame int) (Keyframe, bool) {
	if t.Empty() {
		return Keyframe{}, false
	}
	active := t.Keyframes[0]
	for _, k := range t.Keyframes[1:] {
		if k.Frame > frame {
			break
		}
		active = k
	}
	return active, true
}

// Layer is a node in the document's layer tree.
type Layer struct {
	Name       string
	Kind       Kind
	Visible    bool
	ColorLabel ColorLabel
	// Opacity in [0,1]. Zero is treated as fully opaque by renderers so that
	// snapshots omitting the field behave like the host default.
	Opacity float64
	// Source is the image of a non-animated paint layer.
	Source   string
	Children []*Layer
	Track    *Track

	parent *Layer
}

// NewPaint returns a visible paint layer with keyframes at the given frames.
func NewPaint(name string, keyframes ...int) *Layer {
	l := &Layer{Name: name, Kind: KindPaint, Visible: true}
	if len(keyframes) > 0 {
		l.Track = &Track{Keyframes: make([]Keyframe, len(keyframes))}
		for i, f := range keyframes {
			l.Track.Keyframes[i] = Keyframe{Frame: f}
		}
	}
	return l
}

// NewGroup returns a visible group layer owning children.
func NewGroup(name string, children ...*Layer) *Layer {
	return &Layer{Name: name, Kind: KindGroup, Visible: true, Children: children}
}

// Parent returns the owning group, or nil for top-level layers.
func (l *Layer) Parent() *Layer { return l.parent }

// IsAnimated reports whether l is a paint layer with at least one keyframe.
func (l *Layer) IsAnimated() bool {
	return l.Kind == KindPaint && !l.Track.Empty()
}

// IsReferenceMarker reports whether l is an artist guide that must never be
// exported, either by type or by light-table naming.
func (l *Layer) IsReferenceMarker() bool {
	if l.Kind == KindReferenceMarker {
		return true
	}
	return l.Name == LightTableName || strings.HasPrefix(l.Name, LightTablePrefix)
}

// Hidden reports whether l or any of its ancestors is invisible.
func (l *Layer) Hidden() bool {
	for n := l; n != nil; n = n.parent {
		if !n.Visible {
			return true
		}
	}
	return false
}

// Reference reports whether l or any of its ancestors is grey-labeled.
func (l *Layer) Reference() bool {
	for n := l; n != nil; n = n.parent {
		if n.ColorLabel == ColorGrey {
			return true
		}
	}
	return false
}

// Path returns the slash-joined names from the top-level ancestor to l.
func (l *Layer) Path() string {
	var parts []string
	for n := l; n != nil; n = n.parent {
		parts = append(parts, n.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// Document is the root of a snapshot.
type Document struct {
	Name   string
	Width  int
	Height int
	// Clip is the full animation range of the document.
	Clip FrameRange
	// Playback is the currently selected in/out range.
	Playback FrameRange
	// Layers are the top-level layers, top-most first.
	Layers []*Layer
	// BaseDir resolves relative image sources. Empty means the working directory.
	BaseDir string
}

// Span returns Clip when full is set, otherwise Playback.
func (d *Document) Span(full bool) FrameRange {
	if full {
		return d.Clip
	}
	return d.Playback
}

// Walk visits every layer depth-first in stacking order. Returning false from
// fn skips the layer's children.
func (d *Document) Walk(fn func(l *Layer, depth int) bool) {
	var visit func(layers []*Layer, depth int)
	visit = func(layers []*Layer, depth int) {
		for _, l := range layers {
			if fn(l, depth) {
				visit(l.Children, depth+1)
			}
		}
	}
	visit(d.Layers, 0)
}

// Count returns the number of layers in the tree.
func (d *Document) Count() int {
	n := 0
	d.Walk(func(*Layer, int) bool { n++; return true })
	return n
}

// Link sets parent back-references and validates the tree. It must be called
// once after construction and before the snapshot is handed to the planner.
func (d *Document) Link() error {
	if !d.Clip.Valid() {
		return fmt.Errorf("clip %s: %w", d.Clip, ErrInvalidRange)
	}
	if !d.Playback.Valid() {
		return fmt.Errorf("playback %s: %w", d.Playback, ErrInvalidRange)
	}
	seen := make(map[*Layer]bool)
	var link func(parent *Layer, layers []*Layer) error
	link = func(parent *Layer, layers []*Layer) error {
		for _, l := range layers {
			if seen[l] {
				return fmt.Errorf("layer %q: %w", l.Name, ErrSharedLayer)
			}
			seen[l] = true
			l.parent = parent
			if err := l.validate(); err != nil {
				return fmt.Errorf("layer %q: %w", l.Path(), err)
			}
			if err := link(l, l.Children); err != nil {
				return err
			}
		}
		return nil
	}
	return link(nil, d.Layers)
}

func (l *Layer) validate() error {
	if l.Kind != KindGroup && len(l.Children) > 0 {
		return ErrChildrenOnLeaf
	}
	if l.Kind == KindGroup && !l.Track.Empty() {
		return ErrTrackOnGroup
	}
	if l.Track.Empty() {
		return nil
	}
	prev := -1
	for _, k := range l.Track.Keyframes {
		if k.Frame < 0 {
			return fmt.Errorf("frame %d: %w", k.Frame, ErrNegativeKeyframe)
		}
		if k.Frame <= prev {
			return fmt.Errorf("frame %d after %d: %w", k.Frame, prev, ErrUnsortedKeyframes)
		}
		prev = k.Frame
	}
	return nil
}
