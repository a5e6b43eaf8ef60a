// Package document models a read-only snapshot of a layered, keyframed
// raster-animation document.
//
// # Overview
//
// The host application owns the real document. xsheet only ever sees a
// snapshot of it: the layer tree, each layer's visibility and color label,
// and the keyframe positions of every animation track. Snapshots are built
// once per export run (usually by [github.com/matzehuels/xsheet/pkg/io]) and
// never mutated afterwards.
//
// # Layer Tree
//
// [Document.Layers] lists the top-level layers in stacking order, top-most
// first. Group layers own their children; every child keeps a non-owning
// back-reference to its parent, set by [Document.Link]:
//
//	doc := &document.Document{
//	    Name:     "shot010",
//	    Clip:     document.FrameRange{Start: 0, End: 23},
//	    Playback: document.FrameRange{Start: 0, End: 23},
//	    Layers: []*document.Layer{
//	        document.NewGroup("Character",
//	            document.NewPaint("Line", 0, 4, 8),
//	            document.NewPaint("Color", 0, 8),
//	        ),
//	        document.NewPaint("BG"),
//	    },
//	}
//	if err := doc.Link(); err != nil {
//	    return err
//	}
//
// # Keyframes
//
// A [Track] holds strictly increasing, unique, non-negative keyframe
// positions. Each keyframe starts a new cel that stays visible until the next
// keyframe. A keyframe marked Blank is a stop frame: the layer shows nothing
// from that position until the next keyframe. A track without keyframes is
// not animated.
//
// # Reference Layers
//
// Two kinds of "reference" exist and are deliberately distinct:
//
//   - Grey-labeled layers ([ColorGrey]) are artwork marked as reference and
//     can be re-included by the export filter.
//   - Reference markers ([KindReferenceMarker], or layers named "Light Table"
//     or prefixed "LT_") are artist guides and are never exported.
package document
