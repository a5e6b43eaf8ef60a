// Package plan turns a document snapshot into an export plan.
//
// # Overview
//
// A [Plan] is the complete, filesystem-free description of one export run:
// which units are exported, which frames each unit shows, which images must be
// rendered and where every file goes. [Build] derives it from a linked
// [document.Document] in three steps:
//
//  1. The [walker] selects candidates in stacking order.
//  2. The [exposure] package maps each candidate's keyframes onto the export
//     span, one entry per frame.
//  3. Names are sanitized and made unique, and cels are numbered.
//
// # Units
//
// An animated unit owns a folder named after the layer (or flattened group)
// holding one image per distinct cel:
//
//	Shot/
//	├── Shot.xdts
//	├── Line/
//	│   ├── Line_0001.png
//	│   └── Line_0002.png
//	└── BG.png
//
// Static units, exported only when the filter includes them, are single images
// at the root and never appear in the exposure sheet.
//
// # Cel numbering
//
// Cels are numbered 1..N in keyframe order within each unit. A cel whose
// constituents all show a stop frame is blank: it is listed in the exposure
// but takes no number and no file.
//
// # Naming
//
// Names are compared case-insensitively. When two units sanitize to the same
// name, later units in stacking order receive "_2", "_3", ... suffixes. The
// sheet file name is reserved before any unit is named.
//
//	p, err := plan.Build(doc, plan.DefaultOptions())
//	for _, u := range p.Animated() {
//	    fmt.Println(u.Name, len(u.Rendered()))
//	}
package plan
