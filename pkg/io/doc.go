// Package io reads document snapshots and writes export plans.
//
// # Overview
//
// The exporter never talks to a painting application directly. Instead the
// host dumps a read-only snapshot of its layer tree, and this package turns it
// into a linked [document.Document]. Snapshots may be JSON, YAML or TOML; the
// format follows the file extension.
//
// # Snapshot Format
//
//	{
//	  "name": "Walk Cycle",
//	  "width": 1920,
//	  "height": 1080,
//	  "clip": {"start": 0, "end": 23},
//	  "playback": {"start": 0, "end": 11},
//	  "layers": [
//	    {"name": "Line", "keyframes": [
//	      {"frame": 0, "source": "cels/line_0.png"},
//	      {"frame": 4, "source": "cels/line_4.png"},
//	      {"frame": 8, "blank": true}
//	    ]},
//	    {"name": "Color", "kind": "group", "children": [
//	      {"name": "Body", "keyframes": [{"frame": 0, "source": "cels/body.png"}]}
//	    ]},
//	    {"name": "Rough", "color_label": 8, "visible": false},
//	    {"name": "BG", "source": "bg.png"}
//	  ]
//	}
//
// # Layer Fields
//
// Required:
//   - name: Layer name as shown in the host
//
// Optional:
//   - kind: "paint" (default), "group" or "reference_marker"
//   - visible: Defaults to true
//   - color_label: Host color tag, 8 marks reference artwork
//   - opacity: 0..1, defaults to 1
//   - source: Image of a layer without keyframes
//   - children: Child layers of a group, top-most first
//   - keyframes: Ordered keyframes with frame, optional source and blank
//
// Relative sources resolve against the snapshot's directory.
//
// # Import
//
//	doc, err := io.ImportDocument("shot.yaml")
//
// Errors carry the codes of the errors package: FILE_NOT_FOUND for a missing
// file, INVALID_FORMAT for an unknown extension and INVALID_DOCUMENT for
// anything that fails to decode or link.
//
// # Export
//
// [WritePlanJSON] dumps a computed plan for inspection by other tools.
// Sheets are write-only: there is no XDTS reader.
package io
