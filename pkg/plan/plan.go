package plan

import (
	"path"
	"strings"

	"github.com/matzehuels/xsheet/pkg/document"
	xerrors "github.com/matzehuels/xsheet/pkg/errors"
	"github.com/matzehuels/xsheet/pkg/exposure"
	"github.com/matzehuels/xsheet/pkg/walker"
)

// Options configures plan construction.
type Options struct {
	Filter walker.Filter
	// UseFullClipRange selects the document's full clip instead of the
	// playback in/out selection.
	UseFullClipRange bool
	// ExportName overrides the document name for the root folder and sheet.
	ExportName string
	Naming     Naming
}

// DefaultOptions returns the default planning options.
func DefaultOptions() Options {
	return Options{
		Filter: walker.DefaultFilter(),
		Naming: DefaultNaming(),
	}
}

// Cel is one rendered image of an animated unit.
type Cel struct {
	// Index is the keyframe interval the cel belongs to.
	Index int `json:"index"`
	// Number is the 1-based image number within the unit, 0 for blank cels.
	Number int `json:"number"`
	// Frame is the timeline frame rendered for this cel.
	Frame int `json:"frame"`
	// Blank marks a stop frame; nothing is rendered.
	Blank bool `json:"blank,omitempty"`
	// File is the image path relative to the plan root, empty when blank.
	File string `json:"file,omitempty"`
}

// Unit is one export unit: a static image or a numbered sequence.
type Unit struct {
	Name       string `json:"name"`
	SourceName string `json:"source_name"`
	SourcePath string `json:"source_path"`
	Animated   bool   `json:"animated"`
	Flattened  bool   `json:"flattened,omitempty"`

	// Layers are the paint layers composited into the unit, top-most first.
	Layers []*document.Layer `json:"-"`

	Span      document.FrameRange `json:"span"`
	Keyframes []int               `json:"keyframes,omitempty"`
	Exposure  []exposure.Entry    `json:"exposure,omitempty"`
	Cels      []Cel               `json:"cels,omitempty"`

	// Dir is the unit folder relative to the plan root (animated units).
	Dir string `json:"dir,omitempty"`
	// File is the image path relative to the plan root (static units).
	File string `json:"file,omitempty"`
}

// Cel returns the cel with the given interval index.
func (u *Unit) Cel(index int) (Cel, bool) {
	for _, c := range u.Cels {
		if c.Index == index {
			return c, true
		}
	}
	return Cel{}, false
}

// Rendered returns the cels that produce an image file.
func (u *Unit) Rendered() []Cel {
	var out []Cel
	for _, c := range u.Cels {
		if !c.Blank {
			out = append(out, c)
		}
	}
	return out
}

// Plan is the complete, immutable description of one export run.
type Plan struct {
	// Name is the sanitized export name: root folder and sheet stem.
	Name string `json:"name"`
	// SheetFile is the exposure sheet path relative to the plan root.
	SheetFile string              `json:"sheet_file"`
	Span      document.FrameRange `json:"span"`
	Naming    Naming              `json:"naming"`
	Units     []*Unit             `json:"units"`
}

// Animated returns the animated units in stacking order.
func (p *Plan) Animated() []*Unit {
	var out []*Unit
	for _, u := range p.Units {
		if u.Animated {
			out = append(out, u)
		}
	}
	return out
}

// Static returns the static units in stacking order.
func (p *Plan) Static() []*Unit {
	var out []*Unit
	for _, u := range p.Units {
		if !u.Animated {
			out = append(out, u)
		}
	}
	return out
}

// Duration returns the sheet length in frames.
func (p *Plan) Duration() int { return p.Span.Len() }

// Stats summarizes a plan.
type Stats struct {
	Tracks        int `json:"tracks"`
	Statics       int `json:"statics"`
	Keyframes     int `json:"keyframes"`
	ExposedFrames int `json:"exposed_frames"`
	Images        int `json:"images"`
	StopFrames    int `json:"stop_frames"`
}

// Stats counts tracks, exposed frames and files to render.
func (p *Plan) Stats() Stats {
	var s Stats
	for _, u := range p.Units {
		if !u.Animated {
			s.Statics++
			s.Images++
			continue
		}
		s.Tracks++
		s.Keyframes += len(u.Cels)
		s.ExposedFrames += len(u.Exposure)
		for _, c := range u.Cels {
			if c.Blank {
				s.StopFrames++
			} else {
				s.Images++
			}
		}
	}
	return s
}

// Files returns every output path relative to the plan root, sheet first.
func (p *Plan) Files() []string {
	files := []string{p.SheetFile}
	for _, u := range p.Units {
		if !u.Animated {
			files = append(files, u.File)
			continue
		}
		for _, c := range u.Rendered() {
			files = append(files, c.File)
		}
	}
	return files
}

// Build derives the export plan for doc. doc must be linked. Build never
// touches the filesystem and never mutates doc.
func Build(doc *document.Document, opts Options) (*Plan, error) {
	opts.Naming.SetDefaults()
	if err := opts.Naming.Validate(); err != nil {
		return nil, err
	}

	span := doc.Span(opts.UseFullClipRange)
	if !span.Valid() {
		return nil, xerrors.New(xerrors.ErrCodeInvalidDocument, "invalid frame range %s", span)
	}

	name, err := exportName(doc, opts.ExportName)
	if err != nil {
		return nil, err
	}

	res := walker.Walk(doc, opts.Filter)
	if len(res.Animated()) == 0 {
		return nil, xerrors.NoExportableLayers()
	}

	p := &Plan{
		Name:      name,
		SheetFile: name + "." + SheetExt,
		Span:      span,
		Naming:    opts.Naming,
	}

	names := newRegistry()
	names.reserve(p.SheetFile)
	for _, c := range res.Candidates {
		p.Units = append(p.Units, buildUnit(c, span, opts.Naming, names))
	}

	if err := checkCollisions(p); err != nil {
		return nil, err
	}
	return p, nil
}

func exportName(doc *document.Document, override string) (string, error) {
	if override != "" {
		if err := xerrors.ValidateExportName(override); err != nil {
			return "", err
		}
		return Sanitize(override), nil
	}
	name := doc.Name
	if ext := path.Ext(name); ext != "" && ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	if strings.TrimSpace(name) == "" {
		return UntitledName, nil
	}
	return Sanitize(name), nil
}

func buildUnit(c walker.Candidate, span document.FrameRange, n Naming, names *registry) *Unit {
	u := &Unit{
		SourceName: c.Layer.Name,
		SourcePath: c.Layer.Path(),
		Animated:   c.Animated,
		Flattened:  c.Flattened,
		Layers:     c.Layers,
		Span:       span,
	}
	base := Sanitize(c.Layer.Name)

	if !c.Animated {
		u.Name = names.unique(base, n.StaticFile)
		u.File = n.StaticFile(u.Name)
		return u
	}

	u.Name = names.unique(base, func(s string) string { return s })
	u.Dir = u.Name
	u.Keyframes = c.Keyframes()
	u.Exposure = exposure.Map(u.Keyframes, span)

	number := 0
	for _, idx := range exposure.Used(u.Exposure) {
		frame := u.Keyframes[idx]
		cel := Cel{Index: idx, Frame: frame, Blank: blankAt(c.Layers, frame)}
		if !cel.Blank {
			number++
			cel.Number = number
			cel.File = path.Join(u.Dir, n.CelFile(u.Name, number))
		}
		u.Cels = append(u.Cels, cel)
	}
	return u
}

// blankAt reports whether every layer shows a stop frame at frame. Layers
// without a track always contribute pixels.
func blankAt(layers []*document.Layer, frame int) bool {
	for _, l := range layers {
		k, ok := l.Track.Active(frame)
		if !ok || !k.Blank {
			return false
		}
	}
	return len(layers) > 0
}

// checkCollisions verifies that no two outputs share a path.
func checkCollisions(p *Plan) error {
	seen := make(map[string]string)
	for _, f := range p.Files() {
		key := strings.ToLower(f)
		if prev, ok := seen[key]; ok {
			return xerrors.New(xerrors.ErrCodeNameCollision, "output %q collides with %q", f, prev)
		}
		seen[key] = f
	}
	for _, u := range p.Animated() {
		key := strings.ToLower(u.Dir)
		if prev, ok := seen[key]; ok {
			return xerrors.New(xerrors.ErrCodeNameCollision, "folder %q collides with %q", u.Dir, prev)
		}
		seen[key] = u.Dir
	}
	return nil
}
