package render

import (
	"context"
	"image"
	"path/filepath"

	"github.com/matzehuels/xsheet/pkg/document"
	"github.com/matzehuels/xsheet/pkg/plan"
)

// Job asks a renderer for the pixels of one unit at one frame.
type Job struct {
	Document *document.Document
	Unit     *plan.Unit
	// Layers are the unit's constituents, top-most first.
	Layers []*document.Layer
	// Frame is the absolute timeline frame to render.
	Frame int
	// Cel is the rendered cel; zero for static units.
	Cel plan.Cel
}

// Renderer produces the image of one job. Implementations must not mutate
// the document.
type Renderer interface {
	Render(ctx context.Context, job Job) (image.Image, error)
}

// Concurrent is implemented by renderers that may be called from several
// goroutines at once.
type Concurrent interface {
	Concurrent() bool
}

// IsConcurrent reports whether r declares itself safe for parallel use.
func IsConcurrent(r Renderer) bool {
	c, ok := r.(Concurrent)
	return ok && c.Concurrent()
}

// Sink stores a rendered image at path.
type Sink interface {
	Write(path string, img image.Image) error
}

// Task pairs a job with its output path.
type Task struct {
	Job  Job
	Path string
}

// Tasks lists every image of p in plan order with paths under root. Animated
// units render each non-blank cel at its keyframe; static units render once
// at the start of the span.
func Tasks(doc *document.Document, p *plan.Plan, root string) []Task {
	var tasks []Task
	for _, u := range p.Units {
		if !u.Animated {
			tasks = append(tasks, Task{
				Job:  Job{Document: doc, Unit: u, Layers: u.Layers, Frame: p.Span.Start},
				Path: filepath.Join(root, filepath.FromSlash(u.File)),
			})
			continue
		}
		for _, c := range u.Rendered() {
			tasks = append(tasks, Task{
				Job:  Job{Document: doc, Unit: u, Layers: u.Layers, Frame: c.Frame, Cel: c},
				Path: filepath.Join(root, filepath.FromSlash(c.File)),
			})
		}
	}
	return tasks
}
