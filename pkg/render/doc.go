// Package render produces the image files of an export plan.
//
// # Overview
//
// Planning decides what to render; this package decides how. A [Renderer]
// turns a [Job] (one unit at one frame) into an image, a [Sink] stores it and
// [Execute] drives the whole list of [Tasks]:
//
//	tasks := render.Tasks(doc, p, root)
//	err := render.Execute(ctx, render.NewCelRenderer(), render.NewFileSink(), tasks,
//	    render.ExecOptions{Workers: 4})
//
// # Renderers
//
// [CelRenderer] composites the cel images referenced by the snapshot itself.
// Each constituent layer contributes the source of the keyframe active at the
// job's frame, drawn bottom-up with the layer's opacity. It is safe for
// concurrent use.
//
// [CommandRenderer] hands each job to an external program, for example a
// headless build of the painting application, and decodes the PNG it writes
// to stdout:
//
//	r := &render.CommandRenderer{Command: "paint-export --layers {layers} --frame {frame}"}
//
// # Execution
//
// Tasks run sequentially unless the renderer implements [Concurrent] and more
// than one worker is requested, in which case they run on an errgroup with a
// bounded number of goroutines. Either way the first failure cancels the
// remaining work. Files already written are left in place.
//
// # Output
//
// [FileSink] picks the encoder from the file extension (png, jpg, tif, bmp,
// gif) and applies the PNG compression level and JPEG quality.
//
// The [tree] subpackage renders the layer tree itself as a diagram.
package render
