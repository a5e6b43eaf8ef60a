package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// CommandRenderer delegates rendering to an external program that writes the
// encoded image to stdout. Command is split on whitespace; each argument may
// contain placeholders:
//
//	{document}  document name
//	{base}      snapshot directory
//	{unit}      export unit name
//	{layer}     source path of the unit's layer or group
//	{layers}    comma-separated paths of the constituents
//	{frame}     absolute timeline frame
//	{cel}       cel number, 0 for static units
//	{width}     document width
//	{height}    document height
//
// The program runs without a shell.
type CommandRenderer struct {
	Command string
	// Parallel allows concurrent invocations.
	Parallel bool
}

// Concurrent reports whether parallel invocations are allowed.
func (r *CommandRenderer) Concurrent() bool { return r.Parallel }

// Args expands the command template for job.
func (r *CommandRenderer) Args(job Job) []string {
	paths := make([]string, len(job.Layers))
	for i, l := range job.Layers {
		paths[i] = l.Path()
	}
	var unit, layer string
	if job.Unit != nil {
		unit, layer = job.Unit.Name, job.Unit.SourcePath
	}
	repl := strings.NewReplacer(
		"{document}", job.Document.Name,
		"{base}", job.Document.BaseDir,
		"{unit}", unit,
		"{layer}", layer,
		"{layers}", strings.Join(paths, ","),
		"{frame}", strconv.Itoa(job.Frame),
		"{cel}", strconv.Itoa(job.Cel.Number),
		"{width}", strconv.Itoa(job.Document.Width),
		"{height}", strconv.Itoa(job.Document.Height),
	)
	fields := strings.Fields(r.Command)
	for i, f := range fields {
		fields[i] = repl.Replace(f)
	}
	return fields
}

// Render runs the command and decodes its output.
func (r *CommandRenderer) Render(ctx context.Context, job Job) (image.Image, error) {
	args := r.Args(job)
	if len(args) == 0 {
		return nil, fmt.Errorf("render command is empty")
	}
	if _, err := exec.LookPath(args[0]); err != nil {
		return nil, fmt.Errorf("render command %q not found in PATH", args[0])
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = job.Document.BaseDir

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %v: %s", args[0], err, strings.TrimSpace(errBuf.String()))
	}
	img, err := imaging.Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("%s: decode output: %w", args[0], err)
	}
	return img, nil
}
