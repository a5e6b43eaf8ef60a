// Package pipeline provides the export pipeline for xsheet.
//
// This package implements the complete plan → prepare → render → sheet
// sequence used by the CLI commands. By centralizing this logic, the export,
// plan and watch commands behave identically.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Plan: Walk the layer tree and derive the export plan (pure)
//  2. Prepare: Validate and create the export root and unit folders
//  3. Render: Produce every image through a renderer and sink
//  4. Sheet: Write the XDTS exposure sheet
//
// The export directory is validated before anything is rendered. A render
// failure aborts the run; files already written are left in place.
//
// # Usage
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	opts := pipeline.DefaultOptions()
//	opts.ExportDir = "out"
//	result, err := runner.Execute(ctx, doc, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.SheetPath)
//
// Plan only:
//
//	p, err := runner.Plan(ctx, doc, opts)
package pipeline

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/xsheet/pkg/errors"
	"github.com/matzehuels/xsheet/pkg/plan"
	"github.com/matzehuels/xsheet/pkg/render"
	"github.com/matzehuels/xsheet/pkg/walker"
	"github.com/matzehuels/xsheet/pkg/xdts"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and config file
// =============================================================================

const (
	// DefaultCompression is the default PNG compression level.
	DefaultCompression = render.DefaultCompression

	// DefaultQuality is the default JPEG quality.
	DefaultQuality = render.DefaultQuality

	// DefaultRenderer composites the cel images named in the snapshot.
	DefaultRenderer = RendererCels
)

// Renderer names.
const (
	RendererCels    = "cels"
	RendererCommand = "command"
)

// ValidRenderers is the set of supported renderers.
var ValidRenderers = map[string]bool{
	RendererCels:    true,
	RendererCommand: true,
}

// DefaultWorkers returns the default number of parallel renders.
func DefaultWorkers() int {
	return min(runtime.NumCPU(), 8)
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for an export run.
// Field tags match the keys of the TOML config file.
type Options struct {
	// Selection options
	FlattenGroups    bool `json:"flatten_groups" toml:"flatten_groups"`
	IncludeInvisible bool `json:"include_invisible,omitempty" toml:"include_invisible"`
	IncludeReference bool `json:"include_reference,omitempty" toml:"include_reference"`
	IncludeStatic    bool `json:"include_static,omitempty" toml:"include_static"`
	UseFullClipRange bool `json:"full_range,omitempty" toml:"full_range"`

	// Output options
	ExportDir  string `json:"export_dir" toml:"export_dir"`
	ExportName string `json:"name,omitempty" toml:"name"`
	Format     string `json:"format,omitempty" toml:"format"`           // image extension
	FileFormat string `json:"file_format,omitempty" toml:"file_format"` // layer | seq
	Prefix     string `json:"prefix,omitempty" toml:"prefix"`
	Suffix     string `json:"suffix,omitempty" toml:"suffix"`
	Separator  string `json:"separator,omitempty" toml:"separator"`
	Cut        string `json:"cut,omitempty" toml:"cut"`
	Scene      string `json:"scene,omitempty" toml:"scene"`

	// Render options
	Compression   int    `json:"compression" toml:"compression"`
	Quality       int    `json:"quality,omitempty" toml:"quality"`
	Workers       int    `json:"workers,omitempty" toml:"workers"`
	Renderer      string `json:"renderer,omitempty" toml:"renderer"`
	RenderCommand string `json:"render_command,omitempty" toml:"render_command"`
	DryRun        bool   `json:"dry_run,omitempty" toml:"-"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" toml:"-"`

	// Progress, when set, is called after each written image with the
	// number of images done so far and the total. It may be called from
	// several goroutines.
	Progress func(done, total int) `json:"-" toml:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// DefaultOptions returns the options of a plain export: visible animated
// layers, animated groups flattened, playback range, PNG files.
func DefaultOptions() Options {
	return Options{
		FlattenGroups: true,
		Format:        plan.DefaultExt,
		FileFormat:    string(plan.FormatLayerSeq),
		Separator:     plan.DefaultSeparator,
		Compression:   DefaultCompression,
		Quality:       DefaultQuality,
		Workers:       DefaultWorkers(),
		Renderer:      DefaultRenderer,
		Cut:           "1",
		Scene:         "1",
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run in logs.
	RunID string

	// Plan is the export plan that was executed.
	Plan *plan.Plan

	// Root is the export root folder, <ExportDir>/<Name>.
	Root string

	// SheetPath is the path of the written exposure sheet.
	SheetPath string

	// DryRun is set when nothing was written.
	DryRun bool

	// Stats contains counts and timing information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	plan.Stats
	PlanTime   time.Duration
	RenderTime time.Duration
	SheetTime  time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateRenderer checks that a renderer name is valid.
func ValidateRenderer(name string) error {
	if !ValidRenderers[name] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid renderer: %q (must be one of: cels, command)", name)
	}
	return nil
}

// ValidateCompression checks that a PNG compression level is within 0-9.
func ValidateCompression(level int) error {
	if level < 0 || level > 9 {
		return errors.New(errors.ErrCodeInvalidInput, "invalid compression: %d (must be 0-9)", level)
	}
	return nil
}

// ValidateQuality checks that a JPEG quality is within 1-100.
func ValidateQuality(q int) error {
	if q < 1 || q > 100 {
		return errors.New(errors.ErrCodeInvalidInput, "invalid quality: %d (must be 1-100)", q)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for a full
// export. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForPlan(); err != nil {
		return err
	}
	if !o.DryRun {
		if err := errors.ValidateExportDir(o.ExportDir); err != nil {
			return err
		}
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForPlan validates and sets defaults for planning. The export
// directory is not required.
func (o *Options) ValidateForPlan() error {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	n := o.Naming()
	if err := n.Validate(); err != nil {
		return err
	}
	if o.ExportName != "" {
		if err := errors.ValidateExportName(o.ExportName); err != nil {
			return err
		}
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if o.Quality == 0 {
		o.Quality = DefaultQuality
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers()
	}
	if o.Renderer == "" {
		o.Renderer = DefaultRenderer
	}
	if o.Cut == "" {
		o.Cut = "1"
	}
	if o.Scene == "" {
		o.Scene = "1"
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateCompression(o.Compression); err != nil {
		return err
	}
	if err := ValidateQuality(o.Quality); err != nil {
		return err
	}
	if err := ValidateRenderer(o.Renderer); err != nil {
		return err
	}
	if o.Renderer == RendererCommand && o.RenderCommand == "" {
		return errors.New(errors.ErrCodeInvalidInput, "render_command is required for the command renderer")
	}
	return nil
}

// Naming returns the file naming convention with defaults applied.
func (o *Options) Naming() plan.Naming {
	n := plan.Naming{
		Format:    plan.FileFormat(o.FileFormat),
		Prefix:    o.Prefix,
		Suffix:    o.Suffix,
		Separator: o.Separator,
		Ext:       o.Format,
	}
	n.SetDefaults()
	return n
}

// PlanOptions returns the planner configuration.
func (o *Options) PlanOptions() plan.Options {
	return plan.Options{
		Filter: walker.Filter{
			IncludeInvisible:      o.IncludeInvisible,
			IncludeReference:      o.IncludeReference,
			IncludeStatic:         o.IncludeStatic,
			FlattenAnimatedGroups: o.FlattenGroups,
		},
		UseFullClipRange: o.UseFullClipRange,
		ExportName:       o.ExportName,
		Naming:           o.Naming(),
	}
}

// SheetOptions returns the exposure sheet header configuration.
func (o *Options) SheetOptions() xdts.Options {
	return xdts.Options{Cut: o.Cut, Scene: o.Scene}
}

// NewRenderer builds the renderer selected by the options.
func (o *Options) NewRenderer() (render.Renderer, error) {
	switch o.Renderer {
	case "", RendererCels:
		return render.NewCelRenderer(), nil
	case RendererCommand:
		return &render.CommandRenderer{Command: o.RenderCommand}, nil
	}
	return nil, fmt.Errorf("unknown renderer %q", o.Renderer)
}

// NewSink builds the image sink for the options.
func (o *Options) NewSink() render.Sink {
	return &render.FileSink{Compression: o.Compression, Quality: o.Quality}
}
