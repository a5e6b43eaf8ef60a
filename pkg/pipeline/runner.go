package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/xsheet/pkg/document"
	"github.com/matzehuels/xsheet/pkg/errors"
	"github.com/matzehuels/xsheet/pkg/observability"
	"github.com/matzehuels/xsheet/pkg/plan"
	"github.com/matzehuels/xsheet/pkg/render"
	"github.com/matzehuels/xsheet/pkg/xdts"
)

// Runner encapsulates pipeline execution.
//
// The Runner is stateless except for its collaborators - it doesn't store
// results. A nil Renderer or Sink is built from the options of each run.
type Runner struct {
	Renderer render.Renderer
	Sink     render.Sink
	Logger   *log.Logger
}

// NewRunner creates a runner with the given collaborators.
// If logger is nil, the default logger is used.
func NewRunner(r render.Renderer, sink render.Sink, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Renderer: r,
		Sink:     sink,
		Logger:   logger,
	}
}

// Plan derives the export plan without touching the filesystem.
func (r *Runner) Plan(ctx context.Context, doc *document.Document, opts Options) (*plan.Plan, error) {
	if err := opts.ValidateForPlan(); err != nil {
		return nil, err
	}
	p, _, err := r.plan(ctx, doc, opts)
	return p, err
}

func (r *Runner) plan(ctx context.Context, doc *document.Document, opts Options) (*plan.Plan, time.Duration, error) {
	hooks := observability.Pipeline()
	hooks.OnPlanStart(ctx, doc.Name)

	start := time.Now()
	p, err := plan.Build(doc, opts.PlanOptions())
	elapsed := time.Since(start)

	units := 0
	if p != nil {
		units = len(p.Units)
	}
	hooks.OnPlanComplete(ctx, doc.Name, units, elapsed, err)
	return p, elapsed, err
}

// Execute runs the complete plan → prepare → render → sheet pipeline.
func (r *Runner) Execute(ctx context.Context, doc *document.Document, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.NewString(), DryRun: opts.DryRun}
	logger := r.Logger.With("run", result.RunID[:8])

	// Stage 1: Plan
	p, planTime, err := r.plan(ctx, doc, opts)
	if err != nil {
		return nil, err
	}
	result.Plan = p
	result.Stats.Stats = p.Stats()
	result.Stats.PlanTime = planTime
	result.Root = filepath.Join(opts.ExportDir, p.Name)
	result.SheetPath = filepath.Join(result.Root, p.SheetFile)

	logger.Info("planned export",
		"document", doc.Name,
		"span", p.Span,
		"tracks", result.Stats.Tracks,
		"statics", result.Stats.Statics,
		"images", result.Stats.Images,
		"duration", planTime)

	if opts.DryRun {
		logger.Info("dry run, nothing written", "root", result.Root)
		return result, nil
	}

	// Stage 2: Prepare
	if err := PrepareRoot(result.Root); err != nil {
		return nil, err
	}
	for _, u := range p.Animated() {
		if len(u.Rendered()) == 0 {
			continue
		}
		dir := filepath.Join(result.Root, filepath.FromSlash(u.Dir))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidExportDirectory, err, "create %s", dir)
		}
	}

	// Stage 3: Render
	renderer := r.Renderer
	if renderer == nil {
		if renderer, err = opts.NewRenderer(); err != nil {
			return nil, err
		}
	}
	sink := r.Sink
	if sink == nil {
		sink = opts.NewSink()
	}

	tasks := render.Tasks(doc, p, result.Root)
	observability.Pipeline().OnRenderStart(ctx, len(tasks))
	renderStart := time.Now()
	var written atomic.Int64
	err = render.Execute(ctx, renderer, sink, tasks, render.ExecOptions{
		Workers: opts.Workers,
		OnDone: func(t render.Task, d time.Duration) {
			n := written.Add(1)
			observability.Render().OnImageRendered(ctx, t.Job.Unit.Name, t.Job.Frame, d)
			logger.Debug("rendered", "unit", t.Job.Unit.Name, "frame", t.Job.Frame, "file", t.Path, "duration", d)
			if opts.Progress != nil {
				opts.Progress(int(n), len(tasks))
			}
		},
	})
	result.Stats.RenderTime = time.Since(renderStart)
	observability.Pipeline().OnRenderComplete(ctx, len(tasks), result.Stats.RenderTime, err)
	if err != nil {
		return nil, err
	}

	logger.Info("rendered images",
		"images", len(tasks),
		"workers", effectiveWorkers(renderer, opts.Workers),
		"duration", result.Stats.RenderTime)

	// Stage 4: Sheet
	sheetStart := time.Now()
	sheet := xdts.Build(p, opts.SheetOptions())
	err = sheet.WriteFile(result.SheetPath)
	observability.Pipeline().OnSheetWritten(ctx, result.SheetPath, result.Stats.Tracks, err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write exposure sheet")
	}
	result.Stats.SheetTime = time.Since(sheetStart)

	logger.Info("wrote exposure sheet", "path", result.SheetPath, "tracks", result.Stats.Tracks, "frames", p.Duration())
	return result, nil
}

// PrepareRoot creates the export root and verifies it is writable. It runs
// before any image is rendered so an unusable directory fails fast.
func PrepareRoot(root string) error {
	if err := errors.ValidateExportDir(root); err != nil {
		return err
	}
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		return errors.New(errors.ErrCodeInvalidExportDirectory, "%s exists and is not a directory", root)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidExportDirectory, err, "create export directory")
	}
	probe, err := os.CreateTemp(root, ".xsheet-probe-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidExportDirectory, err, "export directory is not writable")
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

func effectiveWorkers(r render.Renderer, workers int) int {
	if workers < 2 || !render.IsConcurrent(r) {
		return 1
	}
	return workers
}
