package render

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/xsheet/pkg/errors"
)

// ExecOptions configures [Execute].
type ExecOptions struct {
	// Workers bounds parallel renders. Values below 2, or a renderer that is
	// not [Concurrent], run tasks one after another.
	Workers int
	// OnStart is called before a task renders.
	OnStart func(Task)
	// OnDone is called after a task was written, with its render time.
	OnDone func(Task, time.Duration)
}

// Execute renders every task and writes it through sink. The first failure
// stops the run and is returned as a RENDER_FAILURE error; images already
// written stay on disk. Cancellation of ctx is reported as CANCELED.
//
// Callbacks may run concurrently when tasks do.
func Execute(ctx context.Context, r Renderer, sink Sink, tasks []Task, opts ExecOptions) error {
	if opts.Workers < 2 || !IsConcurrent(r) {
		for _, t := range tasks {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(errors.ErrCodeCanceled, err, "export canceled")
			}
			if err := run(ctx, r, sink, t, opts); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, t := range tasks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return run(gctx, r, sink, t, opts)
		})
	}
	err := g.Wait()
	if ctx.Err() != nil {
		return errors.Wrap(errors.ErrCodeCanceled, ctx.Err(), "export canceled")
	}
	return err
}

func run(ctx context.Context, r Renderer, sink Sink, t Task, opts ExecOptions) error {
	if opts.OnStart != nil {
		opts.OnStart(t)
	}
	start := time.Now()
	img, err := r.Render(ctx, t.Job)
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(errors.ErrCodeCanceled, ctx.Err(), "export canceled")
		}
		return errors.Wrap(errors.ErrCodeRenderFailure, err, "render %s frame %d", unitName(t.Job), t.Job.Frame)
	}
	if err := sink.Write(t.Path, img); err != nil {
		return errors.Wrap(errors.ErrCodeRenderFailure, err, "write %s", t.Path)
	}
	if opts.OnDone != nil {
		opts.OnDone(t, time.Since(start))
	}
	return nil
}

func unitName(j Job) string {
	if j.Unit == nil {
		return "<unknown>"
	}
	return j.Unit.Name
}
