package cli

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/xsheet/pkg/errors"
	"github.com/matzehuels/xsheet/pkg/io"
	"github.com/matzehuels/xsheet/pkg/pipeline"
)

// defaultDebounce is how long the document must stay unchanged before a
// re-export starts. Editors often write a file in several steps.
const defaultDebounce = 250 * time.Millisecond

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	opts := pipeline.DefaultOptions()
	debounce := defaultDebounce

	cmd := &cobra.Command{
		Use:               "watch [document]",
		Short:             "Re-export whenever the document snapshot changes",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocument,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadOptions(cmd, &opts); err != nil {
				return err
			}
			opts.DryRun = false
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runWatch(cmd.Context(), args[0], opts, debounce)
		},
	}

	addExportFlags(cmd.Flags(), &opts)
	cmd.Flags().DurationVar(&debounce, "debounce", debounce, "quiet period before re-exporting")
	return cmd
}

// runWatch exports once, then again after every change to input until ctx
// is cancelled. Failed exports are logged and the watch continues.
func (c *CLI) runWatch(ctx context.Context, input string, opts pipeline.Options, debounce time.Duration) error {
	abs, err := filepath.Abs(input)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve %s", input)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create file watcher")
	}
	defer fw.Close()

	// Watch the directory: editors replace files by rename, which drops a
	// watch on the file itself.
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "watch %s", filepath.Dir(abs))
	}

	w := newDocWatcher(abs, debounce)
	defer w.stop()

	logger := c.Logger.With("document", filepath.Base(abs))
	runner := c.newRunner()
	export := func() {
		doc, err := io.ImportDocument(abs)
		if err != nil {
			logger.Error("load failed", "err", errors.UserMessage(err))
			return
		}
		res, err := runner.Execute(ctx, doc, opts)
		if err != nil {
			if errors.Is(err, errors.ErrCodeCanceled) {
				return
			}
			logger.Error("export failed", "code", errors.GetCode(err), "err", errors.UserMessage(err))
			return
		}
		logger.Info("exported", "sheet", res.SheetPath, "images", res.Stats.Images, "duration", res.Stats.RenderTime)
	}

	export()
	logger.Info("watching for changes", "debounce", debounce)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.matches(event) {
				logger.Debug("document changed", "op", event.Op.String())
				w.schedule()
			}

		case <-w.trigger:
			export()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		}
	}
}

// docWatcher filters file events for one document and collapses bursts of
// them into a single trigger.
type docWatcher struct {
	path    string
	delay   time.Duration
	trigger chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

func newDocWatcher(path string, delay time.Duration) *docWatcher {
	return &docWatcher{
		path:    filepath.Clean(path),
		delay:   delay,
		trigger: make(chan struct{}, 1),
	}
}

// matches reports whether event writes or replaces the watched document.
func (w *docWatcher) matches(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// schedule (re)starts the quiet period. When it elapses without another
// call, one trigger is queued; a trigger already pending absorbs it.
func (w *docWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, func() {
		select {
		case w.trigger <- struct{}{}:
		default:
		}
	})
}

func (w *docWatcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
