package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// logHooks reports pipeline events at debug level. It is registered when
// the CLI runs with --verbose.
type logHooks struct {
	logger *log.Logger
}

func newLogHooks(l *log.Logger) *logHooks {
	return &logHooks{logger: l.WithPrefix("hooks")}
}

func (h *logHooks) OnPlanStart(_ context.Context, document string) {
	h.logger.Debug("plan start", "document", document)
}

func (h *logHooks) OnPlanComplete(_ context.Context, document string, units int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("plan failed", "document", document, "err", err)
		return
	}
	h.logger.Debug("plan complete", "document", document, "units", units, "duration", d)
}

func (h *logHooks) OnRenderStart(_ context.Context, images int) {
	h.logger.Debug("render start", "images", images)
}

func (h *logHooks) OnRenderComplete(_ context.Context, images int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("render failed", "images", images, "err", err)
		return
	}
	h.logger.Debug("render complete", "images", images, "duration", d)
}

func (h *logHooks) OnSheetWritten(_ context.Context, path string, tracks int, err error) {
	h.logger.Debug("sheet written", "path", path, "tracks", tracks, "err", err)
}

func (h *logHooks) OnImageRendered(_ context.Context, unit string, frame int, d time.Duration) {
	h.logger.Debug("image", "unit", unit, "frame", frame, "duration", d)
}
