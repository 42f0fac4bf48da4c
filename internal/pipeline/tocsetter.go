package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"mediatoc/internal/engine"
	"mediatoc/internal/fileutil"
	"mediatoc/internal/logging"
	"mediatoc/internal/mediaerr"
	"mediatoc/internal/timecode"
	"mediatoc/internal/toc"
)

// ExportRequest describes one TOC-embedding export run.
type ExportRequest struct {
	Input  string
	Output string

	// Toc is embedded into the output container as its chapter edition.
	Toc *toc.Toc

	// Streams restricts the export to a subset of stream ids; empty keeps
	// every stream.
	Streams []string
}

// TocSetter re-muxes a media file into a new container carrying the given
// chapter table. The source streams are copied, never re-encoded.
type TocSetter struct {
	*core

	output string
}

// NewTocSetter constructs an unopened export pipeline.
func NewTocSetter(eng engine.Engine, logger *slog.Logger) *TocSetter {
	t := &TocSetter{
		core: newCore(eng, logging.WithComponent(logger, "toc-setter")),
	}
	t.core.hooks = hooks{
		tick: t.tick,
		eos:  t.finish,
	}
	return t
}

// tocSetterRequirements are probed before building an export graph.
var tocSetterRequirements = []engine.Requirement{
	{Name: "matroskamux", Description: "chapter-capable muxing"},
}

// Open builds the export graph. The graph writes to a staging file next to
// req.Output; the final path only appears once the export completes.
func (t *TocSetter) Open(ctx context.Context, req ExportRequest) error {
	if req.Toc == nil || req.Toc.Len() == 0 {
		return fmt.Errorf("open: nothing to export, chapter table is empty")
	}
	if err := fileutil.EnsureDir(filepath.Dir(req.Output)); err != nil {
		return mediaerr.Wrap(mediaerr.ErrIO, "open", req.Output, err)
	}

	t.mu.Lock()
	t.output = req.Output
	t.mu.Unlock()

	spec := engine.GraphSpec{
		Kind:    engine.KindTocSetter,
		Input:   req.Input,
		Output:  fileutil.TempPath(req.Output),
		Streams: req.Streams,
		Toc:     req.Toc.Clone(),
	}
	return t.open(ctx, tocSetterRequirements, spec)
}

// Start launches the export. Valid once from Ready; progress arrives as
// Exporting notifications and the terminal Completed carries Progress 1.
func (t *TocSetter) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.state.Terminal() {
		return mediaerr.Wrap(mediaerr.ErrTerminal, "start", t.state.String(), nil)
	}
	if t.state != Ready {
		return fmt.Errorf("start: invalid from state %s", t.state)
	}
	if err := t.graph.SetState(engine.StatePlaying); err != nil {
		err = mediaerr.Wrap(mediaerr.ErrStateChange, "start", "engine refused transition", err)
		t.failLocked(err)
		return err
	}
	playing := engine.StatePlaying
	t.pendingState = &playing
	t.state = Exporting
	t.sendLocked(Notification{State: Exporting})
	return nil
}

// tick converts position reports into progress notifications.
func (t *TocSetter) tick(pos timecode.Timestamp) {
	if t.state != Exporting {
		return
	}
	t.sendLocked(Notification{
		State:    Exporting,
		Position: pos,
		Progress: t.progressLocked(pos),
	})
}

// finish promotes the staging file and completes the pipeline.
func (t *TocSetter) finish() {
	if t.state != Exporting {
		// End of stream before Start; the graph idles at Ready.
		return
	}
	if err := fileutil.Promote(t.output); err != nil {
		t.failLocked(mediaerr.Wrap(mediaerr.ErrIO, "export", t.output, err))
		return
	}
	t.state = Completed
	t.logger.Info("export complete", logging.String("output", t.output))
	t.sendLocked(Notification{State: Completed, Position: t.lastPos, Progress: 1})
}

// progressLocked computes the completion fraction. Callers hold the lock.
func (t *TocSetter) progressLocked(pos timecode.Timestamp) float64 {
	dur, ok := t.core.duration()
	if !ok || dur == 0 {
		return 0
	}
	p := float64(pos) / float64(dur)
	if p > 1 {
		p = 1
	}
	return p
}

// Close tears the pipeline down. An export interrupted before completion
// leaves no partial file behind.
func (t *TocSetter) Close() error {
	err := t.core.Close()
	t.mu.Lock()
	output := t.output
	completed := t.state == Completed
	t.mu.Unlock()
	if output != "" && !completed {
		fileutil.Discard(output)
	}
	return err
}
