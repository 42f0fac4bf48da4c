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
	"mediatoc/internal/mediainfo"
	"mediatoc/internal/naming"
	"mediatoc/internal/profiles"
	"mediatoc/internal/timecode"
	"mediatoc/internal/toc"
)

// SplitRequest describes one chapter-splitting run.
type SplitRequest struct {
	Input string

	// Toc provides the chapter boundaries. Chapters extending past the
	// media duration are clamped once the duration is known.
	Toc *toc.Toc

	// StreamID selects the audio stream to encode.
	StreamID string

	// Profile names the encoder, muxer, and extension of the output
	// files.
	Profile profiles.Profile

	// OutputDir receives one file per chapter.
	OutputDir string

	// ContinueOnError keeps splitting after a chapter fails instead of
	// aborting the run. The run then completes with per-chapter outcomes
	// for the caller to inspect.
	ContinueOnError bool
}

// Splitter re-encodes one audio stream chapter by chapter into separate
// files. A single engine graph is reused across chapters: every sub-job
// seeks to its chapter start, points the output at a fresh file, and rolls
// until the chapter end passes by.
type Splitter struct {
	*core
	req SplitRequest

	chapters []toc.Chapter
	idx      int // current sub-job; == len(chapters) once done
	doneDur  timecode.Duration
	totalDur timecode.Duration
	current  string // final path of the running sub-job
	stopping bool   // pause requested, waiting for the engine to confirm
	jobErr   error  // failure to record once the stop confirms
	outcomes []ChapterOutcome
}

// NewSplitter constructs an unopened splitter pipeline.
func NewSplitter(eng engine.Engine, logger *slog.Logger) *Splitter {
	s := &Splitter{
		core: newCore(eng, logging.WithComponent(logger, "splitter")),
	}
	s.core.hooks = hooks{
		openingDone: s.openingDone,
		asyncDone:   s.asyncDone,
		tick:        s.tick,
		eos:         s.eos,
		graphError:  s.graphError,
	}
	return s
}

// Open probes the profile's encoder and muxer and builds the shared graph.
func (s *Splitter) Open(ctx context.Context, req SplitRequest) error {
	if req.Toc == nil || req.Toc.Len() == 0 {
		return fmt.Errorf("open: nothing to split, chapter table is empty")
	}
	if req.OutputDir == "" {
		return fmt.Errorf("open: output directory is required")
	}
	if err := fileutil.EnsureDir(req.OutputDir); err != nil {
		return mediaerr.Wrap(mediaerr.ErrIO, "open", req.OutputDir, err)
	}

	s.mu.Lock()
	s.req = req
	s.req.Toc = req.Toc.Clone()
	s.mu.Unlock()

	spec := engine.GraphSpec{
		Kind:    engine.KindSplitter,
		Input:   req.Input,
		Streams: []string{req.StreamID},
		Encoder: req.Profile.Encoder,
		Muxer:   req.Profile.Muxer,
	}
	return s.open(ctx, req.Profile.Requirements(), spec)
}

// openingDone clamps the chapter table to the now-known media duration and
// fixes the sub-job list.
func (s *Splitter) openingDone(info *mediainfo.Info) State {
	if info.Duration > 0 {
		s.req.Toc.ClampTo(info.Duration)
	}
	s.chapters = s.req.Toc.Chapters()
	for _, ch := range s.chapters {
		s.totalDur += ch.Duration()
	}
	return Ready
}

// Start launches the first sub-job. Valid once from Ready.
func (s *Splitter) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state.Terminal() {
		return mediaerr.Wrap(mediaerr.ErrTerminal, "start", s.state.String(), nil)
	}
	if s.state != Ready {
		return fmt.Errorf("start: invalid from state %s", s.state)
	}
	s.state = Exporting
	s.sendLocked(Notification{State: Exporting})
	s.startJobLocked()
	return nil
}

// Outcomes returns the per-chapter results recorded so far, in chapter
// order.
func (s *Splitter) Outcomes() []ChapterOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChapterOutcome(nil), s.outcomes...)
}

// startJobLocked points the graph at the current chapter and rolls it.
// Callers hold the lock.
func (s *Splitter) startJobLocked() {
	ch := s.chapters[s.idx]
	name := naming.SplitFileName(s.info, ch, s.idx+1, s.req.Profile.Extension)
	s.current = filepath.Join(s.req.OutputDir, name)

	s.logger.Info("splitting chapter",
		logging.Int("chapter", s.idx+1),
		logging.String("output", s.current))

	if err := s.graph.SetOutput(fileutil.TempPath(s.current)); err != nil {
		s.finishJobLocked(mediaerr.Wrap(mediaerr.ErrIO, "split", s.current, err))
		return
	}
	if rs, ok := s.graph.(engine.RangeSetter); ok {
		if err := rs.StopAt(ch.End); err != nil {
			s.finishJobLocked(mediaerr.Wrap(mediaerr.ErrStateChange, "split", "engine refused range", err))
			return
		}
	}
	if err := s.graph.Seek(ch.Start); err != nil {
		s.finishJobLocked(mediaerr.Wrap(mediaerr.ErrStateChange, "split", "engine refused seek", err))
		return
	}
	if err := s.graph.SetState(engine.StatePlaying); err != nil {
		s.finishJobLocked(mediaerr.Wrap(mediaerr.ErrStateChange, "split", "engine refused transition", err))
	}
}

// asyncDone advances the sub-job sequence once the engine confirms a stop.
// Playing confirmations carry no work here.
func (s *Splitter) asyncDone(state engine.State) bool {
	if s.state != Exporting {
		return false
	}
	if state != engine.StatePaused || !s.stopping {
		return true // swallow confirmations of our own transitions
	}
	s.stopping = false
	s.completeJobLocked()
	return true
}

// tick watches the position; the current sub-job is done once the chapter
// end passes by.
func (s *Splitter) tick(pos timecode.Timestamp) {
	if s.state != Exporting || s.stopping || s.idx >= len(s.chapters) {
		return
	}
	ch := s.chapters[s.idx]
	if pos < ch.End {
		s.sendLocked(Notification{
			State:    Exporting,
			Position: pos,
			Progress: s.progressLocked(pos),
		})
		return
	}
	s.finishJobLocked(nil)
}

// eos finalizes the running sub-job: the engine ran out of the chapter's
// slice of the input, or out of the input itself on the last chapter.
func (s *Splitter) eos() {
	if s.state != Exporting || s.idx >= len(s.chapters) {
		return
	}
	if s.stopping {
		// The engine signalled the end of the run instead of a pause
		// confirmation; the graph is idle either way.
		s.stopping = false
		s.completeJobLocked()
		return
	}
	s.finishJobLocked(nil)
}

// graphError converts an asynchronous engine failure into a chapter outcome
// and applies the continue-vs-abort policy.
func (s *Splitter) graphError(err error) bool {
	if s.state != Exporting || s.idx >= len(s.chapters) {
		return false
	}
	s.finishJobLocked(err)
	return true
}

// finishJobLocked asks the graph to stop and remembers the outcome to
// record. The sub-job completes once the engine confirms the pause: a
// process-backed graph keeps writing until then, so promoting the output or
// repointing the graph now would race the engine. Callers hold the lock.
func (s *Splitter) finishJobLocked(jobErr error) {
	if s.stopping {
		if s.jobErr == nil {
			s.jobErr = jobErr
		}
		return
	}
	s.stopping = true
	s.jobErr = jobErr
	if err := s.graph.SetState(engine.StatePaused); err != nil {
		if s.jobErr == nil {
			s.jobErr = mediaerr.Wrap(mediaerr.ErrStateChange, "split", "engine refused pause", err)
		}
		s.stopping = false
		s.completeJobLocked()
	}
}

// completeJobLocked records the outcome of the stopped sub-job and either
// advances, aborts, or completes the run. Callers hold the lock.
func (s *Splitter) completeJobLocked() {
	jobErr := s.jobErr
	s.jobErr = nil

	ch := s.chapters[s.idx]
	outcome := ChapterOutcome{Index: s.idx, Title: ch.Title(), Path: s.current}

	if jobErr == nil {
		if err := fileutil.Promote(s.current); err != nil {
			jobErr = mediaerr.Wrap(mediaerr.ErrIO, "split", s.current, err)
		}
	}
	if jobErr != nil {
		fileutil.Discard(s.current)
		outcome.Err = &mediaerr.ChapterFailure{
			Index: s.idx,
			Title: ch.Title(),
			Path:  s.current,
			Err:   jobErr,
		}
	}

	s.outcomes = append(s.outcomes, outcome)
	s.doneDur += ch.Duration()
	s.idx++
	s.current = ""
	s.sendLocked(Notification{
		State:    Exporting,
		Position: s.lastPos,
		Progress: s.progressLocked(0),
		Chapter:  &outcome,
	})

	if outcome.Err != nil && !s.req.ContinueOnError {
		s.failLocked(outcome.Err)
		return
	}
	if s.idx >= len(s.chapters) {
		s.state = Completed
		s.logger.Info("split complete",
			logging.Int("chapters", len(s.chapters)),
			logging.String("output_dir", s.req.OutputDir))
		s.sendLocked(Notification{State: Completed, Position: s.lastPos, Progress: 1})
		return
	}
	s.startJobLocked()
}

// progressLocked reports processed chapter time over total chapter time,
// with pos measured inside the current chapter. Callers hold the lock.
func (s *Splitter) progressLocked(pos timecode.Timestamp) float64 {
	if s.totalDur == 0 {
		return 0
	}
	done := s.doneDur
	if pos > 0 && s.idx < len(s.chapters) {
		ch := s.chapters[s.idx]
		if pos > ch.Start {
			done += pos.SaturatingSub(ch.Start)
		}
	}
	p := float64(done) / float64(s.totalDur)
	if p > 1 {
		p = 1
	}
	return p
}

// Close tears the pipeline down, discarding the partial file of an
// interrupted sub-job.
func (s *Splitter) Close() error {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()
	err := s.core.Close()
	if current != "" {
		fileutil.Discard(current)
	}
	return err
}
