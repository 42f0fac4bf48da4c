package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"mediatoc/internal/engine"
	"mediatoc/internal/logging"
	"mediatoc/internal/mediaerr"
	"mediatoc/internal/timecode"
)

// PlaybackOptions configure a playback pipeline. The struct is threaded in
// at construction so behavior stays reproducible in tests.
type PlaybackOptions struct {
	// DisableHardwareAccel builds graphs without hardware-accelerated
	// rendering. It can only change between opens, never on a live graph.
	DisableHardwareAccel bool
}

// Playback specializes the core for interactive play/pause/seek with live
// position reporting.
type Playback struct {
	*core
	opts PlaybackOptions

	// staged stream selection applied on the next open when the engine
	// cannot renegotiate a live graph.
	staged []string
}

// NewPlayback constructs an unopened playback pipeline.
func NewPlayback(eng engine.Engine, opts PlaybackOptions, logger *slog.Logger) *Playback {
	p := &Playback{
		core: newCore(eng, logging.WithComponent(logger, "playback")),
		opts: opts,
	}
	p.core.hooks = hooks{
		graphError: p.classifyError,
	}
	return p
}

// playbackRequirements are probed before building a playback graph.
var playbackRequirements = []engine.Requirement{
	{Name: "decodebin", Description: "stream decoding"},
	{Name: "audioconvert", Description: "audio rendering"},
	{Name: "videosink", Description: "video rendering", Optional: true},
}

// Open builds a playback graph for path. Ready(info) is reported by
// notification once the engine finishes inspecting the file.
func (p *Playback) Open(ctx context.Context, path string) error {
	spec := engine.GraphSpec{
		Kind:                 engine.KindPlayback,
		Input:                path,
		Streams:              p.takeStaged(),
		DisableHardwareAccel: p.opts.DisableHardwareAccel,
	}
	return p.open(ctx, playbackRequirements, spec)
}

// Seek repositions playback, clamping to the media duration.
func (p *Playback) Seek(target timecode.Timestamp) error {
	return p.SeekTo(target)
}

// SelectStreams switches the active stream subset. When the engine supports
// live renegotiation the switch applies immediately and a refresh
// notification follows; otherwise the selection is staged for the next Open.
func (p *Playback) SelectStreams(ids []string) error {
	p.mu.Lock()
	graph := p.graph
	state := p.state
	p.mu.Unlock()

	if graph == nil || state == Unopened || state.Terminal() {
		p.stage(ids)
		return nil
	}
	if err := graph.SelectStreams(ids); err != nil {
		if errors.Is(err, engine.ErrLiveSelection) {
			p.stage(ids)
			return nil
		}
		return err
	}
	return nil
}

func (p *Playback) stage(ids []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.staged = append([]string(nil), ids...)
	if p.info != nil {
		p.info.SelectStreams(ids)
	}
}

func (p *Playback) takeStaged() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	staged := p.staged
	p.staged = nil
	return staged
}

// classifyError surfaces hardware-acceleration failures under their own
// sentinel so the caller can persist a disable-accel preference; everything
// else falls through to the generic failure path.
func (p *Playback) classifyError(err error) bool {
	if errors.Is(err, mediaerr.ErrHardwareAccel) && !p.opts.DisableHardwareAccel {
		p.logger.Warn("hardware acceleration failed, suggest disabling for next run",
			logging.Error(err))
	}
	return false
}
