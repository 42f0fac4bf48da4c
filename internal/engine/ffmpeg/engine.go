package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"mediatoc/internal/engine"
	"mediatoc/internal/mediainfo"
)

// Options configure the adapter.
type Options struct {
	// FFmpegBinary and FFprobeBinary override the executables resolved
	// from PATH.
	FFmpegBinary  string
	FFprobeBinary string
}

// Engine drives ffmpeg/ffprobe processes behind the engine interfaces.
type Engine struct {
	ffmpeg  string
	ffprobe string

	capOnce sync.Once
	caps    capabilities
	capErr  error
}

var _ engine.Engine = (*Engine)(nil)

// New returns an adapter using the given binaries, defaulting to "ffmpeg"
// and "ffprobe" from PATH.
func New(opts Options) *Engine {
	e := &Engine{
		ffmpeg:  strings.TrimSpace(opts.FFmpegBinary),
		ffprobe: strings.TrimSpace(opts.FFprobeBinary),
	}
	if e.ffmpeg == "" {
		e.ffmpeg = "ffmpeg"
	}
	if e.ffprobe == "" {
		e.ffprobe = "ffprobe"
	}
	return e
}

// Inspect probes a media file with ffprobe and returns its snapshot without
// building a graph.
func (e *Engine) Inspect(ctx context.Context, path string) (*mediainfo.Info, error) {
	return inspect(ctx, e.ffprobe, path)
}

// capabilities caches the muxer and encoder inventories reported by the
// ffmpeg binary.
type capabilities struct {
	muxers   map[string]bool
	encoders map[string]bool
}

// element maps an abstract element name onto the ffmpeg feature that
// provides it.
type element struct {
	kind string // "binary", "muxer", or "encoder"
	name string
}

// elementTable translates the element names the pipelines probe for. The
// names follow the processing-graph convention (demuxers, converters,
// encoders, muxers as discrete elements); ffmpeg bundles the first two into
// the binary itself.
var elementTable = map[string]element{
	"decodebin":    {kind: "binary"},
	"audioconvert": {kind: "binary"},
	"videosink":    {kind: "none"}, // no interactive rendering in this adapter
	"matroskamux":  {kind: "muxer", name: "matroska"},
	"oggmux":       {kind: "muxer", name: "ogg"},
	"id3mux":       {kind: "muxer", name: "mp3"},
	"wavenc":       {kind: "muxer", name: "wav"},
	"flacenc":      {kind: "encoder", name: "flac"},
	"vorbisenc":    {kind: "encoder", name: "libvorbis"},
	"opusenc":      {kind: "encoder", name: "libopus"},
	"lamemp3enc":   {kind: "encoder", name: "libmp3lame"},
}

// encoderTable maps abstract encoder element names to the ffmpeg codec
// passed on the command line. wavenc carries no encoder element; the wav
// muxer implies pcm.
var encoderTable = map[string]string{
	"flacenc":    "flac",
	"vorbisenc":  "libvorbis",
	"opusenc":    "libopus",
	"lamemp3enc": "libmp3lame",
	"wavenc":     "pcm_s16le",
}

// Probe reports availability of the named elements.
func (e *Engine) Probe(ctx context.Context, requirements []engine.Requirement) []engine.CapabilityStatus {
	out := make([]engine.CapabilityStatus, 0, len(requirements))
	for _, req := range requirements {
		status := engine.CapabilityStatus{Requirement: req}
		status.Available, status.Detail = e.checkElement(ctx, req.Name)
		out = append(out, status)
	}
	return out
}

func (e *Engine) checkElement(ctx context.Context, name string) (bool, string) {
	el, known := elementTable[name]
	if !known {
		return false, fmt.Sprintf("unknown element %q", name)
	}
	switch el.kind {
	case "none":
		return false, "not supported by the ffmpeg adapter"
	case "binary":
		if _, err := exec.LookPath(e.ffmpeg); err != nil {
			return false, fmt.Sprintf("binary %q not found", e.ffmpeg)
		}
		return true, ""
	}

	caps, err := e.capabilities(ctx)
	if err != nil {
		return false, err.Error()
	}
	switch el.kind {
	case "muxer":
		if !caps.muxers[el.name] {
			return false, fmt.Sprintf("ffmpeg muxer %q not available", el.name)
		}
	case "encoder":
		if !caps.encoders[el.name] {
			return false, fmt.Sprintf("ffmpeg encoder %q not available", el.name)
		}
	}
	return true, ""
}

// capabilities runs the inventory commands once and caches the result.
func (e *Engine) capabilities(ctx context.Context) (capabilities, error) {
	e.capOnce.Do(func() {
		muxers, err := e.inventory(ctx, "-muxers")
		if err != nil {
			e.capErr = err
			return
		}
		encoders, err := e.inventory(ctx, "-encoders")
		if err != nil {
			e.capErr = err
			return
		}
		e.caps = capabilities{muxers: muxers, encoders: encoders}
	})
	return e.caps, e.capErr
}

func (e *Engine) inventory(ctx context.Context, flag string) (map[string]bool, error) {
	cmd := exec.CommandContext(ctx, e.ffmpeg, "-hide_banner", flag)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg %s: %w", flag, err)
	}
	return parseInventory(string(output)), nil
}

// parseInventory extracts the name column from ffmpeg -muxers/-encoders
// listings. Lines look like " DE matroska   Matroska" or
// " A....D flac   FLAC (Free Lossless Audio Codec)".
func parseInventory(listing string) map[string]bool {
	names := make(map[string]bool)
	seenHeader := false
	for _, line := range strings.Split(listing, "\n") {
		if !seenHeader {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				seenHeader = true
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		// The first field carries the capability flags; names may list
		// several comma-separated aliases.
		for _, name := range strings.Split(fields[1], ",") {
			if name != "" {
				names[name] = true
			}
		}
	}
	return names
}

// Build constructs a graph for the spec. Playback graphs are not supported
// by this adapter.
func (e *Engine) Build(ctx context.Context, spec engine.GraphSpec) (engine.Graph, error) {
	switch spec.Kind {
	case engine.KindTocSetter, engine.KindSplitter:
	default:
		return nil, fmt.Errorf("ffmpeg adapter: %s graphs are not supported", spec.Kind)
	}
	if spec.Kind == engine.KindSplitter {
		if encoderTable[spec.Encoder] == "" {
			return nil, fmt.Errorf("ffmpeg adapter: unknown encoder element %q", spec.Encoder)
		}
	}
	g := newGraph(e, spec)
	g.start(ctx)
	return g, nil
}
