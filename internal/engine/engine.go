package engine

import (
	"context"

	"mediatoc/internal/mediainfo"
	"mediatoc/internal/timecode"
	"mediatoc/internal/toc"
)

// GraphKind selects the topology a graph is built for.
type GraphKind int

const (
	// KindPlayback decodes the selected streams for interactive playback.
	KindPlayback GraphKind = iota
	// KindTocSetter re-muxes the input plus an in-memory TOC into a new
	// container.
	KindTocSetter
	// KindSplitter re-encodes one audio stream chapter by chapter into
	// separate files.
	KindSplitter
)

func (k GraphKind) String() string {
	switch k {
	case KindPlayback:
		return "playback"
	case KindTocSetter:
		return "toc-setter"
	case KindSplitter:
		return "splitter"
	default:
		return "unknown"
	}
}

// GraphSpec describes the graph a pipeline asks the engine to build. Fields
// beyond Kind and Input apply only to the kinds that use them.
type GraphSpec struct {
	Kind  GraphKind
	Input string

	// Output is the target container path for a toc-setter graph. A
	// splitter graph starts without an output; every sub-job sets one
	// with Graph.SetOutput before rolling.
	Output string

	// Streams restricts the graph to a subset of stream ids. Empty means
	// every stream.
	Streams []string

	// Toc carries the chapters a toc-setter graph embeds.
	Toc *toc.Toc

	// Encoder and Muxer name the engine elements a splitter graph encodes
	// with; empty for the other kinds.
	Encoder string
	Muxer   string

	// DisableHardwareAccel builds the graph without hardware-accelerated
	// rendering. Toggling requires a new graph.
	DisableHardwareAccel bool
}

// State is the engine-level graph state, a deliberately small subset of what
// real engines expose.
type State int

const (
	StateNull State = iota
	StatePaused
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateNull:
		return "null"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// Graph is one live processing graph. All methods issue commands without
// waiting for completion; confirmations and failures arrive on Events.
// Close tears the graph down synchronously and is idempotent; the event
// channel is closed once no further event will be delivered.
type Graph interface {
	// Events returns the ordered notification stream for this graph.
	Events() <-chan Event

	// SetState requests a transition to Paused or Playing. Completion is
	// signaled by an AsyncDone event.
	SetState(State) error

	// Seek repositions the graph. Completion is signaled by SeekDone. A
	// seek issued while another is in flight abandons the older target.
	Seek(target timecode.Timestamp) error

	// Position reports the current playback/processing position.
	Position() (timecode.Timestamp, bool)

	// Duration reports the media duration once known.
	Duration() (timecode.Duration, bool)

	// SelectStreams switches the active stream subset on a live graph.
	// Engines that cannot renegotiate live return ErrLiveSelection; the
	// selection then applies on the next graph build.
	SelectStreams(ids []string) error

	// SetOutput relocates the graph's output file. Valid only while the
	// graph is paused; used by the splitter between sub-jobs.
	SetOutput(path string) error

	// Close releases every engine resource before returning.
	Close() error
}

// RangeSetter is an optional Graph capability. A graph that can end its own
// run at a fixed position implements it; the splitter prefers it so chapter
// boundaries are cut by the engine instead of by notification timing. Like
// SetOutput, StopAt is only valid while the graph is stopped.
type RangeSetter interface {
	StopAt(ts timecode.Timestamp) error
}

// Engine builds graphs and answers capability probes.
type Engine interface {
	// Probe reports availability of the named elements without touching
	// any input or output file.
	Probe(ctx context.Context, requirements []Requirement) []CapabilityStatus

	// Build constructs a graph for the spec. The build itself is
	// asynchronous: the returned graph delivers InfoReady (carrying the
	// media snapshot) or an Error event once inspection completes.
	Build(ctx context.Context, spec GraphSpec) (Graph, error)
}

// Requirement names an engine element a workflow depends on.
type Requirement struct {
	Name        string // element name, e.g. a muxer or encoder
	Description string
	Optional    bool
}

// CapabilityStatus reports the availability of one requirement.
type CapabilityStatus struct {
	Requirement
	Available bool
	Detail    string
}

// FirstMissing returns the first non-optional unavailable capability.
func FirstMissing(statuses []CapabilityStatus) (CapabilityStatus, bool) {
	for _, st := range statuses {
		if !st.Available && !st.Optional {
			return st, true
		}
	}
	return CapabilityStatus{}, false
}

// Event is a notification emitted by a graph. Events for one graph are
// delivered in emission order.
type Event interface {
	isEvent()
}

// InfoReady reports that graph construction finished; Info is the immutable
// media snapshot.
type InfoReady struct {
	Info *mediainfo.Info
}

// AsyncDone confirms the completion of the most recent SetState request.
type AsyncDone struct {
	State State
}

// SeekDone confirms that a seek finished and where the graph landed.
type SeekDone struct {
	Position timecode.Timestamp
}

// EndOfStream reports that the graph consumed its whole input (or the whole
// requested segment).
type EndOfStream struct{}

// PositionTick is a periodic position report emitted while playing.
type PositionTick struct {
	Position timecode.Timestamp
}

// StreamsChanged reports a completed live stream re-selection.
type StreamsChanged struct {
	Selected []string
}

// Error reports an asynchronous engine failure. Classify Err with errors.Is
// against the mediaerr sentinels; hardware-acceleration failures are wrapped
// with mediaerr.ErrHardwareAccel.
type Error struct {
	Err error
}

func (InfoReady) isEvent()      {}
func (AsyncDone) isEvent()      {}
func (SeekDone) isEvent()       {}
func (EndOfStream) isEvent()    {}
func (PositionTick) isEvent()   {}
func (StreamsChanged) isEvent() {}
func (Error) isEvent()          {}
