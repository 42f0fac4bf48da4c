// Package enginetest provides a scriptable in-memory engine for exercising
// pipeline state machines without real media. Tests either let the fake
// confirm commands automatically or feed hand-built event sequences.
package enginetest

import (
	"context"
	"fmt"
	"sync"

	"mediatoc/internal/engine"
	"mediatoc/internal/mediainfo"
	"mediatoc/internal/timecode"
)

// Engine is a fake engine.Engine. The zero value has every capability and
// builds graphs that confirm commands immediately.
type Engine struct {
	mu sync.Mutex

	// Missing lists element names Probe reports as unavailable.
	Missing []string

	// BuildErr, when set, fails every Build call.
	BuildErr error

	// Info is handed to graphs built by this engine; BuildGraph copies it
	// into the InfoReady event emitted on Start.
	Info *mediainfo.Info

	// LiveSelection controls whether graphs accept SelectStreams while
	// live; when false the graphs return engine.ErrLiveSelection.
	LiveSelection bool

	// Manual disables automatic confirmations on built graphs: the test
	// drives every event through Graph.Emit.
	Manual bool

	// Strict makes built graphs enforce the process-engine command
	// contract: Seek, SetOutput, and StopAt fail while the graph is
	// playing, the way the ffmpeg adapter's graphs do.
	Strict bool

	built []*Graph
	specs []engine.GraphSpec
}

var _ engine.Engine = (*Engine)(nil)

func (e *Engine) Probe(_ context.Context, requirements []engine.Requirement) []engine.CapabilityStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]engine.CapabilityStatus, 0, len(requirements))
	for _, req := range requirements {
		status := engine.CapabilityStatus{Requirement: req, Available: true}
		for _, missing := range e.Missing {
			if missing == req.Name {
				status.Available = false
				status.Detail = fmt.Sprintf("element %q not installed", req.Name)
			}
		}
		out = append(out, status)
	}
	return out
}

func (e *Engine) Build(_ context.Context, spec engine.GraphSpec) (engine.Graph, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.BuildErr != nil {
		return nil, e.BuildErr
	}
	info := e.Info
	if info == nil {
		info = &mediainfo.Info{
			Path:     spec.Input,
			Duration: 40 * timecode.Second,
			Streams: []mediainfo.Stream{
				{ID: "audio_0", Kind: mediainfo.KindAudio, Codec: "flac", Rate: 44100, Channels: 2},
			},
		}
	}
	g := &Graph{
		spec:          spec,
		info:          info.Clone(),
		auto:          !e.Manual,
		strict:        e.Strict,
		liveSelection: e.LiveSelection,
		events:        make(chan engine.Event, 64),
	}
	// The build is asynchronous from the pipeline's point of view: the
	// snapshot arrives as the first event.
	g.Emit(engine.InfoReady{Info: g.info.Clone()})
	e.built = append(e.built, g)
	e.specs = append(e.specs, spec)
	return g, nil
}

// Graphs returns every graph built so far.
func (e *Engine) Graphs() []*Graph {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Graph(nil), e.built...)
}

// LastGraph returns the most recently built graph.
func (e *Engine) LastGraph() *Graph {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.built) == 0 {
		return nil
	}
	return e.built[len(e.built)-1]
}

// Specs returns the graph specs of every Build call.
func (e *Engine) Specs() []engine.GraphSpec {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engine.GraphSpec(nil), e.specs...)
}

// Graph is a fake engine.Graph.
type Graph struct {
	mu sync.Mutex

	spec          engine.GraphSpec
	info          *mediainfo.Info
	auto          bool
	strict        bool
	liveSelection bool

	state    engine.State
	position timecode.Timestamp
	outputs  []string
	seeks    []timecode.Timestamp
	stops    []timecode.Timestamp
	states   []engine.State
	selected [][]string

	// StateErr/SeekErr/OutputErr make the corresponding command fail.
	StateErr  error
	SeekErr   error
	OutputErr error

	events chan engine.Event
	closed bool
}

var _ engine.Graph = (*Graph)(nil)
var _ engine.RangeSetter = (*Graph)(nil)

func (g *Graph) Events() <-chan engine.Event { return g.events }

// Emit delivers an event to the pipeline unless the graph is closed.
func (g *Graph) Emit(ev engine.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.emitLocked(ev)
}

func (g *Graph) emitLocked(ev engine.Event) {
	if g.closed {
		return
	}
	// The graph's state follows confirmations, not requests, the way a
	// process-backed graph stays live until its process actually exits.
	if done, ok := ev.(engine.AsyncDone); ok {
		g.state = done.State
	}
	g.events <- ev
}

func (g *Graph) SetState(state engine.State) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return engine.ErrGraphClosed
	}
	if g.StateErr != nil {
		return g.StateErr
	}
	g.states = append(g.states, state)
	if g.auto {
		g.emitLocked(engine.AsyncDone{State: state})
	}
	return nil
}

func (g *Graph) Seek(target timecode.Timestamp) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return engine.ErrGraphClosed
	}
	if g.SeekErr != nil {
		return g.SeekErr
	}
	if g.strict && g.state == engine.StatePlaying {
		return fmt.Errorf("enginetest: seek while playing")
	}
	g.seeks = append(g.seeks, target)
	g.position = target
	if g.auto {
		g.emitLocked(engine.SeekDone{Position: target})
	}
	return nil
}

func (g *Graph) Position() (timecode.Timestamp, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.position, true
}

// SetPosition moves the fake playhead without emitting events.
func (g *Graph) SetPosition(ts timecode.Timestamp) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.position = ts
}

func (g *Graph) Duration() (timecode.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.info == nil || g.info.Duration == 0 {
		return 0, false
	}
	return g.info.Duration, true
}

func (g *Graph) SelectStreams(ids []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return engine.ErrGraphClosed
	}
	if !g.liveSelection {
		return engine.ErrLiveSelection
	}
	g.selected = append(g.selected, append([]string(nil), ids...))
	if g.auto {
		g.emitLocked(engine.StreamsChanged{Selected: append([]string(nil), ids...)})
	}
	return nil
}

func (g *Graph) SetOutput(path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return engine.ErrGraphClosed
	}
	if g.OutputErr != nil {
		return g.OutputErr
	}
	if g.strict && g.state == engine.StatePlaying {
		return fmt.Errorf("enginetest: output change while playing")
	}
	g.outputs = append(g.outputs, path)
	return nil
}

// StopAt records the requested end position of the next run.
func (g *Graph) StopAt(ts timecode.Timestamp) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return engine.ErrGraphClosed
	}
	if g.strict && g.state == engine.StatePlaying {
		return fmt.Errorf("enginetest: stop change while playing")
	}
	g.stops = append(g.stops, ts)
	return nil
}

func (g *Graph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	close(g.events)
	return nil
}

// Closed reports whether Close was called.
func (g *Graph) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// Spec returns the spec the graph was built from.
func (g *Graph) Spec() engine.GraphSpec { return g.spec }

// Seeks returns every seek target received.
func (g *Graph) Seeks() []timecode.Timestamp {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]timecode.Timestamp(nil), g.seeks...)
}

// Stops returns every StopAt position received.
func (g *Graph) Stops() []timecode.Timestamp {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]timecode.Timestamp(nil), g.stops...)
}

// States returns every SetState request received.
func (g *Graph) States() []engine.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]engine.State(nil), g.states...)
}

// Outputs returns every SetOutput path received.
func (g *Graph) Outputs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.outputs...)
}

// Selections returns every SelectStreams call received.
func (g *Graph) Selections() [][]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([][]string(nil), g.selected...)
}
