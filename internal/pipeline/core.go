package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"mediatoc/internal/engine"
	"mediatoc/internal/logging"
	"mediatoc/internal/mediaerr"
	"mediatoc/internal/mediainfo"
	"mediatoc/internal/timecode"
)

// notifyBuffer sizes the subscription channel. When a subscriber lags, the
// oldest notification is dropped so the newest state stays visible.
const notifyBuffer = 128

// hooks let a flavor extend the core machine without subclassing. Every hook
// runs on the event loop with the core lock held and must not block.
type hooks struct {
	// openingDone maps InfoReady onto the state to enter; nil means Ready.
	openingDone func(info *mediainfo.Info) State
	// asyncDone intercepts engine transition confirmations for flavors that
	// drive the graph directly; returning true means handled.
	asyncDone func(state engine.State) bool
	// tick observes position reports while the graph runs.
	tick func(pos timecode.Timestamp)
	// eos handles end-of-stream; nil pauses a playing graph.
	eos func()
	// graphError intercepts engine errors; returning true means handled
	// (the core does not enter Failed).
	graphError func(err error) bool
	// streamsChanged observes completed live stream re-selections.
	streamsChanged func(ids []string)
}

// core is the generic lifecycle shared by the three pipeline flavors.
type core struct {
	eng    engine.Engine
	logger *slog.Logger
	hooks  hooks

	mu           sync.Mutex
	state        State
	failure      error
	info         *mediainfo.Info
	graph        engine.Graph
	lastPos      timecode.Timestamp
	pendingState *engine.State
	seekTarget   timecode.Timestamp
	seekPending  int
	resumeState  State
	closed       bool
	notifsClosed bool

	notifs   chan Notification
	loopDone chan struct{}
}

func newCore(eng engine.Engine, logger *slog.Logger) *core {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &core{
		eng:      eng,
		logger:   logger,
		state:    Unopened,
		notifs:   make(chan Notification, notifyBuffer),
		loopDone: make(chan struct{}),
	}
}

// Notifications returns the subscription channel carrying (state, position)
// updates. The channel is closed by Close.
func (c *core) Notifications() <-chan Notification { return c.notifs }

// State returns the current lifecycle state.
func (c *core) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the failure that moved the pipeline to Failed, if any.
func (c *core) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failure
}

// Info returns a copy of the media snapshot produced by open.
func (c *core) Info() *mediainfo.Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.Clone()
}

// open probes the required capabilities, builds the graph, and starts the
// event loop. It returns synchronously; Ready is reported by notification
// once the engine finishes inspecting the media.
func (c *core) open(ctx context.Context, reqs []engine.Requirement, spec engine.GraphSpec) error {
	c.mu.Lock()
	if c.closed || c.state.Terminal() {
		c.mu.Unlock()
		return mediaerr.Wrap(mediaerr.ErrTerminal, "open", spec.Input, nil)
	}
	if c.state != Unopened {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("open: invalid from state %s", state)
	}
	c.state = Opening
	c.sendLocked(Notification{State: Opening})
	c.mu.Unlock()

	c.logger.Info("opening media",
		logging.String("input", spec.Input),
		logging.String("kind", spec.Kind.String()))

	if missing, ok := engine.FirstMissing(c.eng.Probe(ctx, reqs)); ok {
		err := &mediaerr.MissingCapability{Element: missing.Name, Detail: missing.Detail}
		c.failCommand("open", err)
		return err
	}

	graph, err := c.eng.Build(ctx, spec)
	if err != nil {
		c.failCommand("open", err)
		return err
	}

	c.mu.Lock()
	c.graph = graph
	c.mu.Unlock()
	go c.run(graph)
	return nil
}

// run consumes the graph's event stream until the graph closes it.
func (c *core) run(graph engine.Graph) {
	for ev := range graph.Events() {
		c.handle(ev)
	}
	close(c.loopDone)
}

func (c *core) handle(ev engine.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Notifications arriving after cancellation or failure are discarded.
	if c.closed || c.state.Terminal() {
		return
	}

	switch ev := ev.(type) {
	case engine.InfoReady:
		if c.state != Opening {
			return
		}
		c.info = ev.Info
		next := Ready
		if c.hooks.openingDone != nil {
			next = c.hooks.openingDone(ev.Info)
		}
		c.state = next
		c.sendLocked(Notification{State: next})

	case engine.AsyncDone:
		if c.hooks.asyncDone != nil && c.hooks.asyncDone(ev.State) {
			return
		}
		if c.pendingState == nil || ev.State != *c.pendingState {
			// Confirmation of a superseded transition; informational.
			return
		}
		c.pendingState = nil
		switch ev.State {
		case engine.StatePlaying:
			if c.state == Exporting {
				return
			}
			c.state = Playing
		case engine.StatePaused:
			if c.state == Exporting {
				return
			}
			c.state = Paused
		default:
			return
		}
		c.sendLocked(Notification{State: c.state, Position: c.lastPos})

	case engine.SeekDone:
		if c.state != Seeking {
			// The flavor drives its own seeks; never regress.
			return
		}
		// A confirmation at the newest target always completes the seek.
		// Otherwise it is either a superseded seek (more confirmations
		// outstanding) or the engine landed near, not at, the target.
		if ev.Position != c.seekTarget && c.seekPending > 1 {
			c.seekPending--
			return
		}
		c.seekPending = 0
		c.lastPos = ev.Position
		c.state = c.resumeState
		c.sendLocked(Notification{State: c.state, Position: c.lastPos})

	case engine.PositionTick:
		if c.state == Seeking {
			return
		}
		c.lastPos = ev.Position
		if c.hooks.tick != nil {
			c.hooks.tick(ev.Position)
			return
		}
		c.sendLocked(Notification{State: c.state, Position: ev.Position})

	case engine.StreamsChanged:
		if c.hooks.streamsChanged != nil {
			c.hooks.streamsChanged(ev.Selected)
		}
		if c.info != nil {
			c.info.SelectStreams(ev.Selected)
		}
		c.sendLocked(Notification{State: c.state, Position: c.lastPos})

	case engine.EndOfStream:
		if c.hooks.eos != nil {
			c.hooks.eos()
			return
		}
		// Playback semantics: the media ran out, the graph idles.
		if c.state == Playing || c.state == Seeking {
			c.state = Paused
		}
		c.pendingState = nil
		c.seekPending = 0
		c.sendLocked(Notification{State: c.state, Position: c.lastPos})

	case engine.Error:
		if c.hooks.graphError != nil && c.hooks.graphError(ev.Err) {
			return
		}
		c.failLocked(ev.Err)
	}
}

// Play requests the Playing state. Valid from Ready and Paused (and Playing,
// where it is a no-op request the engine re-confirms).
func (c *core) Play() error { return c.requestState(engine.StatePlaying, "play") }

// Pause requests the Paused state.
func (c *core) Pause() error { return c.requestState(engine.StatePaused, "pause") }

func (c *core) requestState(target engine.State, op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state.Terminal() {
		return mediaerr.Wrap(mediaerr.ErrTerminal, op, c.state.String(), nil)
	}
	if !c.state.playable() {
		return fmt.Errorf("%s: invalid from state %s", op, c.state)
	}
	if c.pendingState != nil {
		return mediaerr.Wrap(mediaerr.ErrBusy, op, "state transition pending", nil)
	}
	if err := c.graph.SetState(target); err != nil {
		err = mediaerr.Wrap(mediaerr.ErrStateChange, op, "engine refused transition", err)
		c.failLocked(err)
		return err
	}
	c.pendingState = &target
	return nil
}

// SeekTo repositions the pipeline. The target is clamped to [0, duration].
// Concurrent seeks collapse to the newest target.
func (c *core) SeekTo(target timecode.Timestamp) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state.Terminal() {
		return mediaerr.Wrap(mediaerr.ErrTerminal, "seek", c.state.String(), nil)
	}
	if !c.state.playable() && c.state != Seeking {
		return fmt.Errorf("seek: invalid from state %s", c.state)
	}
	if c.pendingState != nil {
		return mediaerr.Wrap(mediaerr.ErrBusy, "seek", "state transition pending", nil)
	}

	if dur, ok := c.duration(); ok {
		target = target.Clamp(dur)
	}
	if c.state != Seeking {
		c.resumeState = c.state
		c.state = Seeking
	}
	c.seekTarget = target
	c.seekPending++
	if err := c.graph.Seek(target); err != nil {
		err = mediaerr.Wrap(mediaerr.ErrStateChange, "seek", "engine refused seek", err)
		c.failLocked(err)
		return err
	}
	c.sendLocked(Notification{State: Seeking, Position: c.lastPos})
	return nil
}

// Position reports the best-effort current position. During a seek it
// reports the last confirmed position, not the target.
func (c *core) Position() timecode.Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Seeking || c.graph == nil {
		return c.lastPos
	}
	if pos, ok := c.graph.Position(); ok {
		c.lastPos = pos
	}
	return c.lastPos
}

// duration returns the media duration from the graph or the snapshot.
// Callers hold the lock.
func (c *core) duration() (timecode.Duration, bool) {
	if c.graph != nil {
		if dur, ok := c.graph.Duration(); ok {
			return dur, true
		}
	}
	if c.info != nil && c.info.Duration > 0 {
		return c.info.Duration, true
	}
	return 0, false
}

// Cancel aborts the pipeline and releases engine resources. Equivalent to
// Close; both are idempotent and safe from any state.
func (c *core) Cancel() error { return c.Close() }

// Close flushes pending commands, tears the graph down synchronously, and
// closes the notification channel. Calling Close on a pipeline already in a
// terminal state only releases resources.
func (c *core) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	graph := c.graph
	cancelled := !c.state.Terminal()
	if cancelled {
		c.state = Cancelled
	}
	pos := c.lastPos
	c.mu.Unlock()

	if graph != nil {
		if err := graph.Close(); err != nil {
			c.logger.Warn("graph teardown", logging.Error(err))
		}
		<-c.loopDone
	}

	c.mu.Lock()
	if cancelled {
		c.sendLocked(Notification{State: Cancelled, Position: pos})
	}
	c.notifsClosed = true
	close(c.notifs)
	c.mu.Unlock()
	return nil
}

// failLocked moves the machine to Failed. Callers hold the lock.
func (c *core) failLocked(err error) {
	if c.state.Terminal() {
		return
	}
	c.state = Failed
	c.failure = err
	c.pendingState = nil
	c.seekPending = 0
	c.logger.Error("pipeline failed", logging.Error(err))
	c.sendLocked(Notification{State: Failed, Position: c.lastPos, Err: err})
}

// failCommand records a synchronous command failure.
func (c *core) failCommand(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger.Error("pipeline command failed", logging.String("op", op), logging.Error(err))
	c.failLocked(err)
}

// sendLocked delivers a notification, dropping the oldest entry when the
// subscriber lags. Callers hold the lock.
func (c *core) sendLocked(n Notification) {
	if c.notifsClosed {
		return
	}
	select {
	case c.notifs <- n:
		return
	default:
	}
	select {
	case <-c.notifs:
	default:
	}
	select {
	case c.notifs <- n:
	default:
	}
}
