package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"mediatoc/internal/engine"
	"mediatoc/internal/mediaerr"
	"mediatoc/internal/mediainfo"
	"mediatoc/internal/timecode"
	"mediatoc/internal/toc"
)

const eventBuffer = 64

// graph supervises one ffmpeg process at a time. The toc-setter kind runs a
// single remux process for its whole life; the splitter kind runs one
// process per sub-job, restarted by SetState(Playing) after Seek and
// SetOutput repoint it.
type graph struct {
	eng  *Engine
	spec engine.GraphSpec

	mu       sync.Mutex
	info     *mediainfo.Info
	state    engine.State
	base     timecode.Timestamp // input offset of the running process
	stopAt   timecode.Timestamp // hard end of the running process, 0 = none
	position timecode.Timestamp
	output   string
	proc     *exec.Cmd
	cancel   context.CancelFunc
	procDone chan struct{}
	stopping bool
	closed   bool

	events chan engine.Event
}

var _ engine.Graph = (*graph)(nil)
var _ engine.RangeSetter = (*graph)(nil)

func newGraph(eng *Engine, spec engine.GraphSpec) *graph {
	return &graph{
		eng:    eng,
		spec:   spec,
		output: spec.Output,
		events: make(chan engine.Event, eventBuffer),
	}
}

// start inspects the input asynchronously; the snapshot arrives as the
// first event.
func (g *graph) start(ctx context.Context) {
	go func() {
		info, err := inspect(ctx, g.eng.ffprobe, g.spec.Input)
		if err != nil {
			g.emit(engine.Error{Err: err})
			return
		}
		g.mu.Lock()
		g.info = info
		g.mu.Unlock()
		g.emit(engine.InfoReady{Info: info})
	}()
}

func (g *graph) Events() <-chan engine.Event { return g.events }

func (g *graph) emit(ev engine.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.emitLocked(ev)
}

func (g *graph) emitLocked(ev engine.Event) {
	if g.closed {
		return
	}
	select {
	case g.events <- ev:
	default:
		// A stalled consumer only costs position ticks.
		if _, ok := ev.(engine.PositionTick); !ok {
			g.events <- ev
		}
	}
}

func (g *graph) SetState(state engine.State) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return engine.ErrGraphClosed
	}
	switch state {
	case engine.StatePlaying:
		if g.proc != nil {
			g.emitLocked(engine.AsyncDone{State: engine.StatePlaying})
			return nil
		}
		if err := g.launchLocked(); err != nil {
			return err
		}
		g.state = engine.StatePlaying
		g.emitLocked(engine.AsyncDone{State: engine.StatePlaying})
		return nil
	case engine.StatePaused:
		g.state = engine.StatePaused
		if g.proc != nil {
			g.stopping = true
			g.interruptLocked()
		} else {
			g.emitLocked(engine.AsyncDone{State: engine.StatePaused})
		}
		return nil
	default:
		return fmt.Errorf("ffmpeg adapter: unsupported state %s", state)
	}
}

func (g *graph) Seek(target timecode.Timestamp) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return engine.ErrGraphClosed
	}
	if g.proc != nil {
		return fmt.Errorf("ffmpeg adapter: seek while a process is running")
	}
	g.base = target
	g.position = target
	g.emitLocked(engine.SeekDone{Position: target})
	return nil
}

func (g *graph) Position() (timecode.Timestamp, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.position, true
}

func (g *graph) Duration() (timecode.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.info == nil || g.info.Duration == 0 {
		return 0, false
	}
	return g.info.Duration, true
}

func (g *graph) SelectStreams([]string) error {
	return engine.ErrLiveSelection
}

func (g *graph) SetOutput(path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return engine.ErrGraphClosed
	}
	if g.proc != nil {
		return fmt.Errorf("ffmpeg adapter: output change while a process is running")
	}
	g.output = path
	return nil
}

// StopAt gives the next process a hard end position. The process then runs
// the [base, stopAt) slice of the input and exits on its own.
func (g *graph) StopAt(ts timecode.Timestamp) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return engine.ErrGraphClosed
	}
	if g.proc != nil {
		return fmt.Errorf("ffmpeg adapter: stop change while a process is running")
	}
	g.stopAt = ts
	return nil
}

func (g *graph) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.stopping = true
	if g.cancel != nil {
		g.cancel()
	}
	done := g.procDone
	g.mu.Unlock()

	if done != nil {
		<-done
	}
	close(g.events)
	return nil
}

// launchLocked builds and starts the ffmpeg process for the current
// sub-job. Callers hold the lock.
func (g *graph) launchLocked() error {
	if g.output == "" {
		return fmt.Errorf("ffmpeg adapter: no output path set")
	}

	args, cleanup, err := g.buildArgs()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, g.eng.ffmpeg, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		cleanup()
		return fmt.Errorf("ffmpeg adapter: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		cleanup()
		return mediaerr.Wrap(mediaerr.ErrIO, "ffmpeg", g.output, err)
	}

	g.proc = cmd
	g.cancel = cancel
	g.procDone = make(chan struct{})
	done := g.procDone
	base := g.base

	go g.watchProgress(stdout, base)
	go func() {
		defer close(done)
		defer cleanup()
		defer cancel()
		err := cmd.Wait()

		g.mu.Lock()
		defer g.mu.Unlock()
		g.proc = nil
		g.cancel = nil
		g.procDone = nil
		wasStopping := g.stopping
		g.stopping = false
		g.state = engine.StatePaused

		switch {
		case g.closed:
		case wasStopping:
			g.emitLocked(engine.AsyncDone{State: engine.StatePaused})
		case err != nil:
			g.emitLocked(engine.Error{Err: mediaerr.Wrap(mediaerr.ErrIO, "ffmpeg", g.output,
				fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())))})
		default:
			g.emitLocked(engine.EndOfStream{})
		}
	}()
	return nil
}

// interruptLocked asks a running process to finish its output and exit.
// Callers hold the lock.
func (g *graph) interruptLocked() {
	if g.proc == nil || g.proc.Process == nil {
		return
	}
	// SIGINT makes ffmpeg finalize the container before exiting.
	_ = g.proc.Process.Signal(os.Interrupt)
}

// buildArgs assembles the command line for the current sub-job and returns
// a cleanup for any temporary sidecar file.
func (g *graph) buildArgs() ([]string, func(), error) {
	common := []string{
		"-y", "-nostdin", "-hide_banner", "-v", "error",
		"-nostats", "-progress", "pipe:1",
	}
	cleanup := func() {}

	switch g.spec.Kind {
	case engine.KindTocSetter:
		metaPath := g.output + ".ffmeta"
		if err := os.WriteFile(metaPath, chapterMetadata(g.spec.Toc), 0o644); err != nil {
			return nil, nil, mediaerr.Wrap(mediaerr.ErrIO, "chapter metadata", metaPath, err)
		}
		cleanup = func() { _ = os.Remove(metaPath) }

		args := append(common, "-i", g.spec.Input, "-i", metaPath, "-map_metadata", "1")
		args = append(args, mapArgs(g.spec.Streams)...)
		args = append(args, "-c", "copy", "-f", "matroska", g.output)
		return args, cleanup, nil

	case engine.KindSplitter:
		args := common
		if g.base > 0 {
			args = append(args, "-ss", formatSeconds(g.base))
		}
		args = append(args, "-i", g.spec.Input)
		if g.stopAt > g.base {
			args = append(args, "-t", formatSeconds(g.stopAt.SaturatingSub(g.base)))
		}
		args = append(args, mapArgs(g.spec.Streams)...)
		args = append(args, "-vn", "-c:a", encoderTable[g.spec.Encoder])
		args = append(args, "-f", outputFormat(g.spec), g.output)
		return args, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("ffmpeg adapter: %s graphs are not supported", g.spec.Kind)
	}
}

// watchProgress translates ffmpeg's -progress reports into position ticks.
func (g *graph) watchProgress(r io.Reader, base timecode.Timestamp) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		// out_time_ms is historically also microseconds.
		if key != "out_time_us" && key != "out_time_ms" {
			continue
		}
		us, err := strconv.ParseInt(value, 10, 64)
		if err != nil || us < 0 {
			continue
		}
		pos := base.Add(timecode.Duration(us) * timecode.Microsecond)
		g.mu.Lock()
		g.position = pos
		g.emitLocked(engine.PositionTick{Position: pos})
		g.mu.Unlock()
	}
}

// mapArgs converts engine stream ids into ffmpeg -map selectors. An empty
// selection maps the whole input.
func mapArgs(ids []string) []string {
	if len(ids) == 0 {
		return []string{"-map", "0"}
	}
	args := make([]string, 0, 2*len(ids))
	for _, id := range ids {
		kind, idx, ok := strings.Cut(id, "_")
		if !ok {
			continue
		}
		var selector string
		switch kind {
		case "video":
			selector = "0:v:" + idx
		case "audio":
			selector = "0:a:" + idx
		case "text":
			selector = "0:s:" + idx
		default:
			continue
		}
		args = append(args, "-map", selector)
	}
	if len(args) == 0 {
		return []string{"-map", "0"}
	}
	return args
}

// outputFormat resolves the container format for a splitter process from
// the abstract muxer element, falling back to the encoder's native
// container.
func outputFormat(spec engine.GraphSpec) string {
	if el, ok := elementTable[spec.Muxer]; ok && el.kind == "muxer" {
		return el.name
	}
	if el, ok := elementTable[spec.Encoder]; ok && el.kind == "muxer" {
		return el.name
	}
	if spec.Encoder == "flacenc" {
		return "flac"
	}
	return "matroska"
}

func formatSeconds(ts timecode.Timestamp) string {
	return strconv.FormatFloat(ts.Seconds(), 'f', 6, 64)
}

// chapterMetadata renders a TOC in ffmetadata form for -map_metadata.
func chapterMetadata(table *toc.Toc) []byte {
	var b bytes.Buffer
	b.WriteString(";FFMETADATA1\n")
	if table == nil {
		return b.Bytes()
	}
	for _, ch := range table.Chapters() {
		b.WriteString("[CHAPTER]\n")
		b.WriteString("TIMEBASE=1/1000000000\n")
		fmt.Fprintf(&b, "START=%d\n", ch.Start.Nanos())
		fmt.Fprintf(&b, "END=%d\n", ch.End.Nanos())
		fmt.Fprintf(&b, "title=%s\n", escapeMetadata(ch.Title()))
	}
	return b.Bytes()
}

// escapeMetadata backslash-escapes the characters the ffmetadata format
// treats specially.
func escapeMetadata(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch r {
		case '=', ';', '#', '\\', '\n':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
