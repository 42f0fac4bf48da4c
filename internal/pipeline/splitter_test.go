package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediatoc/internal/engine"
	"mediatoc/internal/engine/enginetest"
	"mediatoc/internal/mediaerr"
	"mediatoc/internal/mediainfo"
	"mediatoc/internal/profiles"
	"mediatoc/internal/timecode"
)

// waitOutputs polls until the graph has received n SetOutput calls. The
// splitter issues the next sub-job's output right after the chapter outcome
// notification, so a freshly notified test may observe it slightly later.
func waitOutputs(t *testing.T, g *enginetest.Graph, n int) []string {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for {
		outs := g.Outputs()
		if len(outs) >= n {
			return outs
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d outputs, have %d", n, len(outs))
		}
		time.Sleep(time.Millisecond)
	}
}

// waitStateRequests polls until the graph has received n SetState calls.
func waitStateRequests(t *testing.T, g *enginetest.Graph, n int) []engine.State {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for {
		states := g.States()
		if len(states) >= n {
			return states
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d state requests, have %v", n, states)
		}
		time.Sleep(time.Millisecond)
	}
}

func flacProfile(t *testing.T) profiles.Profile {
	t.Helper()
	p, err := profiles.NewRegistry().Get("flac")
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestSplitterContinuesPastFailedChapter(t *testing.T) {
	info := &mediainfo.Info{
		Path:     "/music/night-album.mka",
		Duration: 30 * timecode.Second,
		Title:    "Night Album",
		Artist:   "The Band",
		Streams: []mediainfo.Stream{
			{ID: "audio_0", Kind: mediainfo.KindAudio, Codec: "flac", Language: "en"},
		},
	}
	eng := &enginetest.Engine{Info: info, Strict: true}
	s := NewSplitter(eng, nil)
	defer s.Close()

	dir := t.TempDir()
	req := SplitRequest{
		Input:           info.Path,
		Toc:             buildToc(t, 0, 10*timecode.Second, 20*timecode.Second, 30*timecode.Second),
		StreamID:        "audio_0",
		Profile:         flacProfile(t),
		OutputDir:       dir,
		ContinueOnError: true,
	}
	if err := s.Open(context.Background(), req); err != nil {
		t.Fatalf("open: %v", err)
	}
	waitState(t, s.Notifications(), Ready)

	spec := eng.Specs()[0]
	if spec.Kind != engine.KindSplitter || spec.Encoder != "flacenc" {
		t.Fatalf("unexpected spec %+v", spec)
	}
	if len(spec.Streams) != 1 || spec.Streams[0] != "audio_0" {
		t.Fatalf("spec streams = %v", spec.Streams)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	g := eng.LastGraph()

	// Sub-job 1: the engine "writes" the staging file, then the playhead
	// crosses the chapter end.
	outs := waitOutputs(t, g, 1)
	want := filepath.Join(dir, "The Band - Night Album - 01. One (English).flac") + ".part"
	if outs[0] != want {
		t.Fatalf("first output = %q, want %q", outs[0], want)
	}
	if err := os.WriteFile(outs[0], []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}
	g.Emit(engine.PositionTick{Position: 10 * timecode.Second})
	first := waitChapter(t, s.Notifications())
	if first.Index != 0 || first.Err != nil {
		t.Fatalf("first outcome = %+v", first)
	}

	// Sub-job 2: no staging file appears, so finalizing it fails.
	waitOutputs(t, g, 2)
	g.Emit(engine.PositionTick{Position: 20 * timecode.Second})
	second := waitChapter(t, s.Notifications())
	if second.Index != 1 || second.Err == nil {
		t.Fatalf("second outcome = %+v", second)
	}
	if !errors.Is(second.Err, mediaerr.ErrIO) {
		t.Fatalf("second outcome error = %v, want ErrIO", second.Err)
	}
	var failure *mediaerr.ChapterFailure
	if !errors.As(second.Err, &failure) || failure.Title != "Two" {
		t.Fatalf("second outcome error = %v", second.Err)
	}

	// Sub-job 3 ends with the input itself.
	outs = waitOutputs(t, g, 3)
	if err := os.WriteFile(outs[2], []byte("three"), 0o644); err != nil {
		t.Fatal(err)
	}
	g.Emit(engine.EndOfStream{})
	third := waitChapter(t, s.Notifications())
	if third.Index != 2 || third.Err != nil {
		t.Fatalf("third outcome = %+v", third)
	}
	n := waitState(t, s.Notifications(), Completed)
	if n.Progress != 1 {
		t.Fatalf("completed progress = %v", n.Progress)
	}

	if _, err := os.Stat(filepath.Join(dir, "The Band - Night Album - 01. One (English).flac")); err != nil {
		t.Fatalf("chapter 1 file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "The Band - Night Album - 02. Two (English).flac")); !os.IsNotExist(err) {
		t.Fatal("failed chapter left a file behind")
	}
	if _, err := os.Stat(filepath.Join(dir, "The Band - Night Album - 03. Three (English).flac")); err != nil {
		t.Fatalf("chapter 3 file: %v", err)
	}

	outcomes := s.Outcomes()
	if len(outcomes) != 3 {
		t.Fatalf("outcomes = %+v", outcomes)
	}

	// Each sub-job seeks to its chapter start before rolling.
	seeks := g.Seeks()
	wantSeeks := []timecode.Timestamp{0, 10 * timecode.Second, 20 * timecode.Second}
	if len(seeks) != len(wantSeeks) {
		t.Fatalf("seeks = %v", seeks)
	}
	for i, ts := range wantSeeks {
		if seeks[i] != ts {
			t.Fatalf("seek %d = %s, want %s", i, seeks[i], ts)
		}
	}

	// And hands the engine the chapter end so it can cut there itself.
	stops := g.Stops()
	wantStops := []timecode.Timestamp{10 * timecode.Second, 20 * timecode.Second, 30 * timecode.Second}
	if len(stops) != len(wantStops) {
		t.Fatalf("stops = %v", stops)
	}
	for i, ts := range wantStops {
		if stops[i] != ts {
			t.Fatalf("stop %d = %s, want %s", i, stops[i], ts)
		}
	}
}

func TestSplitterDefersNextJobUntilStopConfirms(t *testing.T) {
	eng := &enginetest.Engine{Manual: true, Strict: true}
	s := NewSplitter(eng, nil)
	defer s.Close()

	req := SplitRequest{
		Input:     "in.mka",
		Toc:       buildToc(t, 0, 10*timecode.Second, 20*timecode.Second),
		StreamID:  "audio_0",
		Profile:   flacProfile(t),
		OutputDir: t.TempDir(),
	}
	if err := s.Open(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	waitState(t, s.Notifications(), Ready)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	g := eng.LastGraph()

	outs := waitOutputs(t, g, 1)
	if err := os.WriteFile(outs[0], []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}

	// The playhead crosses the chapter end and the splitter requests a
	// stop. The engine may still be writing until it confirms, so neither
	// the outcome nor the next sub-job's output may appear yet.
	g.Emit(engine.PositionTick{Position: 10 * timecode.Second})
	states := waitStateRequests(t, g, 2)
	if states[1] != engine.StatePaused {
		t.Fatalf("state requests = %v", states)
	}
	if outs := g.Outputs(); len(outs) != 1 {
		t.Fatalf("outputs before stop confirmation = %v", outs)
	}
	if got := s.Outcomes(); len(got) != 0 {
		t.Fatalf("outcomes before stop confirmation = %+v", got)
	}

	g.Emit(engine.AsyncDone{State: engine.StatePaused})
	first := waitChapter(t, s.Notifications())
	if first.Index != 0 || first.Err != nil {
		t.Fatalf("first outcome = %+v", first)
	}
	waitOutputs(t, g, 2)
}

func TestSplitterAbortsOnFailureByDefault(t *testing.T) {
	eng := &enginetest.Engine{Strict: true}
	s := NewSplitter(eng, nil)
	defer s.Close()

	req := SplitRequest{
		Input:     "in.mka",
		Toc:       buildToc(t, 0, 10*timecode.Second),
		StreamID:  "audio_0",
		Profile:   flacProfile(t),
		OutputDir: t.TempDir(),
	}
	if err := s.Open(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	waitState(t, s.Notifications(), Ready)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	// No staging file: finalizing the only chapter fails and the run
	// aborts.
	eng.LastGraph().Emit(engine.PositionTick{Position: 10 * timecode.Second})
	n := waitState(t, s.Notifications(), Failed)
	var failure *mediaerr.ChapterFailure
	if !errors.As(n.Err, &failure) || failure.Index != 0 {
		t.Fatalf("failure = %v", n.Err)
	}
}

func TestSplitterClampsChaptersToDuration(t *testing.T) {
	eng := &enginetest.Engine{Strict: true} // fake media is 40s long
	s := NewSplitter(eng, nil)
	defer s.Close()

	dir := t.TempDir()
	req := SplitRequest{
		Input:           "in.mka",
		Toc:             buildToc(t, 0, 10*timecode.Second, 50*timecode.Second),
		StreamID:        "audio_0",
		Profile:         flacProfile(t),
		OutputDir:       dir,
		ContinueOnError: true,
	}
	if err := s.Open(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	waitState(t, s.Notifications(), Ready)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	g := eng.LastGraph()

	outs := waitOutputs(t, g, 1)
	if err := os.WriteFile(outs[0], []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}
	g.Emit(engine.PositionTick{Position: 10 * timecode.Second})
	waitChapter(t, s.Notifications())

	// The second chapter nominally runs to 50s; clamped to the 40s
	// duration, a tick at 40s finishes it.
	outs = waitOutputs(t, g, 2)
	if err := os.WriteFile(outs[1], []byte("two"), 0o644); err != nil {
		t.Fatal(err)
	}
	g.Emit(engine.PositionTick{Position: 40 * timecode.Second})
	second := waitChapter(t, s.Notifications())
	if second.Err != nil {
		t.Fatalf("second outcome = %+v", second)
	}
	waitState(t, s.Notifications(), Completed)

	// The clamped boundary is what reaches the engine.
	stops := g.Stops()
	if len(stops) != 2 || stops[1] != 40*timecode.Second {
		t.Fatalf("stops = %v", stops)
	}
}

func TestSplitterMissingEncoder(t *testing.T) {
	eng := &enginetest.Engine{Missing: []string{"flacenc"}}
	s := NewSplitter(eng, nil)
	defer s.Close()

	err := s.Open(context.Background(), SplitRequest{
		Input:     "in.mka",
		Toc:       buildToc(t, 0, 10*timecode.Second),
		StreamID:  "audio_0",
		Profile:   flacProfile(t),
		OutputDir: t.TempDir(),
	})
	var missing *mediaerr.MissingCapability
	if !errors.As(err, &missing) || missing.Element != "flacenc" {
		t.Fatalf("open: got %v, want missing flacenc", err)
	}
}
