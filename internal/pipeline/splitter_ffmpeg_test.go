package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"mediatoc/internal/engine/ffmpeg"
	"mediatoc/internal/timecode"
)

const stubProbeJSON = `{
  "streams": [
    {"index": 0, "codec_name": "flac", "codec_type": "audio", "sample_rate": "44100", "channels": 2}
  ],
  "format": {
    "filename": "night-album.mka",
    "duration": "30.000000",
    "format_name": "matroska,webm",
    "tags": {"artist": "The Band", "title": "Night Album"}
  }
}`

// writeStubBinaries fakes the ffmpeg and ffprobe executables with shell
// scripts. The ffmpeg stub answers the inventory queries, logs every
// encoding invocation to argvLog, and writes a placeholder file to the
// output path it was given.
func writeStubBinaries(t *testing.T, dir, argvLog string) (ffmpegBin, ffprobeBin string) {
	t.Helper()

	ffprobeBin = filepath.Join(dir, "ffprobe")
	probe := "#!/bin/sh\ncat <<'EOF'\n" + stubProbeJSON + "\nEOF\n"
	if err := os.WriteFile(ffprobeBin, []byte(probe), 0o755); err != nil {
		t.Fatal(err)
	}

	ffmpegBin = filepath.Join(dir, "ffmpeg")
	script := fmt.Sprintf(`#!/bin/sh
case " $* " in
*" -muxers "*)
	printf ' --\n  E flac            raw FLAC\n  E matroska        Matroska\n'
	exit 0
	;;
*" -encoders "*)
	printf ' ------\n A....D flac            FLAC\n'
	exit 0
	;;
esac
echo "$@" >>%q
for arg in "$@"; do out="$arg"; done
printf 'encoded' >"$out"
`, argvLog)
	if err := os.WriteFile(ffmpegBin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return ffmpegBin, ffprobeBin
}

func TestSplitterSequencesJobsOverProcessEngine(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub binaries are shell scripts")
	}

	binDir := t.TempDir()
	argvLog := filepath.Join(binDir, "argv.log")
	ffmpegBin, ffprobeBin := writeStubBinaries(t, binDir, argvLog)
	eng := ffmpeg.New(ffmpeg.Options{FFmpegBinary: ffmpegBin, FFprobeBinary: ffprobeBin})

	input := filepath.Join(binDir, "night-album.mka")
	if err := os.WriteFile(input, []byte("mka"), 0o644); err != nil {
		t.Fatal(err)
	}

	outDir := t.TempDir()
	s := NewSplitter(eng, nil)
	defer s.Close()

	req := SplitRequest{
		Input:     input,
		Toc:       buildToc(t, 0, 10*timecode.Second, 20*timecode.Second, 30*timecode.Second),
		StreamID:  "audio_0",
		Profile:   flacProfile(t),
		OutputDir: outDir,
	}
	if err := s.Open(context.Background(), req); err != nil {
		t.Fatalf("open: %v", err)
	}
	waitState(t, s.Notifications(), Ready)
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 0; i < 3; i++ {
		outcome := waitChapter(t, s.Notifications())
		if outcome.Index != i || outcome.Err != nil {
			t.Fatalf("outcome %d = %+v", i, outcome)
		}
	}
	waitState(t, s.Notifications(), Completed)

	for _, name := range []string{
		"The Band - Night Album - 01. One.flac",
		"The Band - Night Album - 02. Two.flac",
		"The Band - Night Album - 03. Three.flac",
	} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing output %q: %v", name, err)
		}
	}
	if stale, _ := filepath.Glob(filepath.Join(outDir, "*.part")); len(stale) != 0 {
		t.Fatalf("staging files left behind: %v", stale)
	}

	// One process per chapter, each with its own slice of the input.
	log, err := os.ReadFile(argvLog)
	if err != nil {
		t.Fatal(err)
	}
	var runs []string
	for _, line := range strings.Split(string(log), "\n") {
		if strings.TrimSpace(line) != "" {
			runs = append(runs, line)
		}
	}
	if len(runs) != 3 {
		t.Fatalf("process runs = %d:\n%s", len(runs), log)
	}
	if strings.Contains(runs[0], "-ss") {
		t.Fatalf("first run seeks: %q", runs[0])
	}
	for i, ss := range []string{"", "-ss 10.000000", "-ss 20.000000"} {
		if ss != "" && !strings.Contains(runs[i], ss) {
			t.Errorf("run %d missing %q: %q", i, ss, runs[i])
		}
		if !strings.Contains(runs[i], "-t 10.000000") {
			t.Errorf("run %d missing duration limit: %q", i, runs[i])
		}
		if !strings.Contains(runs[i], "-map 0:a:0") {
			t.Errorf("run %d missing stream mapping: %q", i, runs[i])
		}
	}
}
