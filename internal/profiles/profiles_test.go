package profiles

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinProfiles(t *testing.T) {
	r := NewRegistry()

	flac, err := r.Get("flac")
	if err != nil {
		t.Fatalf("flac: %v", err)
	}
	if flac.Encoder != "flacenc" || flac.Muxer != "" || flac.Extension != "flac" {
		t.Fatalf("unexpected flac profile %+v", flac)
	}

	opus, err := r.Get(" OGG-Opus ")
	if err != nil {
		t.Fatalf("case-insensitive lookup: %v", err)
	}
	reqs := opus.Requirements()
	if len(reqs) != 2 || reqs[0].Name != "opusenc" || reqs[1].Name != "oggmux" {
		t.Fatalf("unexpected opus requirements %+v", reqs)
	}

	if _, err := r.Get("shorten"); err == nil {
		t.Fatal("expected error for unknown profile")
	}
}

func TestLoadOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	doc := `profiles:
  - name: mp3
    description: MP3 via shine
    encoder: shineenc
    muxer: id3mux
    extension: mp3
  - name: alac
    description: Apple Lossless
    encoder: avenc_alac
    muxer: mp4mux
    extension: m4a
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	if err := r.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}

	mp3, err := r.Get("mp3")
	if err != nil {
		t.Fatal(err)
	}
	if mp3.Encoder != "shineenc" {
		t.Fatalf("override not applied: %+v", mp3)
	}
	if _, err := r.Get("alac"); err != nil {
		t.Fatalf("added profile missing: %v", err)
	}
}

func TestLoadRejectsIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	if err := os.WriteFile(path, []byte("profiles:\n  - name: broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewRegistry().Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}
