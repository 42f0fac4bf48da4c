package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, path, exists, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Fatal("reported existing config for a missing file")
	}
	if path == "" {
		t.Fatal("empty resolved path")
	}
	if cfg.Export.Format != "mkvmerge" || cfg.Split.Profile != "flac" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Engine.FFprobeBinary != "ffprobe" {
		t.Fatalf("unexpected engine defaults %+v", cfg.Engine)
	}
	if !filepath.IsAbs(cfg.Paths.OutputDir) {
		t.Fatalf("output dir not expanded: %q", cfg.Paths.OutputDir)
	}
}

func TestLoadOverridesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	doc := `
[paths]
output_dir = "` + dir + `/out"

[playback]
disable_hardware_accel = true

[export]
format = "CUE"

[split]
profile = " MP3 "
continue_on_error = true

[logging]
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatal("config file not found")
	}
	if !cfg.Playback.DisableHardwareAccel {
		t.Fatal("disable_hardware_accel not applied")
	}
	if cfg.Export.Format != "cue" {
		t.Fatalf("format = %q", cfg.Export.Format)
	}
	if cfg.Split.Profile != "mp3" || !cfg.Split.ContinueOnError {
		t.Fatalf("split = %+v", cfg.Split)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name, doc, want string
	}{
		{"format", "[export]\nformat = \"xml\"\n", "export.format"},
		{"level", "[logging]\nlevel = \"verbose\"\n", "logging.level"},
		{"logfmt", "[logging]\nformat = \"xml\"\n", "logging.format"},
	}
	for _, tc := range cases {
		path := filepath.Join(dir, tc.name+".toml")
		if err := os.WriteFile(path, []byte(tc.doc), 0o644); err != nil {
			t.Fatal(err)
		}
		_, _, _, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: err = %v, want mention of %s", tc.name, err, tc.want)
		}
	}
}

func TestCreateSampleParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("create sample: %v", err)
	}
	if _, _, exists, err := Load(path); err != nil || !exists {
		t.Fatalf("sample config does not load: exists=%v err=%v", exists, err)
	}
}
