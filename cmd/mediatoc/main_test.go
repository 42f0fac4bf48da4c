package main

import (
	"os"
	"path/filepath"
	"testing"

	"mediatoc/internal/tocfmt"
)

func TestResolveFormat(t *testing.T) {
	cases := []struct {
		flag, path string
		want       tocfmt.Format
		wantErr    bool
	}{
		{"", "chapters.txt", tocfmt.MKVMergeText, false},
		{"", "album.cue", tocfmt.CueSheet, false},
		{"", "album.toc.mka", tocfmt.MatroskaChapters, false},
		{"cue", "whatever.bin", tocfmt.CueSheet, false},
		{"", "whatever.bin", 0, true},
		{"xml", "chapters.txt", 0, true},
	}
	for _, tc := range cases {
		got, err := resolveFormat(tc.flag, tc.path)
		if tc.wantErr {
			if err == nil {
				t.Errorf("resolveFormat(%q, %q): expected error", tc.flag, tc.path)
			}
			continue
		}
		if err != nil {
			t.Errorf("resolveFormat(%q, %q): %v", tc.flag, tc.path, err)
			continue
		}
		if got != tc.want {
			t.Errorf("resolveFormat(%q, %q) = %s, want %s", tc.flag, tc.path, got, tc.want)
		}
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"inspect", "convert", "export", "embed", "split", "probe", "history", "config"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Errorf("command %q not registered: %v", name, err)
		}
	}
}

func TestWriteLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chapters.txt")
	if err := writeLocked(path, []byte("CHAPTER01=00:00:00.000\n")); err != nil {
		t.Fatalf("writeLocked: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "CHAPTER01=00:00:00.000\n" {
		t.Fatalf("unexpected content %q", data)
	}
	// The advisory lock file must not linger after a successful write.
	if _, err := os.Stat(path + ".lock"); !os.IsNotExist(err) {
		t.Fatal("lock file left behind")
	}
}
