package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "chapters.txt")

	if err := WriteFileAtomic(path, []byte("CHAPTER01=00:00:00.000\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "CHAPTER01=00:00:00.000\n" {
		t.Fatalf("unexpected content %q", data)
	}
	if _, err := os.Stat(TempPath(path)); !os.IsNotExist(err) {
		t.Fatalf("staging file left behind")
	}
}

func TestPromoteAndDiscard(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "out.mka")

	if err := os.WriteFile(TempPath(final), []byte("payload"), 0o644); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if err := Promote(final); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if _, err := os.Stat(final); err != nil {
		t.Fatalf("final missing: %v", err)
	}

	// Discard tolerates a missing staging file.
	Discard(final)
}
