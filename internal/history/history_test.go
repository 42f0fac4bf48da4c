package history

import (
	"context"
	"path/filepath"
	"testing"
)

func TestRecordAndRecent(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	first, err := store.Record(ctx, Run{
		Kind:      KindExport,
		Input:     "/media/album.mka",
		Output:    "/out/album.txt",
		Format:    "mkvmerge",
		Chapters:  12,
		Succeeded: true,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if first.ID == 0 || first.CreatedAt.IsZero() {
		t.Fatalf("run not assigned id/timestamp: %+v", first)
	}

	if _, err := store.Record(ctx, Run{
		Kind:     KindSplit,
		Input:    "/media/album.mka",
		Output:   "/out/tracks",
		Format:   "flac",
		Chapters: 12,
		Failed:   2,
		Detail:   "2 chapters failed",
	}); err != nil {
		t.Fatalf("record split: %v", err)
	}

	runs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %+v", runs)
	}
	// Newest first.
	if runs[0].Kind != KindSplit || runs[0].Succeeded {
		t.Fatalf("first run = %+v", runs[0])
	}
	if runs[1].Kind != KindExport || !runs[1].Succeeded {
		t.Fatalf("second run = %+v", runs[1])
	}
	if runs[0].Failed != 2 || runs[0].Detail != "2 chapters failed" {
		t.Fatalf("split run = %+v", runs[0])
	}
}

func TestRecentLimit(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := store.Record(ctx, Run{Kind: KindExport, Input: "in", Output: "out", Format: "cue"}); err != nil {
			t.Fatal(err)
		}
	}
	runs, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
}
