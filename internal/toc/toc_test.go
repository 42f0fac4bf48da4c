package toc

import (
	"errors"
	"testing"

	"mediatoc/internal/mediaerr"
	"mediatoc/internal/timecode"
)

func mustChapter(t *testing.T, title string, start, end timecode.Timestamp) Chapter {
	t.Helper()
	c, err := NewChapter(title, start, end)
	if err != nil {
		t.Fatalf("new chapter %q: %v", title, err)
	}
	return c
}

func secs(n uint64) timecode.Timestamp {
	return timecode.Timestamp(n) * timecode.Second
}

func TestAddKeepsStartOrder(t *testing.T) {
	var table Toc
	for _, c := range []Chapter{
		mustChapter(t, "third", secs(20), secs(30)),
		mustChapter(t, "first", secs(0), secs(5)),
		mustChapter(t, "second", secs(10), secs(20)),
	} {
		if err := table.Add(c); err != nil {
			t.Fatalf("add %q: %v", c.Title(), err)
		}
	}
	chapters := table.Chapters()
	want := []string{"first", "second", "third"}
	for i, title := range want {
		if chapters[i].Title() != title {
			t.Fatalf("position %d: expected %q, got %q", i, title, chapters[i].Title())
		}
	}
}

func TestAddOverlapIsAtomic(t *testing.T) {
	var table Toc
	if err := table.Add(mustChapter(t, "base", secs(10), secs(20))); err != nil {
		t.Fatalf("seed: %v", err)
	}
	before := table.Chapters()

	overlapping := []Chapter{
		mustChapter(t, "head", secs(5), secs(11)),
		mustChapter(t, "tail", secs(19), secs(25)),
		mustChapter(t, "inside", secs(12), secs(14)),
		mustChapter(t, "around", secs(5), secs(25)),
	}
	for _, c := range overlapping {
		err := table.Add(c)
		if !errors.Is(err, mediaerr.ErrChapterOverlap) {
			t.Fatalf("add %q: expected overlap error, got %v", c.Title(), err)
		}
		var overlap *mediaerr.ChapterOverlap
		if !errors.As(err, &overlap) || overlap.Index != 0 {
			t.Fatalf("add %q: expected neighbor index 0, got %#v", c.Title(), overlap)
		}
	}

	after := table.Chapters()
	if len(after) != len(before) || after[0].Start != before[0].Start || after[0].End != before[0].End {
		t.Fatalf("table changed after rejected insertions: %#v", after)
	}
}

func TestTouchingBoundariesAreLegal(t *testing.T) {
	var table Toc
	if err := table.Add(mustChapter(t, "a", secs(0), secs(10))); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if err := table.Add(mustChapter(t, "b", secs(10), secs(25))); err != nil {
		t.Fatalf("boundary-equal insertion rejected: %v", err)
	}
}

func TestRemoveLeavesGap(t *testing.T) {
	var table Toc
	for _, c := range []Chapter{
		mustChapter(t, "a", secs(0), secs(10)),
		mustChapter(t, "b", secs(10), secs(20)),
		mustChapter(t, "c", secs(20), secs(30)),
	} {
		if err := table.Add(c); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	removed, err := table.Remove(1)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed.Title() != "b" {
		t.Fatalf("removed wrong chapter %q", removed.Title())
	}
	chapters := table.Chapters()
	if chapters[0].End != secs(10) || chapters[1].Start != secs(20) {
		t.Fatalf("neighbors were extended: %v-%v / %v-%v",
			chapters[0].Start, chapters[0].End, chapters[1].Start, chapters[1].End)
	}
	if got := table.At(secs(15)); got != -1 {
		t.Fatalf("expected gap at 15s, got chapter %d", got)
	}
}

func TestAt(t *testing.T) {
	var table Toc
	if err := table.Add(mustChapter(t, "a", secs(5), secs(10))); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := table.At(secs(5)); got != 0 {
		t.Fatalf("start should be covered, got %d", got)
	}
	if got := table.At(secs(10)); got != -1 {
		t.Fatalf("end is exclusive, got %d", got)
	}
	if got := table.At(secs(2)); got != -1 {
		t.Fatalf("expected leading gap, got %d", got)
	}
}

func TestClampTo(t *testing.T) {
	var table Toc
	for _, c := range []Chapter{
		mustChapter(t, "a", secs(0), secs(10)),
		mustChapter(t, "b", secs(10), secs(50)),
		mustChapter(t, "c", secs(50), secs(60)),
	} {
		if err := table.Add(c); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	table.ClampTo(secs(40))
	if table.Len() != 2 {
		t.Fatalf("expected 2 chapters after clamp, got %d", table.Len())
	}
	if table.End() != secs(40) {
		t.Fatalf("expected clamped end 40s, got %s", table.End())
	}
}

func TestCloneIsDeep(t *testing.T) {
	var table Toc
	c := mustChapter(t, "a", secs(0), secs(10))
	c.SetTag(TagArtist, "someone")
	if err := table.Add(c); err != nil {
		t.Fatalf("add: %v", err)
	}
	clone := table.Clone()
	chapters := clone.Chapters()
	chapters[0].SetTag(TagArtist, "someone else")
	if got, _ := mustGet(table.Chapter(0)).Tag(TagArtist); got != "someone" {
		t.Fatalf("clone mutation leaked into original: %q", got)
	}
}

func mustGet(c Chapter, err error) Chapter {
	if err != nil {
		panic(err)
	}
	return c
}
