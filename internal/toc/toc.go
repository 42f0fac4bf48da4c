package toc

import (
	"fmt"

	"mediatoc/internal/mediaerr"
	"mediatoc/internal/timecode"
)

// Toc is an ordered table of contents. The zero value is an empty table.
type Toc struct {
	chapters []Chapter
}

// Len returns the number of chapters.
func (t *Toc) Len() int { return len(t.chapters) }

// Empty reports whether the table has no chapters.
func (t *Toc) Empty() bool { return len(t.chapters) == 0 }

// Chapters returns the chapters in start order. The returned slice is a
// copy; mutating it does not affect the table.
func (t *Toc) Chapters() []Chapter {
	out := make([]Chapter, len(t.chapters))
	for i, c := range t.chapters {
		out[i] = c.clone()
	}
	return out
}

// Chapter returns the chapter at position idx.
func (t *Toc) Chapter(idx int) (Chapter, error) {
	if idx < 0 || idx >= len(t.chapters) {
		return Chapter{}, fmt.Errorf("chapter index %d out of range [0, %d)", idx, len(t.chapters))
	}
	return t.chapters[idx].clone(), nil
}

// Add inserts a chapter keeping start order. Insertion is atomic: if the
// interval intersects any existing chapter the table is unchanged and the
// error classifies as mediaerr.ErrChapterOverlap, naming the neighbor the
// caller must trim first. Touching boundaries are not an overlap.
func (t *Toc) Add(c Chapter) error {
	if c.Start >= c.End {
		return fmt.Errorf("chapter %q: start %s is not before end %s", c.Title(), c.Start, c.End)
	}
	pos := len(t.chapters)
	for i, existing := range t.chapters {
		if existing.overlaps(c) {
			return &mediaerr.ChapterOverlap{Index: i, Title: existing.Title()}
		}
		if c.Start < existing.Start {
			pos = i
			break
		}
	}
	t.chapters = append(t.chapters, Chapter{})
	copy(t.chapters[pos+1:], t.chapters[pos:])
	t.chapters[pos] = c.clone()
	return nil
}

// Remove deletes the chapter at idx and returns it. The vacated interval
// becomes an untitled gap; neighbors are never auto-extended.
func (t *Toc) Remove(idx int) (Chapter, error) {
	if idx < 0 || idx >= len(t.chapters) {
		return Chapter{}, fmt.Errorf("chapter index %d out of range [0, %d)", idx, len(t.chapters))
	}
	removed := t.chapters[idx]
	t.chapters = append(t.chapters[:idx], t.chapters[idx+1:]...)
	return removed, nil
}

// At returns the index of the chapter covering ts, or -1 when ts falls in a
// gap or beyond the last chapter.
func (t *Toc) At(ts timecode.Timestamp) int {
	for i, c := range t.chapters {
		if c.Contains(ts) {
			return i
		}
		if ts < c.Start {
			break
		}
	}
	return -1
}

// ByID returns the index of the chapter with the given identifier, or -1.
func (t *Toc) ByID(id string) int {
	for i, c := range t.chapters {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// End returns the end of the last chapter, or zero for an empty table.
func (t *Toc) End() timecode.Timestamp {
	if len(t.chapters) == 0 {
		return 0
	}
	return t.chapters[len(t.chapters)-1].End
}

// Clone returns a deep copy of the table.
func (t *Toc) Clone() *Toc {
	out := &Toc{chapters: make([]Chapter, len(t.chapters))}
	for i, c := range t.chapters {
		out.chapters[i] = c.clone()
	}
	return out
}

// ClampTo trims the table to the media extent: chapters starting at or past
// dur are dropped, a final chapter spilling past dur is shortened. Used by
// the splitter when the last chapter end exceeds the actual duration.
func (t *Toc) ClampTo(dur timecode.Duration) {
	kept := t.chapters[:0]
	for _, c := range t.chapters {
		if c.Start >= dur {
			break
		}
		if c.End > dur {
			c.End = dur
		}
		kept = append(kept, c)
	}
	t.chapters = kept
}
