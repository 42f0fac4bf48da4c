package toc

import (
	"fmt"

	"github.com/google/uuid"

	"mediatoc/internal/timecode"
)

// Standard tag names. The title lives in the tag map like any other tag so
// codecs can round-trip arbitrary per-chapter metadata uniformly.
const (
	TagTitle    = "title"
	TagArtist   = "artist"
	TagLanguage = "language"
)

// DefaultTitle is used wherever a chapter has no title tag.
const DefaultTitle = "untitled"

// Chapter is a named time interval within a media file.
type Chapter struct {
	ID    string
	Start timecode.Timestamp
	End   timecode.Timestamp
	tags  map[string]string
}

// NewChapter builds a chapter with a fresh opaque identifier.
func NewChapter(title string, start, end timecode.Timestamp) (Chapter, error) {
	return NewChapterWithID(uuid.NewString(), title, start, end)
}

// NewChapterWithID builds a chapter with a caller-supplied stable identifier,
// used by codecs that preserve identifiers across round-trips.
func NewChapterWithID(id, title string, start, end timecode.Timestamp) (Chapter, error) {
	if start >= end {
		return Chapter{}, fmt.Errorf("chapter %q: start %s is not before end %s", title, start, end)
	}
	c := Chapter{ID: id, Start: start, End: end}
	if title != "" {
		c.SetTag(TagTitle, title)
	}
	return c, nil
}

// Title returns the chapter title tag, or DefaultTitle when unset.
func (c Chapter) Title() string {
	if title, ok := c.tags[TagTitle]; ok && title != "" {
		return title
	}
	return DefaultTitle
}

// SetTitle stores the title tag.
func (c *Chapter) SetTitle(title string) { c.SetTag(TagTitle, title) }

// Tag returns the named tag value.
func (c Chapter) Tag(name string) (string, bool) {
	value, ok := c.tags[name]
	return value, ok
}

// SetTag stores a tag value.
func (c *Chapter) SetTag(name, value string) {
	if c.tags == nil {
		c.tags = make(map[string]string, 4)
	}
	c.tags[name] = value
}

// Tags returns a copy of the tag map.
func (c Chapter) Tags() map[string]string {
	if len(c.tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(c.tags))
	for k, v := range c.tags {
		out[k] = v
	}
	return out
}

// Duration returns the chapter extent.
func (c Chapter) Duration() timecode.Duration {
	return c.End.SaturatingSub(c.Start)
}

// Contains reports whether ts falls inside the half-open interval.
func (c Chapter) Contains(ts timecode.Timestamp) bool {
	return ts >= c.Start && ts < c.End
}

// overlaps reports an intersection between two half-open intervals. Equal
// boundaries do not overlap.
func (c Chapter) overlaps(other Chapter) bool {
	return c.Start < other.End && other.Start < c.End
}

// clone returns a deep copy.
func (c Chapter) clone() Chapter {
	out := c
	if len(c.tags) != 0 {
		out.tags = make(map[string]string, len(c.tags))
		for k, v := range c.tags {
			out.tags[k] = v
		}
	}
	return out
}
