package mediainfo

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"mediatoc/internal/timecode"
	"mediatoc/internal/toc"
)

// StreamKind classifies a stream within the container.
type StreamKind int

const (
	KindVideo StreamKind = iota
	KindAudio
	KindText
)

func (k StreamKind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Stream describes one elementary stream.
type Stream struct {
	ID       string
	Kind     StreamKind
	Codec    string
	Language string // BCP 47 / ISO 639 code as reported by the container
	Width    int
	Height   int
	Rate     int // sample rate (audio) or frame rate numerator (video)
	Channels int
	Tags     map[string]string
}

// LanguageName returns a human-readable name for the stream language, or the
// raw code when it cannot be resolved.
func (s Stream) LanguageName() string {
	code := strings.TrimSpace(s.Language)
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

// Info is the immutable snapshot produced when a file is opened.
type Info struct {
	Path      string
	Container string
	Duration  timecode.Duration
	Streams   []Stream
	Toc       *toc.Toc // chapters already present in the container, if any

	Title          string
	TitleSortname  string
	Artist         string
	ArtistSortname string
	Tags           map[string]string
	CoverImage     []byte

	selected map[string]struct{}
}

// FileName returns the base name of the source path.
func (i *Info) FileName() string {
	return filepath.Base(i.Path)
}

// MediaTitle prefers the sortname variant, falling back to the plain title,
// then to the file name without extension.
func (i *Info) MediaTitle() string {
	if i.TitleSortname != "" {
		return i.TitleSortname
	}
	if i.Title != "" {
		return i.Title
	}
	name := i.FileName()
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// MediaArtist prefers the sortname variant.
func (i *Info) MediaArtist() string {
	if i.ArtistSortname != "" {
		return i.ArtistSortname
	}
	return i.Artist
}

// StreamsOfKind returns the streams of the given kind in container order.
func (i *Info) StreamsOfKind(kind StreamKind) []Stream {
	var out []Stream
	for _, s := range i.Streams {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// Stream returns the stream with the given id.
func (i *Info) Stream(id string) (Stream, bool) {
	for _, s := range i.Streams {
		if s.ID == id {
			return s, true
		}
	}
	return Stream{}, false
}

// AudioCodec returns the codec of the first audio stream.
func (i *Info) AudioCodec() string {
	for _, s := range i.Streams {
		if s.Kind == KindAudio {
			return s.Codec
		}
	}
	return ""
}

// SelectStreams replaces the selected stream set. Unknown ids are ignored.
func (i *Info) SelectStreams(ids []string) {
	i.selected = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := i.Stream(id); ok {
			i.selected[id] = struct{}{}
		}
	}
}

// Selected reports whether the stream is part of the active selection. With
// no explicit selection every stream is selected.
func (i *Info) Selected(id string) bool {
	if len(i.selected) == 0 {
		return true
	}
	_, ok := i.selected[id]
	return ok
}

// SelectedIDs returns the explicit selection in container order, or every
// stream id when no selection was made.
func (i *Info) SelectedIDs() []string {
	out := make([]string, 0, len(i.Streams))
	for _, s := range i.Streams {
		if i.Selected(s.ID) {
			out = append(out, s.ID)
		}
	}
	return out
}

// Clone returns a deep copy so consumers can hold the snapshot without
// aliasing the pipeline's own state.
func (i *Info) Clone() *Info {
	if i == nil {
		return nil
	}
	out := *i
	out.Streams = make([]Stream, len(i.Streams))
	for idx, s := range i.Streams {
		cp := s
		if len(s.Tags) != 0 {
			cp.Tags = make(map[string]string, len(s.Tags))
			for k, v := range s.Tags {
				cp.Tags[k] = v
			}
		}
		out.Streams[idx] = cp
	}
	if i.Toc != nil {
		out.Toc = i.Toc.Clone()
	}
	if len(i.Tags) != 0 {
		out.Tags = make(map[string]string, len(i.Tags))
		for k, v := range i.Tags {
			out.Tags[k] = v
		}
	}
	out.CoverImage = append([]byte(nil), i.CoverImage...)
	if len(i.selected) != 0 {
		out.selected = make(map[string]struct{}, len(i.selected))
		for k := range i.selected {
			out.selected[k] = struct{}{}
		}
	}
	return &out
}
