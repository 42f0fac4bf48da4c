package tocfmt

import (
	"fmt"

	"mediatoc/internal/mediaerr"
	"mediatoc/internal/mediainfo"
	"mediatoc/internal/toc"
)

// Format identifies an interchange format.
type Format int

const (
	// MKVMergeText is the line-oriented CHAPTERnn= chapter-list format.
	MKVMergeText Format = iota
	// CueSheet is the TRACK/INDEX cue-sheet format.
	CueSheet
	// MatroskaChapters is the container-native EBML chapter-atom format.
	MatroskaChapters
)

func (f Format) String() string {
	switch f {
	case MKVMergeText:
		return "mkvmerge"
	case CueSheet:
		return "cue"
	case MatroskaChapters:
		return "matroska"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Extension returns the conventional file extension for the format.
func (f Format) Extension() string {
	switch f {
	case MKVMergeText:
		return "txt"
	case CueSheet:
		return "cue"
	case MatroskaChapters:
		return "toc.mka"
	default:
		return ""
	}
}

// ParseFormat resolves a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "mkvmerge", "txt", "chapter-list":
		return MKVMergeText, nil
	case "cue", "cuesheet":
		return CueSheet, nil
	case "matroska", "mkv", "mka":
		return MatroskaChapters, nil
	default:
		return 0, fmt.Errorf("unknown chapter format %q", name)
	}
}

// Codec converts between the in-memory table and one interchange format.
// The media snapshot supplies the duration used to close the last chapter
// and the title/artist/codec header fields some formats carry; it may be nil
// when that context is unavailable.
type Codec interface {
	Parse(data []byte, media *mediainfo.Info) (*toc.Toc, error)
	Serialize(table *toc.Toc, media *mediainfo.Info) ([]byte, error)
}

// CodecFor returns the codec implementing the format.
func CodecFor(f Format) (Codec, error) {
	switch f {
	case MKVMergeText:
		return mkvMergeCodec{}, nil
	case CueSheet:
		return cueSheetCodec{}, nil
	case MatroskaChapters:
		return matroskaCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown chapter format %v", f)
	}
}

// ErrorKind classifies a parse failure.
type ErrorKind int

const (
	// KindUnexpectedSequence is raised for input no rule accepts.
	KindUnexpectedSequence ErrorKind = iota
	// KindExpectedNumber is raised where a numeric token was required.
	KindExpectedNumber
	// KindChapterMismatch is raised when the number on a chapter's NAME
	// line differs from the number on its timestamp line.
	KindChapterMismatch
	// KindTruncated is raised for input that ends mid-structure.
	KindTruncated
)

func (k ErrorKind) message() string {
	switch k {
	case KindExpectedNumber:
		return "expecting a number"
	case KindChapterMismatch:
		return "chapter numbers don't match"
	case KindTruncated:
		return "unexpected end of input"
	default:
		return "unexpected sequence"
	}
}

// ParseError reports a codec parse failure with enough context to point the
// user at the offending input. Line is 1-based; 0 means not applicable.
type ParseError struct {
	Format  Format
	Line    int
	Kind    ErrorKind
	Context string
}

func (e *ParseError) Error() string {
	msg := e.Kind.message()
	where := e.Format.String()
	if e.Line > 0 {
		where = fmt.Sprintf("%s line %d", where, e.Line)
	}
	if e.Context == "" {
		return fmt.Sprintf("%s: %s", where, msg)
	}
	return fmt.Sprintf("%s: %s, found: %q", where, msg, e.Context)
}

func (e *ParseError) Unwrap() error { return mediaerr.ErrFormat }

// clip shortens context excerpts for error messages.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
