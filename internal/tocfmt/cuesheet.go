package tocfmt

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"mediatoc/internal/mediainfo"
	"mediatoc/internal/timecode"
	"mediatoc/internal/toc"
)

// cueSheetCodec reads and writes cue sheets. Positions are 75 fps frames
// (MM:SS:FF with minutes unbounded). Cue sheets allow hierarchical grouping
// through multiple FILE sections; this codec treats every TRACK as one flat
// chapter regardless of the section it appears in.
type cueSheetCodec struct{}

func (cueSheetCodec) Serialize(table *toc.Toc, media *mediainfo.Info) ([]byte, error) {
	var buf bytes.Buffer

	mediaTitle, mediaArtist, fileName := "", "", ""
	fileType := "WAVE"
	if media != nil {
		mediaTitle = media.MediaTitle()
		mediaArtist = media.MediaArtist()
		fileName = media.FileName()
		fileType = cueFileType(media.AudioCodec())
	}
	if mediaTitle != "" {
		fmt.Fprintf(&buf, "TITLE %s\n", cueQuote(mediaTitle))
	}
	if mediaArtist != "" {
		fmt.Fprintf(&buf, "PERFORMER %s\n", cueQuote(mediaArtist))
	}
	fmt.Fprintf(&buf, "FILE %s %s\n", cueQuote(fileName), fileType)

	for i, chapter := range table.Chapters() {
		fmt.Fprintf(&buf, "  TRACK%02d AUDIO\n", i+1)

		title := chapter.Title()
		if title == toc.DefaultTitle && mediaTitle != "" {
			title = mediaTitle
		}
		fmt.Fprintf(&buf, "    TITLE %s\n", cueQuote(title))

		artist, ok := chapter.Tag(toc.TagArtist)
		if !ok || artist == "" {
			artist = mediaArtist
		}
		if artist == "" {
			artist = toc.DefaultTitle
		}
		fmt.Fprintf(&buf, "    PERFORMER %s\n", cueQuote(artist))

		frames := chapter.Start.Frames()
		fmt.Fprintf(&buf, "    INDEX 01 %02d:%02d:%02d\n",
			frames/(60*timecode.CueFrameRate),
			(frames/timecode.CueFrameRate)%60,
			frames%timecode.CueFrameRate)
	}
	return buf.Bytes(), nil
}

// cueQuote wraps a field value in plain double quotes. The format has no
// escape syntax, so embedded quote characters become apostrophes.
func cueQuote(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `'`) + `"`
}

// cueFileType maps the audio codec onto the cue FILE type token.
func cueFileType(codec string) string {
	codec = strings.ToLower(codec)
	switch {
	case strings.Contains(codec, "mp3"):
		return "MP3"
	case strings.Contains(codec, "aiff"):
		return "AIFF"
	default:
		return "WAVE"
	}
}

func (cueSheetCodec) Parse(data []byte, media *mediainfo.Info) (*toc.Toc, error) {
	type pending struct {
		number int
		start  timecode.Timestamp
		hasPos bool
		title  string
		artist string
	}
	var entries []pending
	var current *pending

	for ln, raw := range splitLines(string(data)) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		keyword, rest := cutToken(line)

		switch strings.ToUpper(keyword) {
		case "REM", "FILE", "CATALOG", "CDTEXTFILE", "FLAGS", "ISRC", "SONGWRITER", "PREGAP", "POSTGAP":
			// Header or per-track fields the flat model does not keep.
		case "TITLE":
			if current != nil {
				current.title = unquote(rest)
			}
		case "PERFORMER":
			if current != nil {
				current.artist = unquote(rest)
			}
		case "TRACK":
			numberToken, _ := cutToken(rest)
			number, err := strconv.Atoi(numberToken)
			if err != nil {
				return nil, &ParseError{Format: CueSheet, Line: ln + 1, Kind: KindExpectedNumber, Context: clip(numberToken, 2)}
			}
			entries = append(entries, pending{number: number})
			current = &entries[len(entries)-1]
		case "INDEX":
			if current == nil {
				return nil, &ParseError{Format: CueSheet, Line: ln + 1, Kind: KindUnexpectedSequence, Context: clip(line, 10)}
			}
			indexToken, posToken := cutToken(rest)
			if _, err := strconv.Atoi(indexToken); err != nil {
				return nil, &ParseError{Format: CueSheet, Line: ln + 1, Kind: KindExpectedNumber, Context: clip(indexToken, 2)}
			}
			// INDEX 00 marks a pregap; only INDEX 01 positions the track.
			if indexToken != "01" && indexToken != "1" {
				continue
			}
			start, err := parseFramePosition(posToken)
			if err != nil {
				return nil, &ParseError{Format: CueSheet, Line: ln + 1, Kind: KindUnexpectedSequence, Context: clip(posToken, 10)}
			}
			current.start = start
			current.hasPos = true
		default:
			handled := false
			// TRACKnn with no space separates keyword and number.
			if strings.HasPrefix(strings.ToUpper(keyword), "TRACK") {
				number, _, err := leadingNumber(keyword[len("TRACK"):])
				if err != nil {
					return nil, &ParseError{Format: CueSheet, Line: ln + 1, Kind: KindExpectedNumber, Context: clip(keyword[len("TRACK"):], 2)}
				}
				entries = append(entries, pending{number: number})
				current = &entries[len(entries)-1]
				handled = true
			}
			if !handled {
				return nil, &ParseError{Format: CueSheet, Line: ln + 1, Kind: KindUnexpectedSequence, Context: clip(line, 10)}
			}
		}
	}

	table := &toc.Toc{}
	for i, entry := range entries {
		if !entry.hasPos {
			return nil, &ParseError{Format: CueSheet, Kind: KindTruncated, Context: fmt.Sprintf("TRACK%02d", entry.number)}
		}
		end := closingEnd(entry.start, media)
		if i+1 < len(entries) {
			end = entries[i+1].start
		}
		chapter, err := toc.NewChapterWithID(fmt.Sprintf("%02d", entry.number), entry.title, entry.start, end)
		if err != nil {
			return nil, &ParseError{Format: CueSheet, Kind: KindUnexpectedSequence, Context: entry.start.String()}
		}
		if entry.artist != "" {
			chapter.SetTag(toc.TagArtist, entry.artist)
		}
		if err := table.Add(chapter); err != nil {
			return nil, &ParseError{Format: CueSheet, Kind: KindUnexpectedSequence, Context: entry.title}
		}
	}
	return table, nil
}

// parseFramePosition reads MM:SS:FF where MM may exceed 59.
func parseFramePosition(token string) (timecode.Timestamp, error) {
	parts := strings.Split(strings.TrimSpace(token), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("position %q: expected MM:SS:FF", token)
	}
	values := make([]uint64, 3)
	for i, part := range parts {
		v, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("position %q: %w", token, err)
		}
		values[i] = v
	}
	if values[1] > 59 || values[2] >= timecode.CueFrameRate {
		return 0, fmt.Errorf("position %q: seconds/frames out of range", token)
	}
	frames := (values[0]*60+values[1])*timecode.CueFrameRate + values[2]
	return timecode.FromFrames(frames), nil
}

func cutToken(s string) (token, rest string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
