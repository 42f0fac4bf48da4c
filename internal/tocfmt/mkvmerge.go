package tocfmt

import (
	"bytes"
	"fmt"
	"strings"

	"mediatoc/internal/mediainfo"
	"mediatoc/internal/timecode"
	"mediatoc/internal/toc"
)

const (
	chapterTag = "CHAPTER"
	nameTag    = "NAME"
)

// mkvMergeCodec reads and writes the mkvmerge chapter-list text format:
//
//	CHAPTER01=00:00:00.000
//	CHAPTER01NAME=Intro
//
// Timestamps are millisecond resolution. The format stores starts only; each
// chapter runs until the next start, the last one until the media duration.
type mkvMergeCodec struct{}

func (mkvMergeCodec) Parse(data []byte, media *mediainfo.Info) (*toc.Toc, error) {
	lines := splitLines(string(data))

	type pending struct {
		number int
		start  timecode.Timestamp
		title  string
		line   int // source line of the timestamp entry
	}
	var entries []pending

	for ln := 0; ln < len(lines); {
		line := lines[ln]
		if strings.TrimSpace(line) == "" {
			ln++
			continue
		}

		number, start, err := parseChapterLine(line, ln+1)
		if err != nil {
			return nil, err
		}
		if ln+1 >= len(lines) || strings.TrimSpace(lines[ln+1]) == "" {
			return nil, &ParseError{Format: MKVMergeText, Line: ln + 2, Kind: KindTruncated}
		}
		title, err := parseNameLine(lines[ln+1], ln+2, number)
		if err != nil {
			return nil, err
		}
		entries = append(entries, pending{number: number, start: start, title: title, line: ln + 1})
		ln += 2
	}

	table := &toc.Toc{}
	for i, entry := range entries {
		end := closingEnd(entry.start, media)
		if i+1 < len(entries) {
			end = entries[i+1].start
		}
		chapter, err := toc.NewChapterWithID(fmt.Sprintf("%02d", entry.number), entry.title, entry.start, end)
		if err != nil {
			return nil, &ParseError{Format: MKVMergeText, Line: entry.line, Kind: KindUnexpectedSequence, Context: entry.start.String()}
		}
		if err := table.Add(chapter); err != nil {
			return nil, &ParseError{Format: MKVMergeText, Line: entry.line, Kind: KindUnexpectedSequence, Context: entry.title}
		}
	}
	return table, nil
}

func (mkvMergeCodec) Serialize(table *toc.Toc, _ *mediainfo.Info) ([]byte, error) {
	var buf bytes.Buffer
	for i, chapter := range table.Chapters() {
		prefix := fmt.Sprintf("%s%02d", chapterTag, i+1)
		fmt.Fprintf(&buf, "%s=%s\n", prefix, chapter.Start.FormatWithHours())
		fmt.Fprintf(&buf, "%s%s=%s\n", prefix, nameTag, chapter.Title())
	}
	return buf.Bytes(), nil
}

// parseChapterLine reads "CHAPTERnn=<timestamp>".
func parseChapterLine(line string, lineNo int) (int, timecode.Timestamp, error) {
	rest, ok := strings.CutPrefix(line, chapterTag)
	if !ok {
		return 0, 0, &ParseError{Format: MKVMergeText, Line: lineNo, Kind: KindUnexpectedSequence, Context: clip(line, 10)}
	}
	number, rest, err := leadingNumber(rest)
	if err != nil {
		return 0, 0, &ParseError{Format: MKVMergeText, Line: lineNo, Kind: KindExpectedNumber, Context: clip(rest, 2)}
	}
	rest, ok = strings.CutPrefix(rest, "=")
	if !ok {
		return 0, 0, &ParseError{Format: MKVMergeText, Line: lineNo, Kind: KindUnexpectedSequence, Context: clip(rest, 10)}
	}
	start, err := timecode.Parse(strings.TrimSpace(rest))
	if err != nil {
		return 0, 0, &ParseError{Format: MKVMergeText, Line: lineNo, Kind: KindUnexpectedSequence, Context: clip(rest, 10)}
	}
	return number, start, nil
}

// parseNameLine reads "CHAPTERnnNAME=<title>" and verifies nn matches the
// preceding timestamp line.
func parseNameLine(line string, lineNo, wantNumber int) (string, error) {
	rest, ok := strings.CutPrefix(line, chapterTag)
	if !ok {
		return "", &ParseError{Format: MKVMergeText, Line: lineNo, Kind: KindUnexpectedSequence, Context: clip(line, 10)}
	}
	number, rest, err := leadingNumber(rest)
	if err != nil {
		return "", &ParseError{Format: MKVMergeText, Line: lineNo, Kind: KindExpectedNumber, Context: clip(rest, 2)}
	}
	if number != wantNumber {
		return "", &ParseError{Format: MKVMergeText, Line: lineNo, Kind: KindChapterMismatch, Context: clip(fmt.Sprintf("%02d", number), 2)}
	}
	rest, ok = strings.CutPrefix(rest, nameTag)
	if !ok {
		return "", &ParseError{Format: MKVMergeText, Line: lineNo, Kind: KindUnexpectedSequence, Context: clip(rest, 10)}
	}
	rest, ok = strings.CutPrefix(rest, "=")
	if !ok {
		return "", &ParseError{Format: MKVMergeText, Line: lineNo, Kind: KindUnexpectedSequence, Context: clip(rest, 10)}
	}
	return rest, nil
}

func leadingNumber(s string) (int, string, error) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, s, fmt.Errorf("expecting a number")
	}
	n := 0
	for _, c := range s[:i] {
		n = n*10 + int(c-'0')
	}
	return n, s[i:], nil
}

// closingEnd picks the end of the last parsed chapter: the media duration
// when known, otherwise one millisecond past the start so the start < end
// invariant holds.
func closingEnd(start timecode.Timestamp, media *mediainfo.Info) timecode.Timestamp {
	if media != nil && media.Duration > start {
		return media.Duration
	}
	return start + timecode.Millisecond
}

func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	// Drop a single trailing empty element produced by a final newline.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
