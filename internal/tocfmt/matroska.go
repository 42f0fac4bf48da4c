package tocfmt

import (
	"bytes"
	"fmt"
	"hash/fnv"

	"mediatoc/internal/mediainfo"
	"mediatoc/internal/timecode"
	"mediatoc/internal/toc"
)

// Matroska element IDs for the chapter subset, in their on-wire form.
const (
	idChapters         = 0x1043A770
	idEditionEntry     = 0x45B9
	idChapterAtom      = 0xB6
	idChapterUID       = 0x73C4
	idChapterStringUID = 0x5654
	idChapterTimeStart = 0x91
	idChapterTimeEnd   = 0x92
	idChapterDisplay   = 0x80
	idChapString       = 0x85
	idChapLanguage     = 0x437C
)

// matroskaCodec reads and writes the container-native chapter atoms: an EBML
// Chapters element holding one EditionEntry with flat ChapterAtoms. Times
// are nanoseconds, so round-trips are exact. Nested atoms are not produced;
// when parsing they are flattened by ignoring atoms inside atoms.
type matroskaCodec struct{}

func (matroskaCodec) Serialize(table *toc.Toc, _ *mediainfo.Info) ([]byte, error) {
	var edition bytes.Buffer
	for _, chapter := range table.Chapters() {
		var atom bytes.Buffer
		writeUintElement(&atom, idChapterUID, chapterUID(chapter.ID))
		if chapter.ID != "" {
			writeStringElement(&atom, idChapterStringUID, chapter.ID)
		}
		writeUintElement(&atom, idChapterTimeStart, chapter.Start.Nanos())
		writeUintElement(&atom, idChapterTimeEnd, chapter.End.Nanos())

		var displayBody bytes.Buffer
		writeStringElement(&displayBody, idChapString, chapter.Title())
		lang, ok := chapter.Tag(toc.TagLanguage)
		if !ok || lang == "" {
			lang = "und"
		}
		writeStringElement(&displayBody, idChapLanguage, lang)
		writeMasterElement(&atom, idChapterDisplay, displayBody.Bytes())

		writeMasterElement(&edition, idChapterAtom, atom.Bytes())
	}

	var chapters bytes.Buffer
	writeMasterElement(&chapters, idEditionEntry, edition.Bytes())

	var out bytes.Buffer
	writeMasterElement(&out, idChapters, chapters.Bytes())
	return out.Bytes(), nil
}

func (matroskaCodec) Parse(data []byte, media *mediainfo.Info) (*toc.Toc, error) {
	table := &toc.Toc{}
	if len(data) == 0 {
		return table, nil
	}

	d := &ebmlDecoder{data: data}
	id, body, err := d.element()
	if err != nil {
		return nil, err
	}
	if id != idChapters {
		return nil, &ParseError{Format: MatroskaChapters, Kind: KindUnexpectedSequence, Context: fmt.Sprintf("element 0x%X", id)}
	}
	if !d.done() {
		return nil, &ParseError{Format: MatroskaChapters, Kind: KindUnexpectedSequence, Context: "trailing data after Chapters"}
	}

	editions := &ebmlDecoder{data: body, base: d.base}
	for !editions.done() {
		id, editionBody, err := editions.element()
		if err != nil {
			return nil, err
		}
		if id != idEditionEntry {
			continue
		}
		atoms := &ebmlDecoder{data: editionBody, base: editions.base}
		for !atoms.done() {
			id, atomBody, err := atoms.element()
			if err != nil {
				return nil, err
			}
			if id != idChapterAtom {
				continue
			}
			chapter, err := parseChapterAtom(atomBody, atoms.base)
			if err != nil {
				return nil, err
			}
			if err := table.Add(chapter); err != nil {
				return nil, &ParseError{Format: MatroskaChapters, Kind: KindUnexpectedSequence, Context: chapter.Title()}
			}
		}
	}
	return table, nil
}

func parseChapterAtom(body []byte, base int) (toc.Chapter, error) {
	var (
		stringUID  string
		start, end timecode.Timestamp
		sawStart   bool
		title      string
		lang       string
	)

	d := &ebmlDecoder{data: body, base: base}
	for !d.done() {
		id, elBody, err := d.element()
		if err != nil {
			return toc.Chapter{}, err
		}
		switch id {
		case idChapterStringUID:
			stringUID = string(elBody)
		case idChapterTimeStart:
			start = timecode.Timestamp(decodeUint(elBody))
			sawStart = true
		case idChapterTimeEnd:
			end = timecode.Timestamp(decodeUint(elBody))
		case idChapterDisplay:
			display := &ebmlDecoder{data: elBody, base: d.base}
			for !display.done() {
				id, displayBody, err := display.element()
				if err != nil {
					return toc.Chapter{}, err
				}
				switch id {
				case idChapString:
					title = string(displayBody)
				case idChapLanguage:
					lang = string(displayBody)
				}
			}
		}
	}

	if !sawStart {
		return toc.Chapter{}, &ParseError{Format: MatroskaChapters, Kind: KindTruncated, Context: "atom without ChapterTimeStart"}
	}
	if end <= start {
		return toc.Chapter{}, &ParseError{Format: MatroskaChapters, Kind: KindUnexpectedSequence, Context: fmt.Sprintf("atom end %s before start %s", end, start)}
	}
	chapter, err := toc.NewChapterWithID(stringUID, title, start, end)
	if err != nil {
		return toc.Chapter{}, &ParseError{Format: MatroskaChapters, Kind: KindUnexpectedSequence, Context: err.Error()}
	}
	if lang != "" && lang != "und" {
		chapter.SetTag(toc.TagLanguage, lang)
	}
	return chapter, nil
}

// chapterUID derives the numeric ChapterUID the container requires from the
// opaque string identifier. UIDs must be non-zero.
func chapterUID(id string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	uid := h.Sum64()
	if uid == 0 {
		uid = 1
	}
	return uid
}

// --- EBML primitives ---

type ebmlDecoder struct {
	data []byte
	pos  int
	base int // offset of data[0] in the whole document, for error context
}

func (d *ebmlDecoder) done() bool { return d.pos >= len(d.data) }

func (d *ebmlDecoder) offset() int { return d.base + d.pos }

func (d *ebmlDecoder) truncated() *ParseError {
	return &ParseError{Format: MatroskaChapters, Kind: KindTruncated, Context: fmt.Sprintf("offset %d", d.offset())}
}

// element reads one complete element and returns its ID and body.
func (d *ebmlDecoder) element() (uint64, []byte, error) {
	id, err := d.readID()
	if err != nil {
		return 0, nil, err
	}
	size, err := d.readSize()
	if err != nil {
		return 0, nil, err
	}
	if size > uint64(len(d.data)-d.pos) {
		return 0, nil, d.truncated()
	}
	body := d.data[d.pos : d.pos+int(size)]
	d.pos += int(size)
	return id, body, nil
}

// readID reads an element ID, keeping the length-marker bits (Matroska IDs
// are conventionally written with the marker included).
func (d *ebmlDecoder) readID() (uint64, error) {
	if d.done() {
		return 0, d.truncated()
	}
	first := d.data[d.pos]
	width := vintWidth(first)
	if width == 0 || d.pos+width > len(d.data) {
		return 0, &ParseError{Format: MatroskaChapters, Kind: KindUnexpectedSequence, Context: fmt.Sprintf("offset %d", d.offset())}
	}
	var id uint64
	for i := 0; i < width; i++ {
		id = id<<8 | uint64(d.data[d.pos+i])
	}
	d.pos += width
	return id, nil
}

// readSize reads a size vint, stripping the length-marker bit.
func (d *ebmlDecoder) readSize() (uint64, error) {
	if d.done() {
		return 0, d.truncated()
	}
	first := d.data[d.pos]
	width := vintWidth(first)
	if width == 0 || d.pos+width > len(d.data) {
		return 0, &ParseError{Format: MatroskaChapters, Kind: KindUnexpectedSequence, Context: fmt.Sprintf("offset %d", d.offset())}
	}
	size := uint64(first) &^ (uint64(0x80) >> (width - 1))
	for i := 1; i < width; i++ {
		size = size<<8 | uint64(d.data[d.pos+i])
	}
	d.pos += width
	return size, nil
}

// vintWidth returns the byte length encoded in a vint's leading byte, or 0
// for the invalid all-zero marker.
func vintWidth(first byte) int {
	for i := 0; i < 8; i++ {
		if first&(0x80>>i) != 0 {
			return i + 1
		}
	}
	return 0
}

func decodeUint(body []byte) uint64 {
	var v uint64
	for _, b := range body {
		v = v<<8 | uint64(b)
	}
	return v
}

func writeID(buf *bytes.Buffer, id uint64) {
	width := 1
	for shifted := id; shifted > 0xFF; shifted >>= 8 {
		width++
	}
	for i := width - 1; i >= 0; i-- {
		buf.WriteByte(byte(id >> (8 * uint(i))))
	}
}

func writeSize(buf *bytes.Buffer, size uint64) {
	// Pick the smallest width whose payload bits can hold the value.
	width := 1
	for ; width <= 8; width++ {
		max := uint64(1)<<(7*uint(width)) - 2
		if size <= max {
			break
		}
	}
	marker := uint64(0x80) >> (width - 1) << (8 * uint(width-1))
	encoded := marker | size
	for i := width - 1; i >= 0; i-- {
		buf.WriteByte(byte(encoded >> (8 * uint(i))))
	}
}

func writeMasterElement(buf *bytes.Buffer, id uint64, body []byte) {
	writeID(buf, id)
	writeSize(buf, uint64(len(body)))
	buf.Write(body)
}

func writeStringElement(buf *bytes.Buffer, id uint64, value string) {
	writeID(buf, id)
	writeSize(buf, uint64(len(value)))
	buf.WriteString(value)
}

func writeUintElement(buf *bytes.Buffer, id uint64, value uint64) {
	width := 1
	for shifted := value; shifted > 0xFF; shifted >>= 8 {
		width++
	}
	writeID(buf, id)
	writeSize(buf, uint64(width))
	for i := width - 1; i >= 0; i-- {
		buf.WriteByte(byte(value >> (8 * uint(i))))
	}
}
