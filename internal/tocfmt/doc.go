// Package tocfmt maps tables of contents to and from the three interchange
// formats: the mkvmerge chapter-list text format, cue sheets, and Matroska
// chapter atoms (EBML).
//
// Codecs are pure: parsing never returns a partial table, and serializing
// never mutates the input. Round-tripping a table reproduces it up to each
// format's native time resolution (milliseconds for the chapter list, 1/75 s
// frames for cue sheets, exact for Matroska atoms). The two text formats
// carry chapter starts only, so a chapter's end is recovered from the next
// start or the media duration.
package tocfmt
