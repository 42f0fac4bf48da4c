// Package timecode provides the fixed-point time primitives shared by the
// TOC data model, the interchange codecs, and the pipelines.
//
// A Timestamp is an unsigned count of nanoseconds from position zero and can
// never go negative; subtraction saturates. Conversions exist for the two
// coarser resolutions the interchange formats use: milliseconds (chapter-list
// text) and 1/75 second frames (cue sheets).
package timecode
