// Package toc models a media file's table of contents: an ordered sequence
// of non-overlapping chapters over half-open [start, end) intervals.
//
// Touching boundaries are legal; gaps are legal and represent untitled
// regions. Mutations are atomic: a rejected insertion leaves the table
// untouched.
package toc
