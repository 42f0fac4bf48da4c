// Package main is the mediatoc command line tool.
//
// Subcommands inspect media files, convert chapter tables between the
// mkvmerge, cue sheet, and Matroska formats, embed a table of contents into
// a container, and split one audio stream into per-chapter files. The
// command layer resolves configuration, builds the ffmpeg engine, and
// streams pipeline notifications to the terminal; all media semantics live
// under internal/.
package main
