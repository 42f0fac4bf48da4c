// Package mediainfo holds the read-only snapshot a pipeline produces when it
// opens a file: duration, container, per-stream descriptors, and tag
// metadata. The owning pipeline builds the snapshot once; everyone else gets
// a copy.
package mediainfo
