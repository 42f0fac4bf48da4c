package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"mediatoc/internal/fileutil"
	"mediatoc/internal/mediainfo"
	"mediatoc/internal/toc"
	"mediatoc/internal/tocfmt"
)

// resolveFormat picks a chapter format from an explicit flag value, falling
// back to the file extension.
func resolveFormat(flag, path string) (tocfmt.Format, error) {
	if name := strings.TrimSpace(flag); name != "" {
		return tocfmt.ParseFormat(name)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt":
		return tocfmt.MKVMergeText, nil
	case ".cue":
		return tocfmt.CueSheet, nil
	case ".mka", ".mkv", ".toc":
		return tocfmt.MatroskaChapters, nil
	default:
		return 0, fmt.Errorf("cannot infer chapter format from %q; pass --format", path)
	}
}

// writeLocked writes data to path atomically while holding an advisory lock,
// so two mediatoc invocations cannot interleave on one output file.
func writeLocked(path string, data []byte) error {
	lockPath := path + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return fmt.Errorf("another mediatoc instance is writing %s", path)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}()

	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// readTocFile parses a chapter file in the given or inferred format.
func readTocFile(path, formatFlag string, media *mediainfo.Info) (tocfmt.Format, *toc.Toc, error) {
	format, err := resolveFormat(formatFlag, path)
	if err != nil {
		return 0, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, fmt.Errorf("read chapters: %w", err)
	}
	codec, err := tocfmt.CodecFor(format)
	if err != nil {
		return 0, nil, err
	}
	table, err := codec.Parse(data, media)
	if err != nil {
		return 0, nil, err
	}
	return format, table, nil
}
