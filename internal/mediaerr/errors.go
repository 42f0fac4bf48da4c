package mediaerr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for the error classes the pipelines and codecs produce. Callers
// classify with errors.Is; the structured types below add context.
var (
	// ErrMissingCapability marks an engine element (decoder, encoder,
	// muxer) that is required but not installed. Always raised before any
	// destructive action.
	ErrMissingCapability = errors.New("missing capability")

	// ErrUnreadableMedia marks input that could not be demuxed.
	ErrUnreadableMedia = errors.New("unreadable media")

	// ErrIO marks filesystem read/write/permission failures.
	ErrIO = errors.New("i/o error")

	// ErrChapterOverlap marks a data-model invariant violation. Always
	// caller-recoverable; the TOC is left unchanged.
	ErrChapterOverlap = errors.New("chapter overlap")

	// ErrFormat marks a codec parse failure. No partial TOC is returned.
	ErrFormat = errors.New("format error")

	// ErrStateChange marks an engine refusal to change pipeline state.
	ErrStateChange = errors.New("state change refused")

	// ErrHardwareAccel marks a rendering failure attributable to hardware
	// acceleration, distinct from generic failures so the caller can
	// disable acceleration on the next run.
	ErrHardwareAccel = errors.New("hardware acceleration failure")

	// ErrBusy marks a command rejected because a prior state transition is
	// still pending confirmation.
	ErrBusy = errors.New("pipeline busy")

	// ErrTerminal marks a command issued after the pipeline reached
	// Failed or Cancelled.
	ErrTerminal = errors.New("pipeline terminated")
)

// Wrap tags err with the given marker and an operation/context prefix. The
// marker should be one of the exported sentinels above.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "media failure"
	}
	return strings.Join(parts, ": ")
}

// MissingCapability reports an engine element that could not be resolved.
type MissingCapability struct {
	Element string
	Detail  string
}

func (e *MissingCapability) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v: %s", ErrMissingCapability, e.Element)
	}
	return fmt.Sprintf("%v: %s (%s)", ErrMissingCapability, e.Element, e.Detail)
}

func (e *MissingCapability) Unwrap() error { return ErrMissingCapability }

// ChapterOverlap reports an insertion that would intersect an existing
// chapter. Index refers to the chapter already in the TOC.
type ChapterOverlap struct {
	Index int
	Title string
}

func (e *ChapterOverlap) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("%v: would intersect chapter %d", ErrChapterOverlap, e.Index+1)
	}
	return fmt.Sprintf("%v: would intersect chapter %d (%s)", ErrChapterOverlap, e.Index+1, e.Title)
}

func (e *ChapterOverlap) Unwrap() error { return ErrChapterOverlap }

// ChapterFailure reports a per-chapter sub-job failure during splitting
// without terminating the whole run.
type ChapterFailure struct {
	Index int
	Title string
	Path  string
	Err   error
}

func (e *ChapterFailure) Error() string {
	return fmt.Sprintf("chapter %d (%s): %v", e.Index+1, e.Title, e.Err)
}

func (e *ChapterFailure) Unwrap() error { return e.Err }
