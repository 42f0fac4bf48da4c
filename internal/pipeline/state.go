package pipeline

import (
	"mediatoc/internal/timecode"
)

// State is the pipeline lifecycle state.
type State int

const (
	Unopened State = iota
	Opening
	Ready
	Playing
	Paused
	Seeking
	Exporting
	Completed
	Failed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Unopened:
		return "unopened"
	case Opening:
		return "opening"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Seeking:
		return "seeking"
	case Exporting:
		return "exporting"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state accepts no further state-changing
// command.
func (s State) Terminal() bool {
	switch s {
	case Completed, Failed, Cancelled:
		return true
	default:
		return false
	}
}

// playable reports whether play/pause/seek commands are accepted.
func (s State) playable() bool {
	switch s {
	case Ready, Playing, Paused:
		return true
	default:
		return false
	}
}

// ChapterOutcome reports the determinate result of one splitter sub-job.
type ChapterOutcome struct {
	Index int // 0-based chapter position
	Title string
	Path  string
	Err   error // nil on success
}

// Notification is delivered to subscribers on every observable change.
type Notification struct {
	State    State
	Position timecode.Timestamp

	// Progress is the export completion fraction in [0, 1]; meaningful
	// while State is Exporting and on Completed.
	Progress float64

	// Err carries the failure when State is Failed.
	Err error

	// Chapter carries a per-chapter outcome from the splitter; such
	// notifications do not imply a state change.
	Chapter *ChapterOutcome
}
