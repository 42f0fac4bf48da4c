package timecode

import (
	"fmt"
	"time"
)

// Timestamp is a position in the media expressed in nanoseconds from zero.
type Timestamp uint64

// Duration is a span of media time in nanoseconds.
type Duration = Timestamp

const (
	Nanosecond  Timestamp = 1
	Microsecond           = 1_000 * Nanosecond
	Millisecond           = 1_000 * Microsecond
	Second                = 1_000 * Millisecond
	Minute                = 60 * Second
	Hour                  = 60 * Minute
)

// CueFrameRate is the fixed frame rate used by cue sheet INDEX entries.
const CueFrameRate = 75

// FromMillis converts a millisecond count into a Timestamp.
func FromMillis(ms uint64) Timestamp {
	return Timestamp(ms) * Millisecond
}

// FromSeconds converts a floating-point second count into a Timestamp.
// Negative values clamp to zero.
func FromSeconds(secs float64) Timestamp {
	if secs <= 0 {
		return 0
	}
	return Timestamp(secs * float64(Second))
}

// FromFrames converts a 75 fps frame count into a Timestamp.
func FromFrames(frames uint64) Timestamp {
	return Timestamp(frames * uint64(Second) / CueFrameRate)
}

// FromStdDuration converts a time.Duration, clamping negatives to zero.
func FromStdDuration(d time.Duration) Timestamp {
	if d <= 0 {
		return 0
	}
	return Timestamp(d)
}

// Add returns ts advanced by d.
func (ts Timestamp) Add(d Duration) Timestamp {
	return ts + d
}

// SaturatingSub returns ts - d, clamped at zero.
func (ts Timestamp) SaturatingSub(d Duration) Timestamp {
	if d >= ts {
		return 0
	}
	return ts - d
}

// Clamp limits ts to the inclusive range [0, max].
func (ts Timestamp) Clamp(max Timestamp) Timestamp {
	if ts > max {
		return max
	}
	return ts
}

// Millis returns the timestamp truncated to milliseconds.
func (ts Timestamp) Millis() uint64 {
	return uint64(ts / Millisecond)
}

// Frames returns the timestamp as a 75 fps frame count, rounded half-up.
// Cue sheets address positions at this resolution.
func (ts Timestamp) Frames() uint64 {
	return (uint64(ts)*CueFrameRate + uint64(Second)/2) / uint64(Second)
}

// Seconds returns the timestamp as floating-point seconds.
func (ts Timestamp) Seconds() float64 {
	return float64(ts) / float64(Second)
}

// Std converts the timestamp into a time.Duration.
func (ts Timestamp) Std() time.Duration {
	return time.Duration(ts)
}

// Nanos returns the raw nanosecond count.
func (ts Timestamp) Nanos() uint64 {
	return uint64(ts)
}

// split breaks the timestamp into display components.
func (ts Timestamp) split() (h, m, s, ms uint64) {
	msTotal := uint64(ts / Millisecond)
	sTotal := msTotal / 1_000
	mTotal := sTotal / 60
	return mTotal / 60, mTotal % 60, sTotal % 60, msTotal % 1_000
}

// String formats the timestamp as MM:SS.mmm, with an hour prefix only when
// the position reaches one hour.
func (ts Timestamp) String() string {
	h, m, s, ms := ts.split()
	if h == 0 {
		return fmt.Sprintf("%02d:%02d.%03d", m, s, ms)
	}
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// FormatWithHours formats the timestamp as HH:MM:SS.mmm regardless of
// magnitude. The chapter-list text codec always writes this shape.
func (ts Timestamp) FormatWithHours() string {
	h, m, s, ms := ts.split()
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
