// Package ffmpeg adapts the ffmpeg and ffprobe command line tools to the
// engine interfaces. Media inspection shells out to ffprobe; toc-setter and
// splitter graphs supervise ffmpeg processes and translate their progress
// reports into engine events.
//
// Interactive playback is not supported by this adapter: building a playback
// graph returns an error. The capability probe still answers for the
// playback elements so callers get a coherent report.
package ffmpeg
