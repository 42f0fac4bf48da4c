package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"mediatoc/internal/mediaerr"
	"mediatoc/internal/mediainfo"
	"mediatoc/internal/timecode"
	"mediatoc/internal/toc"
)

// probeResult is the subset of ffprobe's JSON output the adapter consumes.
type probeResult struct {
	Streams  []probeStream  `json:"streams"`
	Chapters []probeChapter `json:"chapters"`
	Format   probeFormat    `json:"format"`
}

type probeStream struct {
	Index      int               `json:"index"`
	CodecName  string            `json:"codec_name"`
	CodecType  string            `json:"codec_type"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	SampleRate string            `json:"sample_rate"`
	Channels   int               `json:"channels"`
	Tags       map[string]string `json:"tags"`
}

type probeChapter struct {
	ID        int64             `json:"id"`
	StartTime string            `json:"start_time"`
	EndTime   string            `json:"end_time"`
	Tags      map[string]string `json:"tags"`
}

type probeFormat struct {
	Filename   string            `json:"filename"`
	Duration   string            `json:"duration"`
	FormatName string            `json:"format_name"`
	Tags       map[string]string `json:"tags"`
}

// inspect executes ffprobe against the provided path and decodes the JSON
// response into a media snapshot.
func inspect(ctx context.Context, binary, path string) (*mediainfo.Info, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary,
		"-v", "error", "-hide_banner",
		"-show_format", "-show_streams", "-show_chapters",
		"-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, mediaerr.Wrap(mediaerr.ErrUnreadableMedia, "ffprobe inspect", path,
			fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output))))
	}

	var result probeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, mediaerr.Wrap(mediaerr.ErrUnreadableMedia, "ffprobe parse", path, err)
	}
	return snapshot(path, result)
}

// snapshot converts raw ffprobe output into the engine-neutral snapshot.
func snapshot(path string, result probeResult) (*mediainfo.Info, error) {
	info := &mediainfo.Info{
		Path:      path,
		Container: result.Format.FormatName,
		Duration:  parseSeconds(result.Format.Duration),
		Title:     tagValue(result.Format.Tags, "title"),
		Artist:    tagValue(result.Format.Tags, "artist", "album_artist"),
		Tags:      result.Format.Tags,
	}
	info.TitleSortname = tagValue(result.Format.Tags, "title-sortname", "titlesort")
	info.ArtistSortname = tagValue(result.Format.Tags, "artist-sortname", "artistsort")

	counts := map[mediainfo.StreamKind]int{}
	for _, s := range result.Streams {
		kind, ok := streamKind(s.CodecType)
		if !ok {
			continue
		}
		stream := mediainfo.Stream{
			ID:       fmt.Sprintf("%s_%d", kindPrefix(kind), counts[kind]),
			Kind:     kind,
			Codec:    s.CodecName,
			Language: tagValue(s.Tags, "language"),
			Width:    s.Width,
			Height:   s.Height,
			Channels: s.Channels,
			Tags:     s.Tags,
		}
		if rate, err := strconv.Atoi(strings.TrimSpace(s.SampleRate)); err == nil {
			stream.Rate = rate
		}
		counts[kind]++
		info.Streams = append(info.Streams, stream)
	}

	if len(result.Chapters) > 0 {
		table := &toc.Toc{}
		for i, ch := range result.Chapters {
			start := parseSeconds(ch.StartTime)
			end := parseSeconds(ch.EndTime)
			if end <= start {
				continue
			}
			chapter, err := toc.NewChapterWithID(
				strconv.FormatInt(ch.ID, 10),
				tagValue(ch.Tags, "title"),
				start, end)
			if err != nil {
				return nil, mediaerr.Wrap(mediaerr.ErrUnreadableMedia, "chapters", path, err)
			}
			if err := table.Add(chapter); err != nil {
				return nil, mediaerr.Wrap(mediaerr.ErrUnreadableMedia, "chapters", path,
					fmt.Errorf("chapter %d: %w", i+1, err))
			}
		}
		if !table.Empty() {
			info.Toc = table
		}
	}
	return info, nil
}

func streamKind(codecType string) (mediainfo.StreamKind, bool) {
	switch strings.ToLower(strings.TrimSpace(codecType)) {
	case "video":
		return mediainfo.KindVideo, true
	case "audio":
		return mediainfo.KindAudio, true
	case "subtitle":
		return mediainfo.KindText, true
	default:
		return 0, false
	}
}

func kindPrefix(kind mediainfo.StreamKind) string {
	switch kind {
	case mediainfo.KindVideo:
		return "video"
	case mediainfo.KindAudio:
		return "audio"
	default:
		return "text"
	}
}

func tagValue(tags map[string]string, names ...string) string {
	for _, name := range names {
		for key, value := range tags {
			if strings.EqualFold(key, name) {
				return strings.TrimSpace(value)
			}
		}
	}
	return ""
}

// parseSeconds converts ffprobe's decimal-seconds strings to a timestamp,
// returning 0 for anything unparseable.
func parseSeconds(value string) timecode.Timestamp {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || parsed < 0 {
		return 0
	}
	return timecode.FromSeconds(parsed)
}
