// Package naming builds output file names for split chapters.
package naming

import (
	"fmt"
	"strings"

	"mediatoc/internal/mediainfo"
	"mediatoc/internal/toc"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// SplitFileName builds the output name for one chapter of a split:
// "artist - album - NN. title (language).ext". The language suffix is the
// human-readable name of the selected audio stream's language and is omitted
// when the stream carries no language tag. Index is 1-based.
func SplitFileName(media *mediainfo.Info, chapter toc.Chapter, index int, extension string) string {
	var b strings.Builder

	if artist := media.MediaArtist(); artist != "" {
		b.WriteString(SanitizeFileName(artist))
		b.WriteString(" - ")
	}
	if album := media.MediaTitle(); album != "" {
		b.WriteString(SanitizeFileName(album))
		b.WriteString(" - ")
	}
	fmt.Fprintf(&b, "%02d. %s", index, SanitizeFileName(chapter.Title()))

	if lang := splitLanguage(media); lang != "" {
		fmt.Fprintf(&b, " (%s)", SanitizeFileName(lang))
	}

	b.WriteString(".")
	b.WriteString(strings.TrimPrefix(extension, "."))
	return b.String()
}

func splitLanguage(media *mediainfo.Info) string {
	for _, stream := range media.StreamsOfKind(mediainfo.KindAudio) {
		if !media.Selected(stream.ID) {
			continue
		}
		if name := stream.LanguageName(); name != "" {
			return name
		}
		return stream.Language
	}
	return ""
}
