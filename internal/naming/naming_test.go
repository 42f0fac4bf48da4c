package naming

import (
	"testing"

	"mediatoc/internal/mediainfo"
	"mediatoc/internal/timecode"
	"mediatoc/internal/toc"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"AC/DC: Back in Black", "AC-DC- Back in Black"},
		{"  what? ", "what"},
		{"a\\b*c", "a-b-c"},
		{"<>|\"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitFileName(t *testing.T) {
	chapter, err := toc.NewChapter("Intro", 0, 10*timecode.Second)
	if err != nil {
		t.Fatal(err)
	}

	full := &mediainfo.Info{
		Path:   "/music/album.flac",
		Title:  "Night Album",
		Artist: "The Band",
		Streams: []mediainfo.Stream{
			{ID: "audio_0", Kind: mediainfo.KindAudio, Language: "en"},
		},
	}
	got := SplitFileName(full, chapter, 1, "flac")
	want := "The Band - Night Album - 01. Intro (English).flac"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	// No artist tag and no stream language: both segments drop out and the
	// album falls back to the file name.
	bare := &mediainfo.Info{
		Path: "/music/album.flac",
		Streams: []mediainfo.Stream{
			{ID: "audio_0", Kind: mediainfo.KindAudio},
		},
	}
	got = SplitFileName(bare, chapter, 12, ".ogg")
	want = "album - 12. Intro.ogg"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
