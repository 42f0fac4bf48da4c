package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mediatoc/internal/mediainfo"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "inspect <media-file>",
		Short: "Show streams, metadata, and embedded chapters of a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := ctx.ensureEngine()
			if err != nil {
				return err
			}
			info, err := eng.Inspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				data, err := json.MarshalIndent(inspectView(info), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			printInspect(cmd, info)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable JSON")
	return cmd
}

func printInspect(cmd *cobra.Command, info *mediainfo.Info) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Title:    %s\n", info.MediaTitle())
	if artist := info.MediaArtist(); artist != "" {
		fmt.Fprintf(out, "Artist:   %s\n", artist)
	}
	fmt.Fprintf(out, "Duration: %s\n", info.Duration)
	fmt.Fprintf(out, "Container: %s\n\n", info.Container)

	rows := make([][]string, 0, len(info.Streams))
	for _, s := range info.Streams {
		detail := s.Codec
		switch s.Kind {
		case mediainfo.KindVideo:
			detail = fmt.Sprintf("%s %dx%d", s.Codec, s.Width, s.Height)
		case mediainfo.KindAudio:
			detail = fmt.Sprintf("%s %d Hz, %d ch", s.Codec, s.Rate, s.Channels)
		}
		rows = append(rows, []string{s.ID, s.Kind.String(), detail, s.LanguageName()})
	}
	fmt.Fprintln(out, renderTable(
		[]tableColumn{{Title: "Stream"}, {Title: "Kind"}, {Title: "Codec"}, {Title: "Language"}},
		rows,
	))

	if info.Toc == nil || info.Toc.Empty() {
		fmt.Fprintln(out, "\nNo embedded chapters.")
		return
	}
	chapterRows := make([][]string, 0, info.Toc.Len())
	for i, ch := range info.Toc.Chapters() {
		chapterRows = append(chapterRows, []string{
			strconv.Itoa(i + 1),
			ch.Title(),
			ch.Start.String(),
			ch.End.String(),
			ch.Duration().String(),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]tableColumn{
			{Title: "#", Right: true},
			{Title: "Title"},
			{Title: "Start", Right: true},
			{Title: "End", Right: true},
			{Title: "Length", Right: true},
		},
		chapterRows,
	))
}

type streamView struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Codec    string `json:"codec"`
	Language string `json:"language,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Rate     int    `json:"rate,omitempty"`
	Channels int    `json:"channels,omitempty"`
}

type chapterView struct {
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type mediaView struct {
	Path      string        `json:"path"`
	Title     string        `json:"title"`
	Artist    string        `json:"artist,omitempty"`
	Container string        `json:"container"`
	Duration  string        `json:"duration"`
	Streams   []streamView  `json:"streams"`
	Chapters  []chapterView `json:"chapters,omitempty"`
}

func inspectView(info *mediainfo.Info) mediaView {
	view := mediaView{
		Path:      info.Path,
		Title:     info.MediaTitle(),
		Artist:    info.MediaArtist(),
		Container: info.Container,
		Duration:  info.Duration.String(),
	}
	for _, s := range info.Streams {
		view.Streams = append(view.Streams, streamView{
			ID:       s.ID,
			Kind:     s.Kind.String(),
			Codec:    s.Codec,
			Language: s.Language,
			Width:    s.Width,
			Height:   s.Height,
			Rate:     s.Rate,
			Channels: s.Channels,
		})
	}
	if info.Toc != nil {
		for _, ch := range info.Toc.Chapters() {
			view.Chapters = append(view.Chapters, chapterView{
				Title: ch.Title(),
				Start: ch.Start.String(),
				End:   ch.End.String(),
			})
		}
	}
	return view
}
