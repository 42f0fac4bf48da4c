package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediatoc/internal/mediainfo"
	"mediatoc/internal/tocfmt"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var fromFlag, toFlag, mediaFlag string

	cmd := &cobra.Command{
		Use:   "convert <chapters-in> <chapters-out>",
		Short: "Convert a chapter file between formats",
		Long: `Convert a chapter file between the mkvmerge text, cue sheet, and Matroska
chapter formats. Formats are inferred from file extensions unless --from and
--to override them. Passing --media supplies the source file whose duration
closes the last chapter and whose tags fill cue sheet headers.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var media *mediainfo.Info
			if mediaFlag != "" {
				eng, err := ctx.ensureEngine()
				if err != nil {
					return err
				}
				media, err = eng.Inspect(cmd.Context(), mediaFlag)
				if err != nil {
					return err
				}
			}

			_, table, err := readTocFile(args[0], fromFlag, media)
			if err != nil {
				return err
			}

			outFormat, err := resolveFormat(toFlag, args[1])
			if err != nil {
				return err
			}
			codec, err := tocfmt.CodecFor(outFormat)
			if err != nil {
				return err
			}
			data, err := codec.Serialize(table, media)
			if err != nil {
				return err
			}
			if err := writeLocked(args[1], data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d chapters to %s (%s)\n",
				table.Len(), args[1], outFormat)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromFlag, "from", "", "Input chapter format (mkvmerge, cue, matroska)")
	cmd.Flags().StringVar(&toFlag, "to", "", "Output chapter format (mkvmerge, cue, matroska)")
	cmd.Flags().StringVar(&mediaFlag, "media", "", "Media file providing duration and tags")
	return cmd
}
