package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mediatoc/internal/history"
	"mediatoc/internal/mediainfo"
	"mediatoc/internal/pipeline"
	"mediatoc/internal/toc"
)

func newSplitCommand(ctx *commandContext) *cobra.Command {
	var chaptersFlag, chaptersFormatFlag, profileFlag, streamFlag, outputDirFlag string
	var continueFlag bool

	cmd := &cobra.Command{
		Use:   "split <media-file>",
		Short: "Split a media file into one audio file per chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			eng, err := ctx.ensureEngine()
			if err != nil {
				return err
			}
			registry, err := ctx.ensureProfiles()
			if err != nil {
				return err
			}

			profileName := profileFlag
			if profileName == "" {
				profileName = cfg.Split.Profile
			}
			profile, err := registry.Get(profileName)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			info, err := eng.Inspect(runCtx, args[0])
			if err != nil {
				return err
			}

			var table *toc.Toc
			if chaptersFlag != "" {
				_, table, err = readTocFile(chaptersFlag, chaptersFormatFlag, info)
				if err != nil {
					return err
				}
			} else if info.Toc != nil && !info.Toc.Empty() {
				table = info.Toc
			} else {
				return fmt.Errorf("%s carries no chapters; pass --chapters", args[0])
			}

			streamID := streamFlag
			if streamID == "" {
				audio := info.StreamsOfKind(mediainfo.KindAudio)
				if len(audio) == 0 {
					return fmt.Errorf("%s carries no audio stream", args[0])
				}
				streamID = audio[0].ID
			}

			outputDir := outputDirFlag
			if outputDir == "" {
				outputDir = cfg.Paths.OutputDir
			}
			continueOnError := continueFlag || cfg.Split.ContinueOnError

			s := pipeline.NewSplitter(eng, ctx.ensureLogger())
			defer s.Close()

			go func() {
				<-runCtx.Done()
				_ = s.Close()
			}()

			if err := s.Open(runCtx, pipeline.SplitRequest{
				Input:           args[0],
				Toc:             table,
				StreamID:        streamID,
				Profile:         profile,
				OutputDir:       outputDir,
				ContinueOnError: continueOnError,
			}); err != nil {
				return err
			}

			final, runErr := driveExport(cmd, s)

			outcomes := s.Outcomes()
			failed := 0
			for _, outcome := range outcomes {
				if outcome.Err != nil {
					failed++
				}
			}
			recordRun(cmd, ctx, history.Run{
				Kind:      history.KindSplit,
				Input:     args[0],
				Output:    outputDir,
				Format:    profile.Name,
				Chapters:  len(outcomes),
				Failed:    failed,
				Succeeded: final == pipeline.Completed && failed == 0,
				Detail:    errDetail(runErr),
			})
			if runErr != nil {
				return runErr
			}
			if final != pipeline.Completed {
				return fmt.Errorf("split %s: %s", args[0], final)
			}
			if failed > 0 {
				return fmt.Errorf("split finished with %d of %d chapters failed", failed, len(outcomes))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Split %d chapters into %s\n", len(outcomes), outputDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&chaptersFlag, "chapters", "", "Chapter file overriding the source's own table")
	cmd.Flags().StringVar(&chaptersFormatFlag, "chapters-format", "", "Format of the chapter file (mkvmerge, cue, matroska)")
	cmd.Flags().StringVarP(&profileFlag, "profile", "p", "", "Encoding profile (see `mediatoc probe` for availability)")
	cmd.Flags().StringVar(&streamFlag, "stream", "", "Audio stream id to encode (defaults to the first audio stream)")
	cmd.Flags().StringVarP(&outputDirFlag, "output-dir", "o", "", "Directory receiving one file per chapter")
	cmd.Flags().BoolVar(&continueFlag, "continue-on-error", false, "Keep splitting after a chapter fails")
	return cmd
}
