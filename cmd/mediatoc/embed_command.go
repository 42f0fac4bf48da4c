package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"mediatoc/internal/history"
	"mediatoc/internal/pipeline"
	"mediatoc/internal/toc"
)

func newEmbedCommand(ctx *commandContext) *cobra.Command {
	var chaptersFlag, chaptersFormatFlag, outputFlag string

	cmd := &cobra.Command{
		Use:   "embed <media-file>",
		Short: "Re-mux a media file into a Matroska container carrying a chapter table",
		Long: `Re-mux a media file into a new Matroska container with the given chapter
table embedded. Streams are copied, never re-encoded. The chapters come from
--chapters, or from the table already embedded in the source.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			eng, err := ctx.ensureEngine()
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

			output := outputFlag
			if output == "" {
				base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
				output = filepath.Join(cfg.Paths.OutputDir, base+".toc.mka")
			}

			p := pipeline.NewTocSetter(eng, ctx.ensureLogger())
			defer p.Close()

			go func() {
				<-runCtx.Done()
				_ = p.Close()
			}()

			if err := p.Open(runCtx, pipeline.ExportRequest{
				Input:  args[0],
				Output: output,
				Toc:    table,
			}); err != nil {
				return err
			}

			final, runErr := driveExport(cmd, p)
			recordRun(cmd, ctx, history.Run{
				Kind:      history.KindExport,
				Input:     args[0],
				Output:    output,
				Format:    "matroska container",
				Chapters:  table.Len(),
				Succeeded: final == pipeline.Completed,
				Detail:    errDetail(runErr),
			})
			if runErr != nil {
				return runErr
			}
			if final != pipeline.Completed {
				return fmt.Errorf("embed %s: %s", args[0], final)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Embedded %d chapters into %s\n", table.Len(), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&chaptersFlag, "chapters", "", "Chapter file to embed instead of the source's own table")
	cmd.Flags().StringVar(&chaptersFormatFlag, "chapters-format", "", "Format of the chapter file (mkvmerge, cue, matroska)")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output path (defaults into the configured output directory)")
	return cmd
}

// exportDriver is the subset of a pipeline the drive loop needs.
type exportDriver interface {
	Notifications() <-chan pipeline.Notification
	Start() error
	Err() error
}

// driveExport waits for readiness, starts the run, renders progress, and
// returns the terminal state.
func driveExport(cmd *cobra.Command, p exportDriver) (pipeline.State, error) {
	started := false
	lastPercent := -1
	final := pipeline.Cancelled
	for n := range p.Notifications() {
		switch {
		case n.State == pipeline.Ready && !started:
			started = true
			if err := p.Start(); err != nil {
				return pipeline.Failed, err
			}
		case n.Chapter != nil:
			printOutcome(cmd, *n.Chapter)
		case n.State == pipeline.Exporting:
			if percent := int(n.Progress * 100); percent >= lastPercent+5 {
				lastPercent = percent
				fmt.Fprintf(cmd.ErrOrStderr(), "  %3d%%  %s\n", percent, n.Position)
			}
		}
		if n.State.Terminal() {
			final = n.State
		}
	}
	if final == pipeline.Failed {
		return final, p.Err()
	}
	return final, nil
}

func printOutcome(cmd *cobra.Command, outcome pipeline.ChapterOutcome) {
	if outcome.Err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "  chapter %d (%s): FAILED: %v\n",
			outcome.Index+1, outcome.Title, outcome.Err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  chapter %d (%s): %s\n",
		outcome.Index+1, outcome.Title, outcome.Path)
}
