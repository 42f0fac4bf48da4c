package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mediatoc/internal/history"
	"mediatoc/internal/tocfmt"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var formatFlag, outputFlag string

	cmd := &cobra.Command{
		Use:   "export <media-file>",
		Short: "Export the embedded chapter table to a chapter file",
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
			info, err := eng.Inspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if info.Toc == nil || info.Toc.Empty() {
				return fmt.Errorf("%s carries no chapters to export", args[0])
			}

			name := formatFlag
			if name == "" {
				name = cfg.Export.Format
			}
			format, err := tocfmt.ParseFormat(name)
			if err != nil {
				return err
			}
			codec, err := tocfmt.CodecFor(format)
			if err != nil {
				return err
			}
			data, err := codec.Serialize(info.Toc, info)
			if err != nil {
				return err
			}

			output := outputFlag
			if output == "" {
				base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
				output = filepath.Join(cfg.Paths.OutputDir, base+"."+format.Extension())
			}
			writeErr := writeLocked(output, data)
			recordRun(cmd, ctx, history.Run{
				Kind:      history.KindExport,
				Input:     args[0],
				Output:    output,
				Format:    format.String(),
				Chapters:  info.Toc.Len(),
				Succeeded: writeErr == nil,
				Detail:    errDetail(writeErr),
			})
			if writeErr != nil {
				return writeErr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d chapters to %s (%s)\n",
				info.Toc.Len(), output, format)
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Chapter format (mkvmerge, cue, matroska)")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output path (defaults into the configured output directory)")
	return cmd
}

// recordRun journals a finished run; history failures only warn, they never
// fail the command that did the real work.
func recordRun(cmd *cobra.Command, ctx *commandContext, run history.Run) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return
	}
	store, err := history.Open(cfg.Paths.HistoryPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: history unavailable: %v\n", err)
		return
	}
	defer store.Close()
	if _, err := store.Record(cmd.Context(), run); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: record history: %v\n", err)
	}
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
