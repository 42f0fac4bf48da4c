package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mediatoc/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent export and split runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.Paths.HistoryPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limitFlag)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				result := "ok"
				if !run.Succeeded {
					result = "failed"
					if run.Kind == history.KindSplit && run.Failed > 0 && run.Failed < run.Chapters {
						result = fmt.Sprintf("%d/%d failed", run.Failed, run.Chapters)
					}
				}
				rows = append(rows, []string{
					strconv.FormatInt(run.ID, 10),
					run.CreatedAt.Local().Format(time.DateTime),
					run.Kind,
					run.Format,
					strconv.Itoa(run.Chapters),
					result,
					run.Output,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]tableColumn{
					{Title: "ID", Right: true},
					{Title: "When"},
					{Title: "Kind"},
					{Title: "Format"},
					{Title: "Chapters", Right: true},
					{Title: "Result"},
					{Title: "Output"},
				},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Maximum number of runs to list")
	return cmd
}
