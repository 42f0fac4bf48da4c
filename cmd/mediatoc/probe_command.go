package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediatoc/internal/engine"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Report the availability of every engine capability mediatoc can use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := ctx.ensureEngine()
			if err != nil {
				return err
			}
			registry, err := ctx.ensureProfiles()
			if err != nil {
				return err
			}

			requirements := []engine.Requirement{
				{Name: "decodebin", Description: "stream decoding"},
				{Name: "audioconvert", Description: "audio rendering"},
				{Name: "videosink", Description: "video rendering", Optional: true},
				{Name: "matroskamux", Description: "chapter-capable muxing"},
			}
			seen := map[string]bool{}
			for _, req := range requirements {
				seen[req.Name] = true
			}
			for _, profile := range registry.All() {
				for _, req := range profile.Requirements() {
					if !seen[req.Name] {
						seen[req.Name] = true
						requirements = append(requirements, req)
					}
				}
			}

			statuses := eng.Probe(cmd.Context(), requirements)
			rows := make([][]string, 0, len(statuses))
			missing := 0
			for _, st := range statuses {
				state := "ok"
				if !st.Available {
					state = "missing"
					if !st.Optional {
						missing++
					}
				}
				rows = append(rows, []string{st.Name, st.Description, state, st.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]tableColumn{{Title: "Element"}, {Title: "Purpose"}, {Title: "Status"}, {Title: "Detail"}},
				rows,
			))
			if missing > 0 {
				return fmt.Errorf("%d required capabilities missing", missing)
			}
			return nil
		},
	}
	return cmd
}
