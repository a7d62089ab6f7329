package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var materialsCmd = &cobra.Command{
	Use:   "materials",
	Short: "List ingested materials",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps(cmd, depsOptions{})
		if err != nil {
			return err
		}
		defer d.Close()

		ms, err := d.svc.Materials(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(ms) == 0 {
			fmt.Fprintln(out, "No materials yet. Add one with: repaso ingest <file>")
			return nil
		}

		fmt.Fprintf(out, "%-36s  %-30s  %6s  %5s  %s\n", "ID", "Title", "Chunks", "Pages", "Uploaded")
		fmt.Fprintln(out, strings.Repeat("─", 100))
		for _, m := range ms {
			fmt.Fprintf(out, "%-36s  %-30s  %6d  %5d  %s\n",
				m.ID, clip(m.Title, 30), m.TotalChunks, m.EstimatedPages,
				m.UploadedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
