package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/repaso/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Ingest a PDF or text file as a new material",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		d, err := buildDeps(cmd, depsOptions{})
		if err != nil {
			return err
		}
		defer d.Close()

		out := cmd.OutOrStdout()
		res, err := d.svc.IngestFile(cmd.Context(), ingest.Source{
			Filename: filepath.Base(args[0]),
			Data:     data,
		}, func(stage string, done, total int) {
			if stage == ingest.StageEmbed && total > 0 && done < total {
				return
			}
			fmt.Fprintf(out, "  %-8s %d/%d\n", stage, done, total)
		})
		if err != nil {
			return err
		}

		m := res.Material
		fmt.Fprintf(out, "\nIngested %q\n", m.Title)
		fmt.Fprintf(out, "  ID:         %s\n", m.ID)
		fmt.Fprintf(out, "  Decoder:    %s\n", res.Decoder)
		fmt.Fprintf(out, "  Pages:      %d\n", m.EstimatedPages)
		fmt.Fprintf(out, "  Chunks:     %d\n", m.TotalChunks)
		fmt.Fprintf(out, "  Characters: %d\n", m.TotalCharacters)
		fmt.Fprintf(out, "  Took:       %s\n", res.Duration.Round(time.Millisecond))
		return nil
	},
}
