package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild material totals from stored chunks and check embeddings",
	RunE: func(cmd *cobra.Command, args []string) error {
		indexPath, _ := cmd.Flags().GetString("index")

		d, err := buildDeps(cmd, depsOptions{})
		if err != nil {
			return err
		}
		defer d.Close()

		entries, err := d.svc.Reindex(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var updated, bad int
		for _, e := range entries {
			status := "ok"
			if e.Updated {
				status = "totals fixed"
				updated++
			}
			if len(e.BadVectors) > 0 {
				status = fmt.Sprintf("%d bad embeddings at chunks %v", len(e.BadVectors), e.BadVectors)
				bad++
			}
			fmt.Fprintf(out, "%-36s  %-30s  %5d chunks  %s\n", e.MaterialID, clip(e.Title, 30), e.Chunks, status)
		}
		fmt.Fprintf(out, "\n%d materials, %d updated, %d with bad embeddings\n", len(entries), updated, bad)

		if indexPath != "" {
			if err := writeIndex(indexPath, entries); err != nil {
				return err
			}
			fmt.Fprintf(out, "Index written to %s\n", indexPath)
		}
		if bad > 0 {
			return fmt.Errorf("%d materials have embeddings that need re-ingesting", bad)
		}
		return nil
	},
}

// writeIndex replaces path atomically with v as indented JSON.
func writeIndex(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*.json")
	if err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(raw, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

func init() {
	reindexCmd.Flags().String("index", "", "Also write the materials index as JSON to this file")
}
