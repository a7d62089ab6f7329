package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/repaso/internal/questiongen"
	"github.com/abhisek/repaso/internal/store"
	"github.com/abhisek/repaso/internal/study"
)

var generateCmd = &cobra.Command{
	Use:   "generate <material-id>",
	Short: "Generate questions for a material with the configured LLM",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		perChunk, _ := cmd.Flags().GetInt("per-chunk")
		maxChunks, _ := cmd.Flags().GetInt("max-chunks")
		resume, _ := cmd.Flags().GetString("resume")

		d, err := buildDeps(cmd, depsOptions{})
		if err != nil {
			return err
		}
		defer d.Close()

		out := cmd.OutOrStdout()
		report, err := d.svc.GenerateQuestions(cmd.Context(), args[0], study.GenerateRequest{
			PerChunk:    perChunk,
			MaxChunks:   maxChunks,
			ResumeJobID: resume,
		}, func(o questiongen.ChunkOutcome) {
			if o.Err != nil {
				fmt.Fprintf(out, "  chunk %-4d %d/%d  failed: %v\n", o.ChunkIndex, o.Done, o.Total, o.Err)
				return
			}
			fmt.Fprintf(out, "  chunk %-4d %d/%d  +%d questions (%d rejected, %d duplicates)\n",
				o.ChunkIndex, o.Done, o.Total, o.Created, o.Rejected, o.Duplicates)
		})
		if errors.Is(err, study.ErrGenerationDisabled) {
			return fmt.Errorf("%w: %v", err, d.llmErr)
		}
		if report != nil {
			fmt.Fprintf(out, "\nJob %s: %s\n", report.JobID, report.Status)
			fmt.Fprintf(out, "  Questions created: %d\n", report.QuestionsCreated)
			fmt.Fprintf(out, "  Chunks processed:  %d of %d\n", report.ChunksProcessed, report.TotalChunks)
			fmt.Fprintf(out, "  Failures:          %d\n", len(report.Failures))
			if report.Status == store.JobRunning {
				fmt.Fprintf(out, "  Resume with: repaso generate %s --resume %s\n", args[0], report.JobID)
			}
		}
		return err
	},
}

func init() {
	generateCmd.Flags().Int("per-chunk", 0, "Questions per chunk (default from REPASO_QUESTIONS_PER_CHUNK)")
	generateCmd.Flags().Int("max-chunks", 0, "Stop after this many chunks; the job can be resumed")
	generateCmd.Flags().String("resume", "", "Resume the job with this ID")
}
