package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/repaso/internal/store"
)

var reviewCmd = &cobra.Command{
	Use:   "review <question-id>",
	Short: "Record a self-assessed review (quality 0-5)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quality, _ := cmd.Flags().GetInt("quality")

		d, err := buildDeps(cmd, depsOptions{})
		if err != nil {
			return err
		}
		defer d.Close()

		rs, err := d.svc.RecordReview(cmd.Context(), userFlag(cmd), args[0], quality)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "EF %.2f, repetition %d, next review %s (in %d days)\n",
			rs.EF, rs.Repetitions, rs.NextReview.Format("2006-01-02"), rs.DaysUntilReview(time.Now()))
		return nil
	},
}

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List questions due for review",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		d, err := buildDeps(cmd, depsOptions{})
		if err != nil {
			return err
		}
		defer d.Close()

		due, err := d.svc.Due(cmd.Context(), userFlag(cmd), limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(due) == 0 {
			fmt.Fprintln(out, "Nothing due. Well done.")
			return nil
		}

		fmt.Fprintf(out, "%-36s  %-10s  %-12s  %4s  %s\n", "Question ID", "Due", "Status", "EF", "Question")
		fmt.Fprintln(out, strings.Repeat("─", 110))
		for _, r := range due {
			fmt.Fprintf(out, "%-36s  %-10s  %-12s  %4.2f  %s\n",
				r.QuestionID, r.NextReview.Format("2006-01-02"), dueStatus(r), r.EF, clip(r.Question, 60))
		}
		return nil
	},
}

func dueStatus(r store.DueReview) string {
	if r.DaysOverdue > 0 {
		return fmt.Sprintf("%s +%dd", r.ReviewStatus, r.DaysOverdue)
	}
	return string(r.ReviewStatus)
}

func init() {
	reviewCmd.Flags().Int("quality", -1, "Recall quality from 0 (blackout) to 5 (perfect)")
	_ = reviewCmd.MarkFlagRequired("quality")
	dueCmd.Flags().IntP("limit", "n", 20, "Maximum number of reviews to show")
}
