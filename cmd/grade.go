package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/repaso/internal/study"
)

var gradeCmd = &cobra.Command{
	Use:   "grade <material-id>",
	Short: "Grade an answer against a material",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question, _ := cmd.Flags().GetString("question")
		answer, _ := cmd.Flags().GetString("answer")
		questionID, _ := cmd.Flags().GetString("question-id")
		asJSON, _ := cmd.Flags().GetBool("json")

		d, err := buildDeps(cmd, depsOptions{})
		if err != nil {
			return err
		}
		defer d.Close()

		res, err := d.svc.ValidateAnswer(cmd.Context(), userFlag(cmd), study.AnswerRequest{
			MaterialID: args[0],
			Question:   question,
			Answer:     answer,
			QuestionID: questionID,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		printGrade(out, res)
		return nil
	},
}

func printGrade(out io.Writer, res *study.AnswerResult) {
	fmt.Fprintf(out, "Category:   %s\n", res.Category)
	fmt.Fprintf(out, "Confidence: %.2f%%\n", res.Confidence)
	fmt.Fprintf(out, "Feedback:   %s\n", res.Feedback)
	if res.BestChunk != nil {
		fmt.Fprintf(out, "Best match (page %d): %s\n", res.BestChunk.Page, clip(res.BestChunk.Text, 200))
	}
	for i, sc := range res.Top3 {
		fmt.Fprintf(out, "  #%d chunk %-4d score %.4f  bm25 %.3f  cosine %.3f  coverage %.3f\n",
			i+1, sc.ChunkIndex, sc.Score, sc.Details.BM25, sc.Details.Cosine, sc.Details.Coverage)
	}
	if res.Ambiguity != nil && res.Ambiguity.IsAmbiguous {
		fmt.Fprintf(out, "Ambiguous:  %s\n", res.Ambiguity.Reason)
	}
	if res.Contradiction != nil && res.Contradiction.Detected {
		fmt.Fprintf(out, "Contradicts: %s\n", res.Contradiction.Sentence)
	}
	if res.Review != nil {
		fmt.Fprintf(out, "Quality %d, next review %s (in %d days)\n",
			*res.Quality, res.Review.NextReview.Format("2006-01-02"), res.Review.DaysUntilReview(time.Now()))
	}
}

func init() {
	gradeCmd.Flags().StringP("question", "q", "", "Question text (optional with --question-id)")
	gradeCmd.Flags().StringP("answer", "a", "", "Answer to grade")
	gradeCmd.Flags().String("question-id", "", "Stored question; also records the review")
	gradeCmd.Flags().Bool("json", false, "Print the full grading result as JSON")
	_ = gradeCmd.MarkFlagRequired("answer")
}
