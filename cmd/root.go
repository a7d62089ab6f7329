package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/repaso/internal/study"
)

var rootCmd = &cobra.Command{
	Use:   "repaso",
	Short: "Active-recall study backend",
	Long: "repaso ingests study material, generates open questions about it, grades free-text\n" +
		"answers against the material and schedules reviews with SM-2.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStudy(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database path or DSN (overrides REPASO_DB)")
	rootCmd.PersistentFlags().String("config", "", "YAML config file (overrides REPASO_CONFIG)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("user", study.LocalUser, "User whose reviews are read and written")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(materialsCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(gradeCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(dueCmd)
	rootCmd.AddCommand(studyCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

func userFlag(cmd *cobra.Command) string {
	if u, _ := cmd.Flags().GetString("user"); u != "" {
		return u
	}
	return study.LocalUser
}
