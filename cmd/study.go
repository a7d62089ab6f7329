package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/repaso/internal/app"
)

var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "Review due questions in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStudy(cmd)
	},
}

// runStudy opens the store, builds dependencies, and launches the TUI.
func runStudy(cmd *cobra.Command) error {
	d, err := buildDeps(cmd, depsOptions{quiet: true})
	if err != nil {
		return err
	}
	defer d.Close()
	return app.Run(cmd.Context(), d.svc, userFlag(cmd))
}
