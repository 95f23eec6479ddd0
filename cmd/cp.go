package cmd

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/rtzll/quizgen/internal"
)

// cpCmd copies the quiz to the system clipboard instead of printing to stdout.
var cpCmd = &cobra.Command{
	Use:   "cp [video URL]",
	Short: "Generate a quiz and copy it to the clipboard",
	Example: `  # Copy a 10 question quiz to the clipboard
  quizgen cp "https://www.youtube.com/watch?v=tAP1eZYEuKA"

  # Copy 20 questions
  quizgen cp "https://youtu.be/tAP1eZYEuKA" -n 20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, inputs, err := prepareRun(cmd, args[0])
		if err != nil {
			return err
		}

		result, err := app.RunWithStatus(cmd.Context(), inputs, !config.Quiet)
		if err != nil {
			return err
		}

		if err := clipboard.WriteAll(result.Quiz); err != nil {
			return fmt.Errorf("copying quiz to clipboard: %w", err)
		}

		if !config.Quiet {
			fmt.Println("Quiz copied to clipboard")
		}

		return nil
	},
}

func init() {
	internal.AddQuizFlags(cpCmd)
	internal.AddCredentialFlag(cpCmd)
	rootCmd.AddCommand(cpCmd)
}
