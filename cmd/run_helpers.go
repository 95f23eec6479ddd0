package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtzll/quizgen/internal"
)

// prepareRun validates flags and config and builds the app for a quiz run
func prepareRun(cmd *cobra.Command, videoURL string) (*internal.App, internal.SessionInputs, error) {
	inputs, err := internal.InputsFromFlags(cmd, config, videoURL)
	if err != nil {
		return nil, internal.SessionInputs{}, err
	}

	if err := internal.ValidateModelFlag(cmd, config); err != nil {
		return nil, internal.SessionInputs{}, err
	}

	app, err := internal.NewApp(config)
	if err != nil {
		return nil, internal.SessionInputs{}, err
	}

	if err := internal.HandlePromptFlag(cmd, app); err != nil {
		return nil, internal.SessionInputs{}, err
	}

	return app, inputs, nil
}

// printResult shows the preview and quiz and saves the transcript file
func printResult(result *internal.Result, transcriptOut string) error {
	if !config.Quiet {
		if result.Title != "" {
			fmt.Printf("# %s\n\n", result.Title)
		}
		fmt.Println("Transcript Preview")
		fmt.Println(result.Preview())
		fmt.Println()
	}

	if transcriptOut != "" {
		if err := internal.SaveTranscriptFile(transcriptOut, result.Transcript); err != nil {
			return err
		}
		if !config.Quiet {
			fmt.Printf("Full transcript saved to %s\n\n", transcriptOut)
		}
	}

	if !config.Quiet {
		fmt.Println("Generated Quiz")
	}
	fmt.Println(internal.RenderQuiz(result.Quiz))
	return nil
}
