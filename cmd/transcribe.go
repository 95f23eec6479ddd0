package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtzll/quizgen/internal"
)

// transcribeCmd represents the transcribe command
var transcribeCmd = &cobra.Command{
	Use:   "transcribe [video URL]",
	Short: "Download and transcribe a video without writing a quiz",
	Example: `  # Print the transcript
  quizgen transcribe "https://www.youtube.com/watch?v=tAP1eZYEuKA"

  # Save transcript to file
  quizgen transcribe "https://youtu.be/tAP1eZYEuKA" -o transcript.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		apiKey := internal.CredentialFromFlags(cmd, config)
		if config.Transcriber == internal.TranscriberOpenAI {
			if err := internal.ValidateOpenAIAPIKey(apiKey); err != nil {
				return err
			}
		}

		app, err := internal.NewApp(config)
		if err != nil {
			return err
		}

		transcript, err := app.TranscriptWithStatus(cmd.Context(), args[0], apiKey, !config.Quiet)
		if err != nil {
			return err
		}

		outputFile, _ := cmd.Flags().GetString("output")
		if outputFile != "" {
			return internal.SaveTranscriptFile(outputFile, transcript)
		}

		fmt.Println(transcript)
		return nil
	},
}

func init() {
	internal.AddCredentialFlag(transcribeCmd)
	transcribeCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	rootCmd.AddCommand(transcribeCmd)
}
