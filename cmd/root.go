package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rtzll/quizgen/internal"
)

var (
	config *internal.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quizgen [video URL]",
	Short: "Turn a video into a quiz",
	Long: `quizgen downloads the audio track of a video, transcribes it with Whisper
and asks an OpenAI model to write a quiz about it.

Run it with a URL for a one-off quiz in the terminal, or use "quizgen serve"
for the browser form.`,
	Example: `  # Generate a 10 question quiz
  quizgen "https://www.youtube.com/watch?v=tAP1eZYEuKA"

  # Ask for 5 questions and keep the transcript somewhere else
  quizgen "https://youtu.be/tAP1eZYEuKA" -n 5 --transcript-out notes.txt

  # Use a specific OpenAI model and key
  quizgen "https://youtu.be/tAP1eZYEuKA" --model gpt-4o --api-key sk-...

  # Use a custom prompt
  quizgen "https://youtu.be/tAP1eZYEuKA" --prompt "Write {{.QuestionCount}} true/false questions: {{.Transcript}}"`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return internal.HandleVerboseFlag(cmd, config)
	},
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

		transcriptOut, _ := cmd.Flags().GetString("transcript-out")
		return printResult(result, transcriptOut)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	config = internal.InitConfig()
	ensureLayout()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	interrupted := watchInterrupt(cancel)

	rootCmd.SetContext(ctx)
	err := rootCmd.Execute()

	// the cancelled run removed its own scratch dir before Execute returned
	select {
	case <-interrupted:
		os.Exit(130)
	default:
	}
	return err
}

// ensureLayout creates the XDG directories and default files on first use
func ensureLayout() {
	if err := internal.EnsureDirs(config.ConfigDir, config.CacheDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating XDG directories: %v\n", err)
		os.Exit(1)
	}
	if err := internal.EnsureDefaultConfig(config.ConfigDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to ensure default config: %v\n", err)
	}
	if err := internal.EnsureDefaultPrompt(config.ConfigDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to ensure default prompt: %v\n", err)
	}
	if err := internal.PruneStaleScratch(config.TempDir, internal.StaleScratchAge, time.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to prune old scratch directories: %v\n", err)
	}
}

// watchInterrupt cancels the running command on the first SIGINT or SIGTERM.
// Default handling is restored afterwards, so a second signal kills the process.
func watchInterrupt(cancel context.CancelFunc) <-chan struct{} {
	interrupted := make(chan struct{})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		signal.Stop(sigCh)
		close(interrupted)
		fmt.Fprintln(os.Stderr, "\nInterrupted, stopping the current run...")
		cancel()
	}()

	return interrupted
}

func init() {
	internal.AddQuizFlags(rootCmd)
	internal.AddCredentialFlag(rootCmd)
	rootCmd.Flags().String("transcript-out", internal.TranscriptFileName, "Where to save the full transcript (empty to skip)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for debugging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only print the quiz")
}
