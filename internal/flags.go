package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AddQuizFlags adds flags that shape the quiz request
func AddQuizFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("questions", "n", DefaultQuestions, fmt.Sprintf("Number of quiz questions (%d-%d)", MinQuestions, MaxQuestions))
	cmd.Flags().StringP("model", "m", "", "OpenAI model to use for the quiz")
	cmd.Flags().StringP("prompt", "p", "", "Custom prompt template (string or file path)")
}

// AddCredentialFlag adds the flag carrying the operator's OpenAI key
func AddCredentialFlag(cmd *cobra.Command) {
	cmd.Flags().String("api-key", "", "OpenAI API key (default: config or OPENAI_API_KEY)")
}

// CredentialFromFlags returns --api-key when given, otherwise the configured key
func CredentialFromFlags(cmd *cobra.Command, config *Config) string {
	if key, _ := cmd.Flags().GetString("api-key"); key != "" {
		return key
	}
	return config.OpenAIAPIKey
}

// InputsFromFlags collects the session inputs for a CLI run
func InputsFromFlags(cmd *cobra.Command, config *Config, videoURL string) (SessionInputs, error) {
	questions, err := cmd.Flags().GetInt("questions")
	if err != nil {
		return SessionInputs{}, fmt.Errorf("failed to get questions flag: %w", err)
	}

	inputs := SessionInputs{
		URL:           videoURL,
		Credential:    CredentialFromFlags(cmd, config),
		QuestionCount: questions,
	}
	if err := inputs.Validate(); err != nil {
		return SessionInputs{}, err
	}
	return inputs, nil
}

// HandlePromptFlag processes the --prompt flag to set custom prompt
func HandlePromptFlag(cmd *cobra.Command, app *App) error {
	promptFlag := cmd.Flags().Lookup("prompt")
	if promptFlag == nil || !promptFlag.Changed {
		return nil
	}

	prompt, err := cmd.Flags().GetString("prompt")
	if err != nil {
		return fmt.Errorf("failed to get prompt flag: %w", err)
	}

	if prompt == "" {
		return nil
	}

	app.SetPromptManager(NewPromptManager(app.config.ConfigDir, prompt))

	if IsLikelyFilePath(prompt) && FileExists(prompt) {
		app.ui.Verbose("Using custom prompt file: %s\n", prompt)
	} else {
		app.ui.Verbose("Using custom prompt string\n")
	}

	return nil
}

// HandleVerboseFlag processes the --verbose and --quiet flags to update config
func HandleVerboseFlag(cmd *cobra.Command, config *Config) error {
	if cmd.Flags().Changed("verbose") {
		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return fmt.Errorf("failed to get verbose flag: %w", err)
		}
		config.Verbose = verbose
	}
	if cmd.Flags().Changed("quiet") {
		quiet, err := cmd.Flags().GetBool("quiet")
		if err != nil {
			return fmt.Errorf("failed to get quiet flag: %w", err)
		}
		config.Quiet = quiet
	}
	return nil
}

// ValidateModelFlag applies --model to config and checks the resulting model
func ValidateModelFlag(cmd *cobra.Command, config *Config) error {
	modelFlag, _ := cmd.Flags().GetString("model")
	if modelFlag != "" {
		if err := ValidateModel(modelFlag); err != nil {
			return err
		}
		config.QuizModel = modelFlag
		return nil
	}
	if err := ValidateModel(config.QuizModel); err != nil {
		return fmt.Errorf("invalid model in config: %w", err)
	}
	return nil
}
