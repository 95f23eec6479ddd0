package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// App holds the application state and dependencies
type App struct {
	fetcher       AudioFetcher
	audio         *Audio
	transcriber   Transcriber
	ai            *AI
	promptManager *PromptManager
	config        *Config
	ui            UIManager
}

// NewApp initializes the application
func NewApp(config *Config, options ...AppOption) (*App, error) {
	cmdRunner := &DefaultCommandRunner{}
	audio := NewAudio(cmdRunner, config.Verbose)

	transcriber, err := NewTranscriber(config, audio)
	if err != nil {
		return nil, err
	}

	app := &App{
		fetcher:       NewVideoFetcher(config.Verbose),
		audio:         audio,
		transcriber:   transcriber,
		ai:            NewAI(OpenAIClientFactory(""), config.QuizModel, config.QuizTimeout, config.Verbose),
		promptManager: NewPromptManager(config.ConfigDir, config.Prompt),
		config:        config,
		ui:            NewUIManager(config.Verbose, config.Quiet),
	}

	for _, option := range options {
		option(app)
	}

	return app, nil
}

// AppOption customizes App creation
type AppOption func(*App)

// WithFetcher sets a custom audio fetcher
func WithFetcher(fetcher AudioFetcher) AppOption {
	return func(a *App) {
		a.fetcher = fetcher
	}
}

// WithAudio sets a custom audio processor
func WithAudio(audio *Audio) AppOption {
	return func(a *App) {
		a.audio = audio
	}
}

// WithTranscriber sets a custom speech-to-text backend
func WithTranscriber(transcriber Transcriber) AppOption {
	return func(a *App) {
		a.transcriber = transcriber
	}
}

// WithAI sets a custom AI processor
func WithAI(ai *AI) AppOption {
	return func(a *App) {
		a.ai = ai
	}
}

// WithUI sets a custom UI manager
func WithUI(ui UIManager) AppOption {
	return func(a *App) {
		a.ui = ui
	}
}

// SetPromptManager sets a new prompt manager
func (app *App) SetPromptManager(pm *PromptManager) {
	app.promptManager = pm
}

// Config returns the settings the app was built with
func (app *App) Config() *Config {
	return app.config
}

// TranscriberName identifies the configured speech-to-text backend
func (app *App) TranscriberName() string {
	return app.transcriber.Name()
}

// Run performs the complete workflow: fetch -> transcribe -> prompt -> quiz
func (app *App) Run(ctx context.Context, inputs SessionInputs) (*Result, error) {
	return app.RunWithStatus(ctx, inputs, false)
}

// RunWithStatus runs the workflow with an optional status spinner. Any stage
// failure aborts the run and nothing from earlier stages is returned.
func (app *App) RunWithStatus(ctx context.Context, inputs SessionInputs, showStatus bool) (*Result, error) {
	if err := inputs.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	LogInfo("run %s started: %s", runID, inputs)
	started := time.Now()

	var spinner ProgressBar = &SilentProgressBar{}
	if showStatus {
		spinner = app.ui.NewSpinner("Downloading audio...")
	}
	defer spinner.Finish()

	dir, err := NewScratchDir(app.config.TempDir, runID[:8])
	if err != nil {
		LogError("run %s: %v", runID, err)
		return nil, &StageError{Stage: StageFetch, Err: err}
	}
	defer removeScratchDir(dir)

	transcript, metadata, err := app.transcribeInto(ctx, dir, inputs.URL, inputs.Credential, spinner)
	if err != nil {
		LogError("run %s: %v", runID, err)
		return nil, err
	}

	spinner.Describe("Generating quiz with OpenAI...")
	spinner.Advance()

	prompt, err := app.promptManager.CreatePrompt(transcript, inputs.QuestionCount, metadata)
	if err != nil {
		LogError("run %s: %v", runID, err)
		return nil, &StageError{Stage: StagePrompt, Err: fmt.Errorf("creating prompt: %w", err)}
	}

	quiz, err := app.ai.Quiz(ctx, inputs.Credential, prompt)
	if err != nil {
		LogError("run %s: %v", runID, err)
		return nil, &StageError{Stage: StageQuiz, Err: fmt.Errorf("generating quiz: %w", err)}
	}

	result := &Result{
		RunID:      runID,
		Transcript: transcript,
		Quiz:       quiz,
	}
	if metadata != nil {
		result.Title = metadata.Title
	}

	LogInfo("run %s done in %s (%d transcript chars)", runID, time.Since(started).Round(time.Millisecond), len([]rune(transcript)))
	return result, nil
}

// Transcript fetches and transcribes a video without generating a quiz
func (app *App) Transcript(ctx context.Context, videoURL, apiKey string) (string, error) {
	return app.TranscriptWithStatus(ctx, videoURL, apiKey, false)
}

// TranscriptWithStatus is Transcript with an optional status spinner
func (app *App) TranscriptWithStatus(ctx context.Context, videoURL, apiKey string, showStatus bool) (string, error) {
	runID := uuid.NewString()

	var spinner ProgressBar = &SilentProgressBar{}
	if showStatus {
		spinner = app.ui.NewSpinner("Downloading audio...")
	}
	defer spinner.Finish()

	dir, err := NewScratchDir(app.config.TempDir, runID[:8])
	if err != nil {
		return "", &StageError{Stage: StageFetch, Err: err}
	}
	defer removeScratchDir(dir)

	transcript, _, err := app.transcribeInto(ctx, dir, videoURL, apiKey, spinner)
	if err != nil {
		LogError("transcript %s: %v", runID, err)
		return "", err
	}
	return transcript, nil
}

// transcribeInto runs the fetch and transcribe stages inside dir
func (app *App) transcribeInto(ctx context.Context, dir, videoURL, apiKey string, spinner ProgressBar) (string, *VideoMetadata, error) {
	app.ui.Verbose("Fetching audio for %s\n", videoURL)

	fetchCtx, cancel := withTimeout(ctx, app.config.FetchTimeout)
	fetched, err := app.fetcher.Audio(fetchCtx, videoURL, dir)
	cancel()
	if err != nil {
		return "", nil, &StageError{Stage: StageFetch, Err: fmt.Errorf("downloading audio: %w", err)}
	}
	audioFile, metadata := fetched.Path, fetched.Metadata

	spinner.Describe("Converting audio...")
	spinner.Advance()

	convertCtx, cancel := withTimeout(ctx, app.config.ConvertTimeout)
	waveform, err := app.audio.ConvertToWAV(convertCtx, audioFile)
	cancel()
	if err != nil {
		return "", nil, &StageError{Stage: StageTranscribe, Err: fmt.Errorf("converting audio: %w", err)}
	}

	spinner.Describe(fmt.Sprintf("Transcribing with %s...", app.transcriber.Name()))
	spinner.Advance()

	// the local backend never sees the operator's key
	transcriberKey := ""
	if app.transcriber.NeedsCredential() {
		transcriberKey = apiKey
	}
	transcript, err := app.transcriber.Transcribe(ctx, waveform, transcriberKey)
	if err != nil {
		return "", nil, &StageError{Stage: StageTranscribe, Err: err}
	}

	return transcript, metadata, nil
}

// withTimeout derives a context bounded by d; d <= 0 leaves ctx unbounded
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
