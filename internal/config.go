package internal

import (
	"context"
	"embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/lrstanley/go-ytdlp"
	"github.com/spf13/viper"
)

// CommandRunner executes external commands
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// DefaultCommandRunner implements CommandRunner
type DefaultCommandRunner struct{}

func (r *DefaultCommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// Transcriber backends
const (
	TranscriberOpenAI = "openai"
	TranscriberLocal  = "local"
)

// Config holds application settings
type Config struct {
	// User configurable settings
	QuizModel         string
	Transcriber       string
	WhisperModel      string
	WhisperURL        string
	FetchTimeout      time.Duration
	ConvertTimeout    time.Duration
	TranscribeTimeout time.Duration
	QuizTimeout       time.Duration
	ListenAddr        string
	Prompt            string
	Verbose           bool
	Quiet             bool
	LogEnabled        bool
	OpenAIAPIKey      string

	// Fixed XDG paths (not configurable)
	ConfigDir string
	CacheDir  string
	TempDir   string
}

//go:embed config.toml prompt.txt templates
var defaultFS embed.FS

// WhisperLimit is the maximum file size accepted by OpenAI's Whisper API (25 MiB)
const WhisperLimit int64 = 25 << 20

// ensureDefaultFile checks if a file exists in the specified directory
// and creates it from the embedded default if it doesn't exist
func ensureDefaultFile(configDir, embedFilename, description string) error {
	filePath := filepath.Join(configDir, embedFilename)

	if FileExists(filePath) {
		return nil
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaultContent, err := defaultFS.ReadFile(embedFilename)
	if err != nil {
		return fmt.Errorf("reading embedded default %s: %w", description, err)
	}

	if err := os.WriteFile(filePath, defaultContent, 0644); err != nil {
		return fmt.Errorf("writing default %s: %w", description, err)
	}

	fmt.Fprintf(os.Stderr, "Created default %s at %s\n", description, filePath)
	return nil
}

// EnsureDefaultConfig writes the embedded config.toml into configDir unless one exists
func EnsureDefaultConfig(configDir string) error {
	return ensureDefaultFile(configDir, "config.toml", "configuration")
}

// EnsureDefaultPrompt writes the embedded prompt.txt into configDir unless one exists
func EnsureDefaultPrompt(configDir string) error {
	return ensureDefaultFile(configDir, "prompt.txt", "prompt template")
}

// DefaultPromptTemplate returns the embedded quiz prompt template
func DefaultPromptTemplate() string {
	content, err := defaultFS.ReadFile("prompt.txt")
	if err != nil {
		// embedded at build time
		panic(err)
	}
	return string(content)
}

// InitConfig initializes Viper and loads configuration
func InitConfig() *Config {
	// Ensure yt-dlp is installed
	ytdlp.MustInstall(context.Background(), nil)

	return LoadConfig(filepath.Join(xdg.ConfigHome, "quizgen"), filepath.Join(xdg.CacheHome, "quizgen"))
}

// LoadConfig reads .env, config.toml and QUIZGEN_* variables on top of the defaults
func LoadConfig(configDir, cacheDir string) *Config {
	// A missing .env file is fine, the environment may already be set
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("quiz_model", "gpt-4o-mini")
	v.SetDefault("transcriber", TranscriberLocal)
	v.SetDefault("whisper_model", "base")
	v.SetDefault("whisper_url", "http://localhost:8000/v1")
	v.SetDefault("fetch_timeout", 10*time.Minute)
	v.SetDefault("convert_timeout", 5*time.Minute)
	v.SetDefault("transcribe_timeout", 20*time.Minute)
	v.SetDefault("quiz_timeout", 2*time.Minute)
	v.SetDefault("listen_addr", "127.0.0.1:8080")
	v.SetDefault("prompt", "") // if empty will use default prompt template
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
	v.SetDefault("log_enabled", true)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	v.SetEnvPrefix("QUIZGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// OpenAI API key is also read from the conventional variable
	_ = v.BindEnv("openai_api_key", "QUIZGEN_OPENAI_API_KEY", "OPENAI_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: Error reading config file: %v\n", err)
		}
	}

	config := &Config{
		QuizModel:         v.GetString("quiz_model"),
		Transcriber:       v.GetString("transcriber"),
		WhisperModel:      v.GetString("whisper_model"),
		WhisperURL:        v.GetString("whisper_url"),
		FetchTimeout:      v.GetDuration("fetch_timeout"),
		ConvertTimeout:    v.GetDuration("convert_timeout"),
		TranscribeTimeout: v.GetDuration("transcribe_timeout"),
		QuizTimeout:       v.GetDuration("quiz_timeout"),
		ListenAddr:        v.GetString("listen_addr"),
		Prompt:            v.GetString("prompt"),
		Verbose:           v.GetBool("verbose"),
		Quiet:             v.GetBool("quiet"),
		LogEnabled:        v.GetBool("log_enabled"),
		OpenAIAPIKey:      v.GetString("openai_api_key"),

		ConfigDir: configDir,
		CacheDir:  cacheDir,
		TempDir:   filepath.Join(cacheDir, "runs"),
	}

	if config.Verbose {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	return config
}

// ValidateTranscriber checks the configured speech-to-text backend
func ValidateTranscriber(config *Config) error {
	switch config.Transcriber {
	case TranscriberOpenAI:
		return nil
	case TranscriberLocal:
		if config.WhisperURL == "" {
			return fmt.Errorf("whisper_url is required for the local transcriber")
		}
		if config.WhisperModel == "" {
			return fmt.Errorf("whisper_model is required for the local transcriber")
		}
		return nil
	default:
		return fmt.Errorf("unsupported transcriber: %q (supported: %s, %s)", config.Transcriber, TranscriberOpenAI, TranscriberLocal)
	}
}
