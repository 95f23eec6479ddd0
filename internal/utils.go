package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// FileExists checks if a file exists
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return !os.IsNotExist(err)
}

// EnsureDirs creates directories if needed
func EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if !FileExists(dir) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
	}
	return nil
}

// NewScratchDir creates a fresh directory for one run under root. The caller
// owns it and must remove it with os.RemoveAll.
func NewScratchDir(root, runID string) (string, error) {
	if err := EnsureDirs(root); err != nil {
		return "", fmt.Errorf("creating scratch root: %w", err)
	}
	dir, err := os.MkdirTemp(root, "run-"+runID+"-")
	if err != nil {
		return "", fmt.Errorf("creating scratch directory: %w", err)
	}
	return dir, nil
}

// removeScratchDir deletes a run's scratch directory and everything in it
func removeScratchDir(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to remove scratch directory %s: %v\n", dir, err)
	}
}

// StaleScratchAge is how old a scratch dir must be before start-up prunes it.
// It is far longer than the sum of the stage timeouts, so no live run of another
// process is touched.
const StaleScratchAge = 24 * time.Hour

// PruneStaleScratch removes run directories under tempDir last modified before
// now-maxAge, left behind by a process that was killed mid-run
func PruneStaleScratch(tempDir string, maxAge time.Duration, now time.Time) error {
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading temp directory: %w", err)
	}

	cutoff := now.Add(-maxAge)
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "run-") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(tempDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to remove stale scratch directory %s: %v\n", path, err)
		}
	}

	return nil
}

// cleanupFiles removes temporary files
func cleanupFiles(files ...string) {
	for _, file := range files {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to remove file %s: %v\n", file, err)
		}
	}
}

// SupportedModels lists the chat models accepted for quiz generation
var SupportedModels = []string{"gpt-4o", "gpt-4o-mini", "o4-mini", "gpt-4.1-nano"}

// ValidateModel checks if the model is supported
func ValidateModel(model string) error {
	if slices.Contains(SupportedModels, model) {
		return nil
	}
	return fmt.Errorf("unsupported model: %s (supported: %s)", model, strings.Join(SupportedModels, ", "))
}

// ValidateOpenAIAPIKey checks if the OpenAI API key is set and returns a standardized error if not
func ValidateOpenAIAPIKey(apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return fmt.Errorf("%w - pass --api-key, set it in config.toml or the OPENAI_API_KEY environment variable", ErrMissingCredential)
	}
	return nil
}
