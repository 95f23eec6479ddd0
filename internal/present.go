package internal

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// PreviewLimit is the number of characters of the transcript shown before the ellipsis
const PreviewLimit = 1000

// TranscriptFileName is the name offered for the full transcript download
const TranscriptFileName = "transcript.txt"

// TranscriptPreview returns the first PreviewLimit characters of transcript,
// with "..." appended only when something was cut off
func TranscriptPreview(transcript string) string {
	runes := []rune(transcript)
	if len(runes) <= PreviewLimit {
		return transcript
	}
	return string(runes[:PreviewLimit]) + "..."
}

// SaveTranscriptFile writes the transcript byte for byte to path
func SaveTranscriptFile(path, transcript string) error {
	if err := os.WriteFile(path, []byte(transcript), 0644); err != nil {
		return fmt.Errorf("saving transcript: %w", err)
	}
	return nil
}

// IsTerminal reports whether stdout is attached to a terminal
func IsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// getTerminalWidth gets terminal width with fallback
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}

	if width > 10 {
		return width - 4
	}

	return width
}

// RenderMarkdown renders markdown content with glamour
func RenderMarkdown(content string) (string, error) {
	width := getTerminalWidth()
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
		glamour.WithColorProfile(termenv.EnvColorProfile()),
	)
	if err != nil {
		return "", fmt.Errorf("creating terminal renderer: %w", err)
	}

	renderedContent, err := r.Render(content)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}

	return renderedContent, nil
}

// RenderQuiz styles the quiz for a terminal and leaves it untouched when
// output is piped, so redirected output stays the raw model text
func RenderQuiz(quiz string) string {
	if !IsTerminal() {
		return quiz
	}
	rendered, err := RenderMarkdown(quiz)
	if err != nil {
		return quiz
	}
	return rendered
}
