package internal

import (
	"errors"
	"fmt"
	"strings"
)

// Question count bounds accepted by every input surface
const (
	MinQuestions     = 3
	MaxQuestions     = 30
	DefaultQuestions = 10
)

var (
	ErrMissingURL        = errors.New("video URL is required")
	ErrMissingCredential = errors.New("OpenAI API key is required")
	ErrQuestionCount     = fmt.Errorf("question count must be between %d and %d", MinQuestions, MaxQuestions)
	ErrEmptyTranscript   = errors.New("transcript is empty")
	ErrNoChoices         = errors.New("no response choices from OpenAI")
)

// SessionInputs holds the values collected from the operator for a single run
type SessionInputs struct {
	URL           string
	Credential    string
	QuestionCount int
}

// Ready reports whether both text fields are filled in.
// A run is only triggered when Ready is true.
func (in SessionInputs) Ready() bool {
	return strings.TrimSpace(in.URL) != "" && strings.TrimSpace(in.Credential) != ""
}

// Validate checks presence of the text fields and the question count bound
func (in SessionInputs) Validate() error {
	if strings.TrimSpace(in.URL) == "" {
		return ErrMissingURL
	}
	if strings.TrimSpace(in.Credential) == "" {
		return ErrMissingCredential
	}
	if in.QuestionCount < MinQuestions || in.QuestionCount > MaxQuestions {
		return fmt.Errorf("%w (got %d)", ErrQuestionCount, in.QuestionCount)
	}
	return nil
}

// String hides the credential so inputs can be logged safely
func (in SessionInputs) String() string {
	return fmt.Sprintf("SessionInputs{url=%q, questions=%d, credential=%s}", in.URL, in.QuestionCount, maskSecret(in.Credential))
}

// Stage identifies a step of the quiz pipeline
type Stage int

const (
	StageFetch Stage = iota
	StageTranscribe
	StagePrompt
	StageQuiz
)

// String returns a human-readable representation of the stage
func (s Stage) String() string {
	switch s {
	case StageFetch:
		return "fetch"
	case StageTranscribe:
		return "transcribe"
	case StagePrompt:
		return "prompt"
	case StageQuiz:
		return "quiz"
	default:
		return "unknown"
	}
}

// StageError records which stage aborted a run
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage extracts the stage from an error returned by a run
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return 0, false
}

// RunState is the lifecycle of one interaction
type RunState int

const (
	StateIdle RunState = iota
	StateRunning
	StateDone
	StateFailed
)

// String returns a human-readable representation of the run state
func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is what a finished run hands to the presenter
type Result struct {
	RunID      string
	Title      string
	Transcript string
	Quiz       string
}

// Preview returns the truncated transcript shown to the operator
func (r *Result) Preview() string {
	return TranscriptPreview(r.Transcript)
}

// maskSecret keeps the last four characters of a secret
func maskSecret(s string) string {
	if s == "" {
		return `""`
	}
	if len(s) <= 8 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
