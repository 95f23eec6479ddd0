package internal

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
)

// localAPIKey is sent to local whisper servers, which ignore authentication
const localAPIKey = "local"

// Transcriber converts a waveform file into plain text
type Transcriber interface {
	Transcribe(ctx context.Context, waveform, apiKey string) (string, error)
	Name() string
	// NeedsCredential reports whether Transcribe sends the operator's key
	NeedsCredential() bool
}

// WhisperTranscriber talks to any Whisper endpoint speaking the OpenAI
// transcription API: the hosted whisper-1 or a local server
type WhisperTranscriber struct {
	name        string
	audio       *Audio
	newClient   ClientFactory
	model       string
	sizeLimit   int64
	useOperator bool
	timeout     time.Duration
	verbose     bool
}

// NewTranscriber picks the backend configured in config
func NewTranscriber(config *Config, audio *Audio) (Transcriber, error) {
	if err := ValidateTranscriber(config); err != nil {
		return nil, err
	}

	switch config.Transcriber {
	case TranscriberLocal:
		return &WhisperTranscriber{
			name:      "local-whisper/" + config.WhisperModel,
			audio:     audio,
			newClient: OpenAIClientFactory(config.WhisperURL),
			model:     config.WhisperModel,
			timeout:   config.TranscribeTimeout,
			verbose:   config.Verbose,
		}, nil
	default:
		return &WhisperTranscriber{
			name:        "openai/" + string(openai.AudioModelWhisper1),
			audio:       audio,
			newClient:   OpenAIClientFactory(""),
			model:       string(openai.AudioModelWhisper1),
			sizeLimit:   WhisperLimit,
			useOperator: true,
			timeout:     config.TranscribeTimeout,
			verbose:     config.Verbose,
		}, nil
	}
}

// Name identifies the backend and model
func (wt *WhisperTranscriber) Name() string {
	return wt.name
}

// NeedsCredential is true only for the hosted backend
func (wt *WhisperTranscriber) NeedsCredential() bool {
	return wt.useOperator
}

// Transcribe uploads the waveform, split into chunks when it exceeds the
// backend's size limit, and joins the chunk texts in order
func (wt *WhisperTranscriber) Transcribe(ctx context.Context, waveform, apiKey string) (string, error) {
	key := localAPIKey
	if wt.useOperator {
		if err := ValidateOpenAIAPIKey(apiKey); err != nil {
			return "", err
		}
		key = apiKey
	}

	if wt.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wt.timeout)
		defer cancel()
	}

	info, err := os.Stat(waveform)
	if err != nil {
		return "", fmt.Errorf("getting audio file info: %w", err)
	}

	chunks := []string{waveform}
	if n := ChunksNeeded(info.Size(), wt.sizeLimit); n > 1 {
		if wt.verbose {
			fmt.Printf("Waveform is %d bytes, splitting into %d chunks\n", info.Size(), n)
		}
		chunks, err = wt.audio.Split(ctx, waveform, n)
		if err != nil {
			return "", fmt.Errorf("splitting audio: %w", err)
		}
		defer cleanupFiles(chunks...)
	}

	client := wt.newClient(key)
	transcript, err := wt.processAudioChunks(ctx, client, chunks)
	if err != nil {
		return "", fmt.Errorf("transcribing audio: %w", err)
	}

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return "", ErrEmptyTranscript
	}
	return transcript, nil
}

// processAudioChunks transcribes audio chunks sequentially
func (wt *WhisperTranscriber) processAudioChunks(ctx context.Context, client OpenAIClientInterface, chunks []string) (string, error) {
	numChunks := len(chunks)

	var sb strings.Builder
	for i, chunkPath := range chunks {
		file, err := os.Open(chunkPath)
		if err != nil {
			return "", fmt.Errorf("opening chunk %s: %w", chunkPath, err)
		}

		text, err := client.CreateTranscription(ctx, file, wt.model)
		if closeErr := file.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close file %s: %v\n", chunkPath, closeErr)
		}
		if err != nil {
			return "", fmt.Errorf("transcribing chunk %d: %w", i+1, err)
		}

		sb.WriteString(strings.TrimSpace(text))
		if i < numChunks-1 {
			sb.WriteString("\n")
		}

		if wt.verbose {
			fmt.Printf("Transcribed chunk %d/%d\n", i+1, numChunks)
		}
	}

	return sb.String(), nil
}
