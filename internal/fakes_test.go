package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// fakeRunner stands in for ffmpeg/ffprobe. ffmpeg invocations create their
// output file (the last argument) with outputSize bytes.
type fakeRunner struct {
	mu         sync.Mutex
	calls      [][]string
	duration   string
	outputSize int
	err        error
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	r.mu.Unlock()

	if r.err != nil {
		return []byte("boom"), r.err
	}

	switch name {
	case "ffprobe":
		return []byte(r.duration + "\n"), nil
	case "ffmpeg":
		output := args[len(args)-1]
		size := r.outputSize
		if size == 0 {
			size = 1024
		}
		if err := os.WriteFile(output, make([]byte, size), 0644); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (r *fakeRunner) callsTo(name string) [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out [][]string
	for _, c := range r.calls {
		if c[0] == name {
			out = append(out, c)
		}
	}
	return out
}

// fakeFetcher writes a small audio file into the run directory; every call
// stands for one yt-dlp invocation
type fakeFetcher struct {
	dirs     []string
	metadata *VideoMetadata
	audioErr error
}

func (f *fakeFetcher) Audio(ctx context.Context, videoURL, dir string) (*FetchedAudio, error) {
	f.dirs = append(f.dirs, dir)
	if f.audioErr != nil {
		return nil, f.audioErr
	}
	path := filepath.Join(dir, AudioBaseName+".mp3")
	if err := os.WriteFile(path, []byte("ID3 fake audio"), 0644); err != nil {
		return nil, err
	}
	return &FetchedAudio{Path: path, Metadata: f.metadata}, nil
}

// fakeTranscriber returns a canned transcript and records the key it saw
type fakeTranscriber struct {
	needsKey  bool
	text      string
	err       error
	keys      []string
	waveforms []string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, waveform, apiKey string) (string, error) {
	f.keys = append(f.keys, apiKey)
	f.waveforms = append(f.waveforms, waveform)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeTranscriber) Name() string {
	return "fake"
}

func (f *fakeTranscriber) NeedsCredential() bool {
	return f.needsKey
}

// fakeClient records the requests made through a ClientFactory
type fakeClient struct {
	mu             sync.Mutex
	keys           []string
	chatRequests   []ChatRequest
	uploads        []string
	transcriptions []string
	chatResponse   string
	chatErr        error
	transcribeErr  error
}

func (c *fakeClient) factory() ClientFactory {
	return func(apiKey string) OpenAIClientInterface {
		c.mu.Lock()
		c.keys = append(c.keys, apiKey)
		c.mu.Unlock()
		return c
	}
}

func (c *fakeClient) CreateTranscription(ctx context.Context, file *os.File, model string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.uploads = append(c.uploads, filepath.Base(file.Name()))
	if c.transcribeErr != nil {
		return "", c.transcribeErr
	}
	if len(c.transcriptions) == 0 {
		return "", errors.New("no transcription queued")
	}
	text := c.transcriptions[0]
	c.transcriptions = c.transcriptions[1:]
	return text, nil
}

func (c *fakeClient) CreateChatCompletion(ctx context.Context, req ChatRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.chatRequests = append(c.chatRequests, req)
	if c.chatErr != nil {
		return "", c.chatErr
	}
	return c.chatResponse, nil
}

// testConfig returns settings rooted in a temporary directory
func testConfig(t *testing.T) *Config {
	t.Helper()

	cache := t.TempDir()
	return &Config{
		QuizModel:    "gpt-4o-mini",
		Transcriber:  TranscriberLocal,
		WhisperModel: "base",
		WhisperURL:   "http://localhost:8000/v1",
		Quiet:        true,
		CacheDir:     cache,
		TempDir:      filepath.Join(cache, "runs"),
	}
}

func longText(n int, r rune) string {
	return strings.Repeat(string(r), n)
}
