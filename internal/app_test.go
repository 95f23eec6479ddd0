package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	app         *App
	config      *Config
	fetcher     *fakeFetcher
	runner      *fakeRunner
	transcriber *fakeTranscriber
	client      *fakeClient
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	ta := &testApp{
		config:      testConfig(t),
		fetcher:     &fakeFetcher{metadata: &VideoMetadata{Title: "Intro to Go"}},
		runner:      &fakeRunner{},
		transcriber: &fakeTranscriber{text: "Go is a statically typed language."},
		client:      &fakeClient{chatResponse: "1. Is Go statically typed?\nAnswer: yes"},
	}

	app, err := NewApp(ta.config,
		WithFetcher(ta.fetcher),
		WithAudio(NewAudio(ta.runner, false)),
		WithTranscriber(ta.transcriber),
		WithAI(NewAI(ta.client.factory(), ta.config.QuizModel, 0, false)),
		WithUI(NewUIManager(false, true)),
	)
	require.NoError(t, err)
	ta.app = app
	return ta
}

func validInputs() SessionInputs {
	return SessionInputs{URL: "https://www.youtube.com/watch?v=abc", Credential: "sk-operator", QuestionCount: 5}
}

func assertScratchRemoved(t *testing.T, ta *testApp) {
	t.Helper()
	for _, dir := range ta.fetcher.dirs {
		assert.NoDirExists(t, dir)
	}
	entries, err := os.ReadDir(ta.config.TempDir)
	if err == nil {
		assert.Empty(t, entries)
	}
}

func TestRun(t *testing.T) {
	ta := newTestApp(t)

	result, err := ta.app.Run(context.Background(), validInputs())
	require.NoError(t, err)

	assert.Equal(t, "Go is a statically typed language.", result.Transcript)
	assert.Equal(t, "1. Is Go statically typed?\nAnswer: yes", result.Quiz)
	assert.Equal(t, "Intro to Go", result.Title)
	assert.NotEmpty(t, result.RunID)

	// the key goes out once, with the quiz request
	assert.Equal(t, []string{""}, ta.transcriber.keys)
	assert.Equal(t, []string{"sk-operator"}, ta.client.keys)

	// one download resolves the URL and yields the title
	require.Len(t, ta.fetcher.dirs, 1)

	// the waveform handed to the transcriber lives in the run's scratch dir
	require.Len(t, ta.transcriber.waveforms, 1)
	assert.Equal(t, filepath.Join(ta.fetcher.dirs[0], WaveformName), ta.transcriber.waveforms[0])

	require.Len(t, ta.client.chatRequests, 1)
	prompt := ta.client.chatRequests[0].Prompt
	assert.Contains(t, prompt, "exactly 5 quiz questions")
	assert.Contains(t, prompt, "Go is a statically typed language.")
	assert.Contains(t, prompt, "Intro to Go")

	assertScratchRemoved(t, ta)
}

func TestRunDefaultConfigKeepsKeyFromTranscriber(t *testing.T) {
	clearConfigEnv(t)
	config := LoadConfig(t.TempDir(), t.TempDir())
	require.Equal(t, TranscriberLocal, config.Transcriber)

	transcriber, err := NewTranscriber(config, NewAudio(&fakeRunner{}, false))
	require.NoError(t, err)
	assert.False(t, transcriber.NeedsCredential())
	assert.Equal(t, "local-whisper/base", transcriber.Name())

	ta := newTestApp(t)
	ta.transcriber.needsKey = transcriber.NeedsCredential()

	_, err = ta.app.Run(context.Background(), validInputs())
	require.NoError(t, err)
	assert.NotContains(t, ta.transcriber.keys, "sk-operator")
	assert.Equal(t, []string{"sk-operator"}, ta.client.keys)
}

func TestRunHostedTranscriberGetsKey(t *testing.T) {
	ta := newTestApp(t)
	ta.transcriber.needsKey = true

	_, err := ta.app.Run(context.Background(), validInputs())
	require.NoError(t, err)
	assert.Equal(t, []string{"sk-operator"}, ta.transcriber.keys)
}

func TestRunSeparateScratchDirs(t *testing.T) {
	ta := newTestApp(t)

	_, err := ta.app.Run(context.Background(), validInputs())
	require.NoError(t, err)
	_, err = ta.app.Run(context.Background(), validInputs())
	require.NoError(t, err)

	require.Len(t, ta.fetcher.dirs, 2)
	assert.NotEqual(t, ta.fetcher.dirs[0], ta.fetcher.dirs[1])
	assertScratchRemoved(t, ta)
}

func TestRunInvalidInputs(t *testing.T) {
	ta := newTestApp(t)

	inputs := validInputs()
	inputs.QuestionCount = 31

	_, err := ta.app.Run(context.Background(), inputs)
	assert.ErrorIs(t, err, ErrQuestionCount)
	assert.Empty(t, ta.fetcher.dirs, "nothing should be fetched")
}

func TestRunMetadataIsOptional(t *testing.T) {
	ta := newTestApp(t)
	ta.fetcher.metadata = nil

	result, err := ta.app.Run(context.Background(), validInputs())
	require.NoError(t, err)
	assert.Empty(t, result.Title)
	assert.NotContains(t, ta.client.chatRequests[0].Prompt, "of the video")
}

func TestRunStageFailures(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(ta *testApp)
		wantStage Stage
		wantQuiz  bool
	}{
		{
			name:      "fetch",
			setup:     func(ta *testApp) { ta.fetcher.audioErr = errors.New("video unavailable") },
			wantStage: StageFetch,
		},
		{
			name:      "convert",
			setup:     func(ta *testApp) { ta.runner.err = errors.New("exit status 1") },
			wantStage: StageTranscribe,
		},
		{
			name:      "transcribe",
			setup:     func(ta *testApp) { ta.transcriber.err = errors.New("401 unauthorized") },
			wantStage: StageTranscribe,
		},
		{
			name:      "empty transcript",
			setup:     func(ta *testApp) { ta.transcriber.err = ErrEmptyTranscript },
			wantStage: StageTranscribe,
		},
		{
			name:      "quiz",
			setup:     func(ta *testApp) { ta.client.chatErr = errors.New("500 server error") },
			wantStage: StageQuiz,
			wantQuiz:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp(t)
			tt.setup(ta)

			result, err := ta.app.Run(context.Background(), validInputs())
			require.Error(t, err)
			assert.Nil(t, result, "a failed run returns nothing from earlier stages")

			stage, ok := FailedStage(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantStage, stage)

			if tt.wantQuiz {
				assert.Len(t, ta.client.chatRequests, 1)
			} else {
				assert.Empty(t, ta.client.chatRequests, "no quiz request after an earlier failure")
			}
			assertScratchRemoved(t, ta)
		})
	}
}

func TestRunCancelled(t *testing.T) {
	ta := newTestApp(t)
	ta.fetcher.audioErr = context.Canceled

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ta.app.Run(ctx, validInputs())
	assert.ErrorIs(t, err, context.Canceled)
	assertScratchRemoved(t, ta)
}

func TestRunCancelledLeavesOtherRunsAlone(t *testing.T) {
	ta := newTestApp(t)
	ta.fetcher.audioErr = context.Canceled

	other, err := NewScratchDir(ta.config.TempDir, "other")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ta.app.Run(ctx, validInputs())
	require.ErrorIs(t, err, context.Canceled)

	require.Len(t, ta.fetcher.dirs, 1)
	assert.NoDirExists(t, ta.fetcher.dirs[0])
	assert.DirExists(t, other)
}

func TestTranscript(t *testing.T) {
	ta := newTestApp(t)

	text, err := ta.app.Transcript(context.Background(), "https://youtu.be/abc", "sk-operator")
	require.NoError(t, err)
	assert.Equal(t, "Go is a statically typed language.", text)
	assert.Empty(t, ta.client.chatRequests)
	assertScratchRemoved(t, ta)
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := withTimeout(context.Background(), 0)
	defer cancel()
	_, ok := ctx.Deadline()
	assert.False(t, ok)

	ctx2, cancel2 := withTimeout(context.Background(), time.Second)
	defer cancel2()
	_, ok = ctx2.Deadline()
	assert.True(t, ok)
}
