package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWaveform(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), WaveformName)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
	return path
}

func TestNewTranscriber(t *testing.T) {
	audio := NewAudio(&fakeRunner{}, false)

	tr, err := NewTranscriber(&Config{Transcriber: TranscriberOpenAI}, audio)
	require.NoError(t, err)
	assert.Equal(t, "openai/whisper-1", tr.Name())
	assert.True(t, tr.NeedsCredential())

	tr, err = NewTranscriber(&Config{Transcriber: TranscriberLocal, WhisperURL: "http://localhost:8000/v1", WhisperModel: "small"}, audio)
	require.NoError(t, err)
	assert.Equal(t, "local-whisper/small", tr.Name())
	assert.False(t, tr.NeedsCredential())

	_, err = NewTranscriber(&Config{Transcriber: "carrier-pigeon"}, audio)
	assert.Error(t, err)
}

func TestWhisperTranscriberSingleFile(t *testing.T) {
	client := &fakeClient{transcriptions: []string{"  Hello from the video.  \n"}}
	wt := &WhisperTranscriber{
		audio:       NewAudio(&fakeRunner{}, false),
		newClient:   client.factory(),
		model:       "whisper-1",
		sizeLimit:   WhisperLimit,
		useOperator: true,
	}

	text, err := wt.Transcribe(context.Background(), writeWaveform(t, 1000), "sk-operator")
	require.NoError(t, err)
	assert.Equal(t, "Hello from the video.", text)
	assert.Equal(t, []string{"sk-operator"}, client.keys)
	assert.Equal(t, []string{WaveformName}, client.uploads)
}

func TestWhisperTranscriberChunks(t *testing.T) {
	runner := &fakeRunner{duration: "90"}
	client := &fakeClient{transcriptions: []string{"part one", "part two", "part three"}}
	wt := &WhisperTranscriber{
		audio:       NewAudio(runner, false),
		newClient:   client.factory(),
		model:       "whisper-1",
		sizeLimit:   100,
		useOperator: true,
	}

	waveform := writeWaveform(t, 250)
	text, err := wt.Transcribe(context.Background(), waveform, "sk-operator")
	require.NoError(t, err)

	assert.Equal(t, "part one\npart two\npart three", text)
	assert.Equal(t, []string{"audio_chunk_0.wav", "audio_chunk_1.wav", "audio_chunk_2.wav"}, client.uploads)

	// chunks are removed, the waveform itself is left to the run
	entries, err := os.ReadDir(filepath.Dir(waveform))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, WaveformName, entries[0].Name())
}

func TestWhisperTranscriberLocalIgnoresOperatorKey(t *testing.T) {
	client := &fakeClient{transcriptions: []string{"local text"}}
	wt := &WhisperTranscriber{
		audio:     NewAudio(&fakeRunner{}, false),
		newClient: client.factory(),
		model:     "base",
	}

	text, err := wt.Transcribe(context.Background(), writeWaveform(t, 1000), "")
	require.NoError(t, err)
	assert.Equal(t, "local text", text)
	assert.Equal(t, []string{localAPIKey}, client.keys)
}

func TestWhisperTranscriberErrors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		wt := &WhisperTranscriber{newClient: (&fakeClient{}).factory(), useOperator: true}
		_, err := wt.Transcribe(context.Background(), writeWaveform(t, 10), "")
		assert.ErrorIs(t, err, ErrMissingCredential)
	})

	t.Run("empty transcript", func(t *testing.T) {
		client := &fakeClient{transcriptions: []string{"   "}}
		wt := &WhisperTranscriber{newClient: client.factory(), useOperator: true}
		_, err := wt.Transcribe(context.Background(), writeWaveform(t, 10), "sk-operator")
		assert.ErrorIs(t, err, ErrEmptyTranscript)
	})

	t.Run("api failure", func(t *testing.T) {
		cause := errors.New("429 rate limited")
		client := &fakeClient{transcribeErr: cause}
		wt := &WhisperTranscriber{newClient: client.factory(), useOperator: true}
		_, err := wt.Transcribe(context.Background(), writeWaveform(t, 10), "sk-operator")
		assert.ErrorIs(t, err, cause)
		assert.ErrorContains(t, err, "transcribing chunk 1")
	})
}
