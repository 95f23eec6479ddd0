package internal

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionInputsValidate(t *testing.T) {
	tests := []struct {
		name    string
		inputs  SessionInputs
		wantErr error
	}{
		{
			name:   "valid",
			inputs: SessionInputs{URL: "https://youtu.be/x", Credential: "sk-test", QuestionCount: 10},
		},
		{
			name:   "lower bound",
			inputs: SessionInputs{URL: "https://youtu.be/x", Credential: "sk-test", QuestionCount: MinQuestions},
		},
		{
			name:   "upper bound",
			inputs: SessionInputs{URL: "https://youtu.be/x", Credential: "sk-test", QuestionCount: MaxQuestions},
		},
		{
			name:    "missing url",
			inputs:  SessionInputs{Credential: "sk-test", QuestionCount: 10},
			wantErr: ErrMissingURL,
		},
		{
			name:    "blank url",
			inputs:  SessionInputs{URL: "   ", Credential: "sk-test", QuestionCount: 10},
			wantErr: ErrMissingURL,
		},
		{
			name:    "missing credential",
			inputs:  SessionInputs{URL: "https://youtu.be/x", QuestionCount: 10},
			wantErr: ErrMissingCredential,
		},
		{
			name:    "too few questions",
			inputs:  SessionInputs{URL: "https://youtu.be/x", Credential: "sk-test", QuestionCount: MinQuestions - 1},
			wantErr: ErrQuestionCount,
		},
		{
			name:    "too many questions",
			inputs:  SessionInputs{URL: "https://youtu.be/x", Credential: "sk-test", QuestionCount: MaxQuestions + 1},
			wantErr: ErrQuestionCount,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.inputs.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSessionInputsReady(t *testing.T) {
	assert.True(t, SessionInputs{URL: "u", Credential: "k"}.Ready())
	assert.False(t, SessionInputs{URL: "u"}.Ready())
	assert.False(t, SessionInputs{Credential: "k"}.Ready())
	assert.False(t, SessionInputs{URL: " ", Credential: "\t"}.Ready())
}

func TestSessionInputsStringMasksCredential(t *testing.T) {
	in := SessionInputs{URL: "https://youtu.be/x", Credential: "sk-supersecret-1234", QuestionCount: 5}

	s := in.String()
	assert.NotContains(t, s, "supersecret")
	assert.Contains(t, s, "****1234")
	assert.Contains(t, s, "questions=5")

	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, `""`, maskSecret(""))
}

func TestStageError(t *testing.T) {
	cause := errors.New("network down")
	err := fmt.Errorf("run: %w", &StageError{Stage: StageFetch, Err: cause})

	stage, ok := FailedStage(err)
	require.True(t, ok)
	assert.Equal(t, StageFetch, stage)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "fetch stage failed: network down")

	_, ok = FailedStage(cause)
	assert.False(t, ok)
}

func TestStageAndStateNames(t *testing.T) {
	assert.Equal(t, "fetch", StageFetch.String())
	assert.Equal(t, "transcribe", StageTranscribe.String())
	assert.Equal(t, "prompt", StagePrompt.String())
	assert.Equal(t, "quiz", StageQuiz.String())
	assert.Equal(t, "unknown", Stage(42).String())

	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "failed", StateFailed.String())
}
