package internal

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// Completion request settings for quiz generation
const (
	QuizSystemPrompt = "You are an expert quiz maker."
	QuizTemperature  = 0.7
	QuizMaxTokens    = 1500
)

// ChatRequest describes a single chat completion exchange
type ChatRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int64
}

// OpenAIClientInterface defines the interface for OpenAI client operations
type OpenAIClientInterface interface {
	CreateTranscription(ctx context.Context, file *os.File, model string) (string, error)
	CreateChatCompletion(ctx context.Context, req ChatRequest) (string, error)
}

// ClientFactory builds a client for one credential. Clients are created per
// run so an operator's key never outlives the run that supplied it.
type ClientFactory func(apiKey string) OpenAIClientInterface

// OpenAIClient wraps the official OpenAI Go SDK
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a new OpenAI client. An empty baseURL uses the
// public API; SDK retries are disabled so a failure aborts the run at once.
func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIClient{client: &client}
}

// OpenAIClientFactory returns a ClientFactory bound to baseURL
func OpenAIClientFactory(baseURL string) ClientFactory {
	return func(apiKey string) OpenAIClientInterface {
		return NewOpenAIClient(apiKey, baseURL)
	}
}

// CreateTranscription implements the transcription method
func (c *OpenAIClient) CreateTranscription(ctx context.Context, file *os.File, model string) (string, error) {
	resp, err := c.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  file,
		Model: openai.AudioModel(model),
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// CreateChatCompletion implements the chat completion method
func (c *OpenAIClient) CreateChatCompletion(ctx context.Context, req ChatRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.Prompt),
		},
	}

	// reasoning models reject temperature and max_tokens
	if isReasoningModel(req.Model) {
		params.MaxCompletionTokens = openai.Int(req.MaxTokens)
	} else {
		params.Temperature = openai.Float(req.Temperature)
		params.MaxTokens = openai.Int(req.MaxTokens)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

func isReasoningModel(model string) bool {
	return strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4")
}

// AI handles the quiz completion request
type AI struct {
	newClient ClientFactory
	model     string
	timeout   time.Duration
	verbose   bool
}

// NewAI creates a new AI processor
func NewAI(newClient ClientFactory, model string, timeout time.Duration, verbose bool) *AI {
	return &AI{
		newClient: newClient,
		model:     model,
		timeout:   timeout,
		verbose:   verbose,
	}
}

// Quiz sends the prepared prompt with the operator's key and returns the
// generated quiz text verbatim
func (ai *AI) Quiz(ctx context.Context, apiKey, prompt string) (string, error) {
	if err := ValidateOpenAIAPIKey(apiKey); err != nil {
		return "", err
	}

	if ai.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ai.timeout)
		defer cancel()
	}

	if ai.verbose {
		fmt.Printf("Requesting quiz from %s (%d prompt bytes)\n", ai.model, len(prompt))
	}

	content, err := ai.newClient(apiKey).CreateChatCompletion(ctx, ChatRequest{
		Model:       ai.model,
		System:      QuizSystemPrompt,
		Prompt:      prompt,
		Temperature: QuizTemperature,
		MaxTokens:   QuizMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("creating chat completion: %w", err)
	}

	return content, nil
}
