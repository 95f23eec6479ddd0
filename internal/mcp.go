package internal

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// QuizService is the part of App exposed as MCP tools
type QuizService interface {
	Runner
	Transcript(ctx context.Context, videoURL, apiKey string) (string, error)
}

// MCPEndpoint is the path of the streamable HTTP transport
const MCPEndpoint = "/mcp"

// MCPServer wraps the MCP server and application dependencies
type MCPServer struct {
	app QuizService
	// defaultKey is the operator's configured key, used when a tool call
	// carries no api_key argument
	defaultKey string
	mcpServer  *server.MCPServer
}

// NewMCPServer creates a new MCP server instance
func NewMCPServer(app QuizService, defaultKey, version string) *MCPServer {
	mcpServer := server.NewMCPServer(
		"quizgen-server",
		version,
		server.WithToolCapabilities(true),
	)

	s := &MCPServer{
		app:        app,
		defaultKey: defaultKey,
		mcpServer:  mcpServer,
	}

	s.registerTools()

	return s
}

// registerTools registers all available MCP tools
func (s *MCPServer) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("transcribe_video",
		mcp.WithDescription("Download a video's audio track and transcribe it with Whisper. Returns plain text without timestamps. Transcription with the hosted Whisper model costs money."),
		mcp.WithString("url",
			mcp.Description("Video URL (YouTube or any site supported by yt-dlp)"),
			mcp.Required(),
		),
		mcp.WithString("api_key",
			mcp.Description("OpenAI API key for this call (defaults to the server's configured key)"),
		),
	), s.handleTranscribe)

	s.mcpServer.AddTool(mcp.NewTool("generate_quiz",
		mcp.WithDescription("Transcribe a video and write a quiz with answers about it using an OpenAI model. Returns the quiz text followed by a transcript preview."),
		mcp.WithString("url",
			mcp.Description("Video URL (YouTube or any site supported by yt-dlp)"),
			mcp.Required(),
		),
		mcp.WithNumber("num_questions",
			mcp.Description(fmt.Sprintf("Number of quiz questions (%d-%d)", MinQuestions, MaxQuestions)),
			mcp.Min(MinQuestions),
			mcp.Max(MaxQuestions),
			mcp.DefaultNumber(DefaultQuestions),
		),
		mcp.WithString("api_key",
			mcp.Description("OpenAI API key for this call (defaults to the server's configured key)"),
		),
	), s.handleGenerateQuiz)
}

// handleTranscribe implements the transcribe_video tool
func (s *MCPServer) handleTranscribe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}

	LogInfo("transcribe_video %s", url)

	transcript, err := s.app.Transcript(ctx, url, s.credential(request))
	if err != nil {
		LogError("transcribe_video %s: %v", url, err)
		return mcp.NewToolResultErrorFromErr("failed to transcribe video", err), nil
	}

	return mcp.NewToolResultText(transcript), nil
}

// handleGenerateQuiz implements the generate_quiz tool
func (s *MCPServer) handleGenerateQuiz(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}

	inputs := SessionInputs{
		URL:           url,
		Credential:    s.credential(request),
		QuestionCount: request.GetInt("num_questions", DefaultQuestions),
	}
	if err := inputs.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	LogInfo("generate_quiz %s", inputs)

	result, err := s.app.Run(ctx, inputs)
	if err != nil {
		LogError("generate_quiz %s: %v", url, err)
		return mcp.NewToolResultErrorFromErr("failed to generate quiz", err), nil
	}

	return mcp.NewToolResultText(FormatResult(result)), nil
}

// FormatResult lays out a finished run as plain text
func FormatResult(result *Result) string {
	var sb strings.Builder
	if result.Title != "" {
		sb.WriteString(fmt.Sprintf("Quiz: %s\n\n", result.Title))
	}
	sb.WriteString(result.Quiz)
	sb.WriteString("\n\n---\n\nTranscript preview:\n")
	sb.WriteString(result.Preview())
	return sb.String()
}

// credential resolves the key for one tool call
func (s *MCPServer) credential(request mcp.CallToolRequest) string {
	if key := strings.TrimSpace(request.GetString("api_key", "")); key != "" {
		return key
	}
	return s.defaultKey
}

// Start serves MCP on stdio or, for transport "http", on the given port until
// ctx is cancelled
func (s *MCPServer) Start(ctx context.Context, transport string, port int) error {
	if transport == "http" {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			return fmt.Errorf("listening on port %d: %w", port, err)
		}
		return s.serveHTTP(ctx, ln)
	}

	return server.NewStdioServer(s.mcpServer).Listen(ctx, os.Stdin, os.Stdout)
}

// serveHTTP mounts the streamable HTTP transport at MCPEndpoint on ln
func (s *MCPServer) serveHTTP(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle(MCPEndpoint, server.NewStreamableHTTPServer(s.mcpServer))
	return serveUntilDone(ctx, mux, ln)
}
