package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rtzll/quizgen/internal"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server exposing quizgen as tools",
	Long: `Run a Model Context Protocol (MCP) server that exposes quizgen as tools.

The MCP server provides two tools:
- transcribe_video: Download a video's audio and transcribe it with Whisper
- generate_quiz: Transcribe a video and write a quiz about it

Each tool takes an optional api_key argument. Calls without one use the key
from --api-key, the config file or OPENAI_API_KEY.

Transport options:
- stdio (default): Standard MCP transport via stdin/stdout
- http: HTTP transport on specified port (use --port to configure)`,
	Example: `  # Run MCP server with stdio transport
  quizgen mcp

  # Run MCP server with HTTP transport on port 8081
  quizgen mcp --transport=http --port=8081`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// stdio transport owns stdout
		config.Verbose = false
		config.Quiet = true
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		if transport != "stdio" && transport != "http" {
			return fmt.Errorf("unsupported transport %q (use stdio or http)", transport)
		}

		apiKey := internal.CredentialFromFlags(cmd, config)

		internal.InitLogging(config)
		if apiKey == "" {
			internal.LogInfo("no default API key configured, tool calls must pass api_key")
		}

		app, err := internal.NewApp(config)
		if err != nil {
			return err
		}

		mcpServer := internal.NewMCPServer(app, apiKey, version)

		if transport == "http" {
			fmt.Fprintf(os.Stderr, "Starting quizgen MCP server on HTTP port %d...\n", port)
		}
		internal.LogInfo("mcp server starting (transport=%s)", transport)

		return mcpServer.Start(cmd.Context(), transport, port)
	},
}

func init() {
	internal.AddCredentialFlag(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol (stdio or http)")
	mcpCmd.Flags().Int("port", 8081, "Port for HTTP transport (only used with --transport=http)")
	rootCmd.AddCommand(mcpCmd)
}
