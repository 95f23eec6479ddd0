package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtzll/quizgen/internal"
)

// serveCmd runs the browser form
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the quiz generator form in the browser",
	Long: `Serve a small web page where an operator pastes a video URL, their OpenAI
API key and the number of questions, and gets back a transcript preview,
a transcript download and the generated quiz.

The API key is entered per run in the form and never stored by the server.
A JSON endpoint is available at POST /api/quiz.`,
	Example: `  # Serve on the configured address (default 127.0.0.1:8080)
  quizgen serve

  # Serve on another address
  quizgen serve --addr :9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			config.ListenAddr = addr
		}
		if err := internal.ValidateModelFlag(cmd, config); err != nil {
			return err
		}

		internal.InitLogging(config)

		app, err := internal.NewApp(config)
		if err != nil {
			return err
		}
		if err := internal.HandlePromptFlag(cmd, app); err != nil {
			return err
		}

		srv, err := internal.NewServer(app)
		if err != nil {
			return err
		}

		if !config.Quiet {
			fmt.Printf("Serving quiz generator on http://%s (transcriber: %s)\n", config.ListenAddr, app.TranscriberName())
		}
		return srv.ListenAndServe(cmd.Context(), config.ListenAddr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config listen_addr)")
	serveCmd.Flags().StringP("model", "m", "", "OpenAI model to use for the quiz")
	serveCmd.Flags().StringP("prompt", "p", "", "Custom prompt template (string or file path)")
	rootCmd.AddCommand(serveCmd)
}
