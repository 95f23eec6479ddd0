package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rtzll/quizgen/internal"
)

// pathsCmd represents the paths command
var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show paths used by the application",
	Example: `  # Show all application paths
  quizgen paths`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Config directory: %s\n", config.ConfigDir)
		fmt.Printf("Cache directory: %s\n", config.CacheDir)
		fmt.Printf("Scratch directory: %s\n", config.TempDir)
		fmt.Printf("Log file: %s\n", filepath.Join(config.CacheDir, internal.LogFileName))
	},
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}
