package main

import (
	"fmt"
	"os"

	"github.com/curiolabs/curio/internal/cli"
	"github.com/curiolabs/curio/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "curio",
		Short: "Curio CLI - Personal knowledge pipeline",
		Long: `Curio CLI captures sources, runs the ingestion pipeline, and retrieves
knowledge with cited answers.

Environment variables:
  CURIO_API_KEY   API key for authentication (required)
  CURIO_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-key", "", "API key for authentication (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.CaptureCmd())
	rootCmd.AddCommand(client.ListCmd())
	rootCmd.AddCommand(client.GetCmd())
	rootCmd.AddCommand(client.AnnotateCmd())
	rootCmd.AddCommand(client.ArchiveCmd())
	rootCmd.AddCommand(client.DiscardCmd())
	rootCmd.AddCommand(client.IngestCmd())
	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.ShareCmd())
	rootCmd.AddCommand(client.AssetCmd())
	rootCmd.AddCommand(client.AuthCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
