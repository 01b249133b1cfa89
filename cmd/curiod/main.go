package main

import (
	"fmt"
	"os"

	"github.com/curiolabs/curio/internal/cli"
	"github.com/curiolabs/curio/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "curiod",
		Short: "Curio daemon and CLI",
		Long:  "Curio daemon for running the API server and managing owners and API keys",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.OwnerCmd())
	rootCmd.AddCommand(admin.APIKeyCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
