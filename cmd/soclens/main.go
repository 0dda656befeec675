package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/soclens/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "soclens",
		Short: "SOC incident dashboard: severity prediction and similar-incident retrieval",
		Long: `soclens serves a read-only SOC dashboard over a historical incident corpus.

Configuration is read from config/<ENV>.yaml (ENV defaults to "local") and
SOCLENS_* environment variables, for example:
  SOCLENS_CORPUS_PATH     incident CSV file
  SOCLENS_ARTIFACTS_DIR   directory holding the pre-trained artifacts
  SOCLENS_API_KEYS        comma-separated bearer tokens`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(predictCmd())
	rootCmd.AddCommand(retrieveCmd())
	rootCmd.AddCommand(capabilitiesCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
