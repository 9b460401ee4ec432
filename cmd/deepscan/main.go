// Package main provides the entry point for the deepscan CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/latticeforge/deepscan/cmd/deepscan/commands"
	"github.com/latticeforge/deepscan/pkg/version"
)

var (
	verbose bool
	quiet   bool
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "deepscan",
		Short: "Deepscan static analysis - complexity, dead code, defect density and dependency reporting",
		Long: `Deepscan analyzes a multi-language codebase and produces a unified report.

Commands:
  run       Discover, parse and analyze a project, emitting a DeepContext report
  mcp       Start an MCP server exposing analysis as an AI-agent tool
  lsp       Start a language server publishing SATD and complexity diagnostics`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewMCPCommand())
	rootCmd.AddCommand(commands.NewLSPCommand())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "deepscan %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
