package commands

import (
	"github.com/spf13/cobra"

	"github.com/latticeforge/deepscan/pkg/lsp"
)

// NewLSPCommand creates the editor-integration language server command.
func NewLSPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start a language server publishing SATD and complexity diagnostics",
		Long: `Start a Language Server Protocol server on stdio.

Every open, changed, or saved document is re-parsed with the same
per-file analyzers the run command uses, and its SATD markers and
high-complexity functions are published as LSP diagnostics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			lsp.NewServer().Run()

			return nil
		},
	}

	return cmd
}
