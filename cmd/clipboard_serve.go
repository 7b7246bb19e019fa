package cmd

import (
	"os"

	"mdview/pkg/clipboard"

	"github.com/spf13/cobra"
)

var clipboardServeCmd = &cobra.Command{
	Use:    clipboard.ServeCommand,
	Hidden: true,
	Short:  "Internal: own the clipboard selection for a detached writer (do not call directly)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return clipboard.ServeClipboard(os.Stdin)
	},
}
