package cmd

import "github.com/spf13/cobra"

func RegisterCommands(root *cobra.Command) {
	root.AddCommand(versionCmd)
	root.AddCommand(clipboardServeCmd)
	root.AddCommand(coreServeCmd)

	root.AddCommand(openCmd)
	root.AddCommand(copyCmd)
	root.AddCommand(cutCmd)
	root.AddCommand(pasteCmd)
	root.AddCommand(clipboardCmd)
	root.AddCommand(sandboxCmd)
	root.AddCommand(historyCmd)
	root.AddCommand(configCmd)
}
