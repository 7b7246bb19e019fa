package completions

import (
	"fmt"
	"strings"

	"mdview/pkg/config"
	"mdview/pkg/history"

	"github.com/spf13/cobra"
)

type Completer struct {
	historyPath string
	disabled    bool
}

func NewCompleter() *Completer {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	return &Completer{
		historyPath: cfg.HistoryPath(),
		disabled:    cfg.History.Disabled,
	}
}

// CompleteRecentPaths offers recently opened files and folders, falling back
// to the shell's file completion when there is no history.
func (c *Completer) CompleteRecentPaths(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if c.disabled {
		return nil, cobra.ShellCompDirectiveDefault
	}
	store, err := history.Open(c.historyPath, 0)
	if err != nil {
		return nil, cobra.ShellCompDirectiveDefault
	}
	defer store.Close()

	entries, err := store.List(0)
	if err != nil || len(entries) == 0 {
		return nil, cobra.ShellCompDirectiveDefault
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, fmt.Sprintf("%s\t%s", e.Path, e.Kind))
	}
	results := filterPrefix(paths, toComplete, false)
	if len(results) == 0 {
		return nil, cobra.ShellCompDirectiveDefault
	}
	return results, cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteKind(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	kinds := []string{
		string(history.KindFile) + "\tMarkdown files",
		string(history.KindDirectory) + "\tWorkspace folders",
	}
	return filterPrefix(kinds, toComplete, true), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteMatchMode(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	modes := []string{
		"contains\tSubstring match (default)",
		"exact\tWhole file or folder name",
		"regex\tRegular expression",
		"fuzzy\tCharacters in order",
	}
	return filterPrefix(modes, toComplete, true), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteFormat(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	formats := []string{
		"table\tHuman-readable output",
		"json\tIndented JSON",
		"yaml\tYAML documents",
	}
	return filterPrefix(formats, toComplete, true), cobra.ShellCompDirectiveNoFileComp
}

func filterPrefix(items []string, prefix string, fold bool) []string {
	var result []string
	for _, item := range items {
		name := strings.Split(item, "\t")[0]
		if fold {
			name, prefix = strings.ToLower(name), strings.ToLower(prefix)
		}
		if strings.HasPrefix(name, prefix) {
			result = append(result, item)
		}
	}
	return result
}

func RegisterCompletions(rootCmd *cobra.Command) {
	completer := NewCompleter()

	rootCmd.RegisterFlagCompletionFunc("format", completer.CompleteFormat)

	if openCmd, _, _ := rootCmd.Find([]string{"open"}); openCmd != nil && openCmd != rootCmd {
		openCmd.ValidArgsFunction = completer.CompleteRecentPaths
	}

	if listCmd, _, _ := rootCmd.Find([]string{"history", "list"}); listCmd != nil && listCmd != rootCmd {
		listCmd.RegisterFlagCompletionFunc("kind", completer.CompleteKind)
		listCmd.RegisterFlagCompletionFunc("match", completer.CompleteMatchMode)
	}
}
