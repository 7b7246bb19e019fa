package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mdview/pkg/errors"
	"mdview/pkg/filter"
	"mdview/pkg/history"
	"mdview/pkg/logger"
	"mdview/pkg/progress"

	"github.com/spf13/cobra"
)

var (
	historyFilterPattern string
	historyMatchMode     string
	historyKind          string
	historyLimit         int
	historyCopy          bool
	historyCheckTimeout  time.Duration
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"recent"},
	Short:   "Manage recently opened files and folders",
	Long: `Every accepted launch argument and every workspace root is recorded, most recent
first, in a local SQLite database.`,
}

var historyListCmd = NewCommand("list", "List recently opened files and folders", "").
	WithAliases("ls").
	WithExample(`  # Ten most recent entries
  mdview history list --limit 10

  # Folders whose path contains "notes"
  mdview history list --kind directory --filter notes

  # Files named exactly README.md
  mdview history list --match exact --filter README.md`).
	WithHistory(func(ctx context.Context, cmd *cobra.Command, args []string, store *history.Store) error {
		hf, err := historyFilter()
		if err != nil {
			return err
		}
		entries, err := store.List(0)
		if err != nil {
			return errors.NewWithError(errors.ExitCodeFileOperation, "failed to read history", err)
		}
		entries = hf.Apply(entries)
		if historyLimit > 0 && len(entries) > historyLimit {
			entries = entries[:historyLimit]
		}

		logger.Debug().Int("count", len(entries)).Msg("history entries")

		output := NewOutputWriter(outputFormat)
		if output.IsStructured() {
			return output.Write(entries)
		}

		if len(entries) == 0 {
			fmt.Println("No history entries.")
			return nil
		}

		var plain strings.Builder
		now := time.Now()
		for _, e := range entries {
			output.Printf("%-9s  %-14s  %s\n", e.Kind, FormatAge(e.OpenedAt, now), e.Path)
			plain.WriteString(e.Path + "\n")
		}

		if historyCopy {
			if err := CopyToClipboard(plain.String()); err != nil {
				return errors.NewWithError(errors.ExitCodeGeneral, "failed to copy to clipboard", err)
			}
			fmt.Println("✓ Copied to clipboard!")
		}
		return nil
	}).Build()

var historyRemoveCmd = NewCommand("remove", "Forget one or more entries", "").
	WithAliases("rm").
	WithArgsValidation(1).
	WithHistory(func(ctx context.Context, cmd *cobra.Command, args []string, store *history.Store) error {
		for _, p := range args {
			if err := store.Remove(p); err != nil {
				return errors.NewWithError(errors.ExitCodeFileOperation, "failed to update history", err)
			}
		}
		fmt.Printf("Removed %d entr%s.\n", len(args), pluralY(len(args)))
		return nil
	}).Build()

var historyClearCmd = NewCommand("clear", "Delete every history entry", "").
	WithHistory(func(ctx context.Context, cmd *cobra.Command, args []string, store *history.Store) error {
		entries, err := store.List(0)
		if err != nil {
			return errors.NewWithError(errors.ExitCodeFileOperation, "failed to read history", err)
		}
		if len(entries) == 0 {
			fmt.Println("History is already empty.")
			return nil
		}
		if !IsAssumeYes() {
			if err := RequireConfirmation("clear the history", map[string]string{
				"Entries": fmt.Sprintf("%d", len(entries)),
			}); err != nil {
				return err
			}
		}
		if err := store.Clear(); err != nil {
			return errors.NewWithError(errors.ExitCodeFileOperation, "failed to clear history", err)
		}
		fmt.Println("History cleared.")
		return nil
	}).Build()

var historyPruneCmd = NewCommand("prune", "Drop entries whose file or folder is gone",
	`Check every entry on disk and remove those that no longer exist or changed kind. A check
that takes longer than --check-timeout, as on an unreachable network share, counts as gone.`).
	WithHistory(func(ctx context.Context, cmd *cobra.Command, args []string, store *history.Store) error {
		var removed []history.Entry
		err := progress.SimpleSpinner("Checking history entries...", func() error {
			var perr error
			removed, perr = store.Prune(ctx, historyCheckTimeout)
			return perr
		})
		if err != nil {
			return errors.NewWithError(errors.ExitCodeFileOperation, "failed to prune history", err)
		}

		output := NewOutputWriter(outputFormat)
		if output.IsStructured() {
			return output.Write(removed)
		}
		if len(removed) == 0 {
			fmt.Println("Every entry is still present.")
			return nil
		}
		for _, e := range removed {
			fmt.Printf("  removed %s\n", e.Path)
		}
		fmt.Printf("Pruned %d entr%s.\n", len(removed), pluralY(len(removed)))
		return nil
	}).Build()

func historyFilter() (*filter.HistoryFilter, error) {
	hf := &filter.HistoryFilter{}
	switch history.Kind(historyKind) {
	case "":
	case history.KindFile, history.KindDirectory:
		hf.Kind = history.Kind(historyKind)
	default:
		return nil, errors.ValidationError(fmt.Sprintf("unknown kind %q (file, directory)", historyKind))
	}

	if historyFilterPattern == "" {
		return hf, nil
	}
	mode, err := filter.ParseMode(historyMatchMode)
	if err != nil {
		return nil, errors.ValidationError(err.Error())
	}
	sf, err := filter.NewStringFilter(historyFilterPattern, mode)
	if err != nil {
		return nil, errors.ValidationError(err.Error())
	}
	hf.Path = sf
	return hf, nil
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

func init() {
	historyListCmd.Flags().StringVar(&historyFilterPattern, "filter", "", "Only show entries matching this pattern")
	historyListCmd.Flags().StringVar(&historyMatchMode, "match", "contains", "How --filter matches (contains, exact, regex, fuzzy)")
	historyListCmd.Flags().StringVar(&historyKind, "kind", "", "Only show entries of this kind (file, directory)")
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 0, "Maximum number of entries to show")
	historyListCmd.Flags().BoolVar(&historyCopy, "copy", false, "Copy the listed paths to the clipboard as text")
	historyPruneCmd.Flags().DurationVar(&historyCheckTimeout, "check-timeout", history.DefaultCheckTimeout, "Time allowed for each existence check")

	AddCommands(historyCmd,
		historyListCmd,
		historyRemoveCmd,
		historyClearCmd,
		historyPruneCmd,
	)
}
