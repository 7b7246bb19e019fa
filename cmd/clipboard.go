package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"time"

	"mdview/pkg/clipboard"
	"mdview/pkg/errors"
	"mdview/pkg/ipc"
	"mdview/pkg/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	clipboardWriteCut     bool
	clipboardWatchEvery   time.Duration
	clipboardWatchChanges bool
)

var clipboardCmd = &cobra.Command{
	Use:     "clipboard",
	Aliases: []string{"cb"},
	Short:   "Read and write file lists on the OS clipboard",
	Long: `Exchange file lists with the system clipboard in its native format: NSFilenamesPboardType
on macOS, CF_HDROP on Windows and text/uri-list on Linux. Protected paths are reported
but never returned as allowed.`,
}

var clipboardReadCmd = NewCommand("read", "List the files on the OS clipboard", "").
	WithCore(func(ctx context.Context, cmd *cobra.Command, args []string, api ipc.API) error {
		entries, err := api.ReadOSClipboardFiles(ctx)
		if err != nil {
			return err
		}
		output := NewOutputWriter(outputFormat)
		if output.IsStructured() {
			return output.Write(entries)
		}
		printEntries(entries)
		return nil
	}).Build()

var clipboardWriteCmd = NewCommand("write", "Put files on the OS clipboard", "").
	WithExample(`  # Offer two notes to a file manager
  mdview clipboard write notes/a.md notes/b.md

  # Offer them as a cut
  mdview clipboard write --cut notes/a.md`).
	WithArgsValidation(1).
	WithCore(func(ctx context.Context, cmd *cobra.Command, args []string, api ipc.API) error {
		paths := make([]string, 0, len(args))
		for _, arg := range args {
			abs, err := absPath(arg)
			if err != nil {
				return err
			}
			paths = append(paths, abs)
		}
		ok, err := api.WriteOSClipboardFiles(ctx, paths, clipboardWriteCut)
		if err != nil {
			return err
		}
		if !ok {
			return errors.NewWithSuggestion(errors.ExitCodeFileOperation, "nothing was written to the clipboard",
				"Check that the files exist; missing files are skipped.")
		}
		fmt.Printf("✓ %d file(s) on the clipboard\n", len(paths))
		return nil
	}).Build()

var clipboardHasCmd = NewCommand("has", "Report whether the OS clipboard holds files", "").
	WithCore(func(ctx context.Context, cmd *cobra.Command, args []string, api ipc.API) error {
		has, err := api.HasOSClipboardFiles(ctx)
		if err != nil {
			return err
		}
		output := NewOutputWriter(outputFormat)
		if output.IsStructured() {
			return output.Write(map[string]bool{"hasFiles": has})
		}
		fmt.Println(has)
		return nil
	}).Build()

var clipboardClearCmd = NewCommand("clear", "Clear the OS clipboard", "").
	WithCore(func(ctx context.Context, cmd *cobra.Command, args []string, api ipc.API) error {
		return api.ClearOSClipboard(ctx)
	}).Build()

var clipboardWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the files on the OS clipboard as it changes",
	Long:  `Poll the OS clipboard and redraw its file list until interrupted. --timeout does not apply.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		session, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer session.Close()

		var last []string
		redraw := ClearScreen
		if clipboardWatchChanges {
			redraw = nil
		}
		return RunWatch(ctx, WatchConfig{
			Interval:    clipboardWatchEvery,
			ClearScreen: redraw,
			RefreshFunc: func(ctx context.Context) error {
				entries, err := session.ReadOSClipboardFiles(ctx)
				if err != nil {
					return err
				}
				paths := make([]string, 0, len(entries))
				for _, e := range entries {
					paths = append(paths, e.Path)
				}
				if clipboardWatchChanges && slices.Equal(paths, last) {
					return nil
				}
				last = paths
				fmt.Printf("%s\n", time.Now().Format("15:04:05"))
				printEntries(entries)
				return nil
			},
			OnError: func(err error) {
				if ctx.Err() == nil {
					logger.Warn().Err(err).Msg("clipboard read failed")
				}
			},
		})
	},
}

func printEntries(entries []clipboard.Entry) {
	if len(entries) == 0 {
		fmt.Println("No files on the clipboard.")
		return
	}
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	for _, e := range entries {
		switch {
		case e.IsAllowed:
			_, _ = green.Print("  ✓ ")
			fmt.Println(e.Path)
		default:
			_, _ = red.Print("  ✗ ")
			fmt.Printf("%s (%s)\n", e.Path, e.Reason)
		}
	}
}

func init() {
	clipboardWriteCmd.Flags().BoolVar(&clipboardWriteCut, "cut", false, "Mark the files as cut instead of copied")
	clipboardWatchCmd.Flags().DurationVar(&clipboardWatchEvery, "interval", time.Second, "Polling interval")
	clipboardWatchCmd.Flags().BoolVar(&clipboardWatchChanges, "changes", false, "Append only when the list changes instead of redrawing")

	AddCommands(clipboardCmd,
		clipboardReadCmd,
		clipboardWriteCmd,
		clipboardHasCmd,
		clipboardClearCmd,
		clipboardWatchCmd,
	)
}
