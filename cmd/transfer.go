package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"mdview/pkg/errors"
	"mdview/pkg/ipc"
	"mdview/pkg/logger"
	"mdview/pkg/mirror"
	"mdview/pkg/orchestrator"
	"mdview/pkg/progress"

	"github.com/spf13/cobra"
)

var (
	transferRoot string
	transferInto string
	pasteCut     bool
)

// PasteOutput is the structured result of a paste.
type PasteOutput struct {
	Target    string   `json:"target" yaml:"target"`
	Mode      string   `json:"mode" yaml:"mode"`
	Succeeded []string `json:"succeeded" yaml:"succeeded"`
	Errors    []string `json:"errors" yaml:"errors"`
}

var copyCmd = NewCommand("copy", "Copy files or folders within a workspace",
	`Stage files or folders for copying. With --into they are pasted into that folder,
otherwise they are offered on the OS clipboard. Every source and destination must be
inside the workspace given by --root (the current directory by default).`).
	WithAliases("cp").
	WithExample(`  # Copy two notes into the archive folder
  mdview copy --into archive notes/a.md notes/b.md

  # Put a folder on the OS clipboard for a file manager
  mdview copy notes`).
	WithArgsValidation(1).
	WithCore(func(ctx context.Context, cmd *cobra.Command, args []string, api ipc.API) error {
		return runTransfer(ctx, api, args, false)
	}).Build()

var cutCmd = NewCommand("cut", "Move files or folders within a workspace",
	`Stage files or folders for moving. With --into they are moved into that folder,
otherwise they are offered on the OS clipboard as a cut.`).
	WithAliases("mv").
	WithExample(`  mdview cut --into archive notes/old.md`).
	WithArgsValidation(1).
	WithCore(func(ctx context.Context, cmd *cobra.Command, args []string, api ipc.API) error {
		return runTransfer(ctx, api, args, true)
	}).Build()

var pasteCmd = NewCommand("paste", "Paste the files on the OS clipboard into a folder",
	`Read the OS clipboard and paste every allowed file into TARGET. Protected and missing
files are skipped. With --cut the files are moved and, when every move succeeds, the clipboard is cleared.`).
	WithExample(`  # Paste files copied in a file manager into the current workspace
  mdview paste .`).
	WithExactArgs(1).
	WithCore(func(ctx context.Context, cmd *cobra.Command, args []string, api ipc.API) error {
		if err := openWorkspace(ctx, api); err != nil {
			return err
		}
		target, err := absPath(args[0])
		if err != nil {
			return err
		}

		entries, err := api.ReadOSClipboardFiles(ctx)
		if err != nil {
			return err
		}
		o := orchestrator.New(api)
		if o.StageFromOS(ctx, entries, pasteCut) == 0 {
			return errors.NewWithSuggestion(errors.ExitCodeValidation, "no files on the clipboard can be pasted",
				"Run 'mdview clipboard read' to see why each file was rejected.")
		}

		err = paste(ctx, o, target)
		if pasteCut && err == nil {
			if cerr := api.ClearOSClipboard(ctx); cerr != nil {
				logger.Warn().Err(cerr).Msg("failed to clear the clipboard after a cut")
			}
		}
		return err
	}).Build()

func runTransfer(ctx context.Context, api ipc.API, args []string, isCut bool) error {
	if err := openWorkspace(ctx, api); err != nil {
		return err
	}
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		p, err := absPath(arg)
		if err != nil {
			return err
		}
		paths = append(paths, p)
	}

	if transferInto == "" {
		ok, err := api.WriteOSClipboardFiles(ctx, paths, isCut)
		if err != nil {
			return err
		}
		if !ok {
			return errors.NewWithSuggestion(errors.ExitCodeFileOperation, "nothing was written to the clipboard",
				"Check that the files exist; missing files are skipped.")
		}
		fmt.Printf("✓ %d item(s) on the clipboard\n", len(paths))
		return nil
	}

	target, err := absPath(transferInto)
	if err != nil {
		return err
	}
	o := orchestrator.New(api)
	if isCut {
		o.Cut(ctx, paths)
	} else {
		o.Copy(ctx, paths)
	}
	return paste(ctx, o, target)
}

// paste runs the staged selection into target and reports the outcome.
// Per-file failures come back as one error with a line per file.
func paste(ctx context.Context, o *orchestrator.Orchestrator, target string) error {
	sel, _ := o.Selection()
	output := NewOutputWriter(outputFormat)

	label := "Copying"
	if sel.Mode == mirror.ModeCut {
		label = "Moving"
	}
	bar := progress.NewBar(len(sel.Files), label)
	if !output.IsStructured() {
		o.SetProgress(bar.Report)
	}

	outcome, err := o.Paste(ctx, target)
	bar.Finish()

	if output.IsStructured() {
		if werr := output.Write(PasteOutput{
			Target:    target,
			Mode:      string(sel.Mode),
			Succeeded: outcome.Succeeded,
			Errors:    outcome.Errors,
		}); werr != nil {
			return werr
		}
	} else if len(outcome.Succeeded) > 0 {
		fmt.Printf("✓ %d item(s) pasted into %s\n", len(outcome.Succeeded), target)
	}

	var agg *orchestrator.PasteAggregateError
	if stderrors.As(err, &agg) {
		return errors.New(errors.ExitCodePaste,
			fmt.Sprintf("paste finished with %d error(s)\n%s", len(agg.Errors), agg.Error()))
	}
	return err
}

// openWorkspace sets the sandbox root from --root, defaulting to the
// current directory.
func openWorkspace(ctx context.Context, api ipc.API) error {
	root := transferRoot
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return errors.NewWithError(errors.ExitCodeFileOperation, "failed to get working directory", err)
		}
		root = wd
	}
	root, err := absPath(root)
	if err != nil {
		return err
	}
	return api.SetSandboxRoot(ctx, root)
}

func absPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errors.ValidationError(fmt.Sprintf("invalid path %q", p))
	}
	return abs, nil
}

func init() {
	for _, c := range []*cobra.Command{copyCmd, cutCmd, pasteCmd} {
		c.Flags().StringVar(&transferRoot, "root", "", "Workspace folder (default: current directory)")
	}
	copyCmd.Flags().StringVar(&transferInto, "into", "", "Folder to paste into")
	cutCmd.Flags().StringVar(&transferInto, "into", "", "Folder to move into")
	pasteCmd.Flags().BoolVar(&pasteCut, "cut", false, "Move the files instead of copying them")
}
