package cmd

import (
	"context"
	"fmt"

	"mdview/pkg/errors"
	"mdview/pkg/ipc"
	"mdview/pkg/launch"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var openCmd = NewCommand("open", "Validate a launch argument the way the viewer does",
	`Check a path or file:// URL handed to the viewer from outside. A Markdown file or a
folder is accepted and recorded in the history; anything else is rejected with a reason.
A folder also becomes the workspace root for the session.`).
	WithExample(`  mdview open README.md
  mdview open file:///home/me/notes
  mdview open --format json ../escape.md`).
	WithExactArgs(1).
	WithCore(func(ctx context.Context, cmd *cobra.Command, args []string, api ipc.API) error {
		result, err := api.ValidateLaunchArgument(ctx, args[0])
		if err != nil {
			return err
		}
		if result.Kind == launch.KindDirectory {
			if err := api.SetSandboxRoot(ctx, result.Path); err != nil {
				return err
			}
		}

		output := NewOutputWriter(outputFormat)
		if output.IsStructured() {
			if err := output.Write(result); err != nil {
				return err
			}
		} else if result.Valid {
			_, _ = color.New(color.FgGreen).Print("✓ ")
			fmt.Printf("%s (%s)\n", result.Path, result.Kind)
		}

		if !result.Valid {
			return errors.New(errors.ExitCodeLaunchInvalid, result.Error)
		}
		return nil
	}).Build()
