package cmd

import (
	"context"
	"fmt"

	"mdview/pkg/config"
	"mdview/pkg/errors"
	"mdview/pkg/history"
	"mdview/pkg/ipc"
	"mdview/pkg/logger"

	"github.com/spf13/cobra"
)

type CommandBuilder struct {
	cmd *cobra.Command
}

func NewCommand(name, short, long string) *CommandBuilder {
	return &CommandBuilder{
		cmd: &cobra.Command{
			Use:     name,
			Short:   short,
			Long:    long,
			Example: "",
		},
	}
}

func (b *CommandBuilder) WithExample(example string) *CommandBuilder {
	b.cmd.Example = example
	return b
}

func (b *CommandBuilder) WithAliases(aliases ...string) *CommandBuilder {
	b.cmd.Aliases = aliases
	return b
}

// WithCore runs fn against a core session: a spawned core process by
// default, or an in-process one with --in-process.
func (b *CommandBuilder) WithCore(fn func(ctx context.Context, cmd *cobra.Command, args []string, api ipc.API) error) *CommandBuilder {
	b.cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx, cancel := GetContext()
		defer cancel()

		session, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := session.Close(); cerr != nil {
				logger.Warn().Err(cerr).Msg("failed to close core session")
			}
		}()
		return fn(ctx, cmd, args, session)
	}
	return b
}

// WithHistory runs fn against the history database named by the config.
func (b *CommandBuilder) WithHistory(fn func(ctx context.Context, cmd *cobra.Command, args []string, store *history.Store) error) *CommandBuilder {
	b.cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx, cancel := GetContext()
		defer cancel()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.History.Disabled {
			return errors.NewWithSuggestion(errors.ExitCodeConfig, "history is disabled",
				"Set history.disabled to false in the config file or unset MDVIEW_HISTORY_DISABLED.")
		}
		store, err := history.Open(cfg.HistoryPath(), cfg.History.Limit)
		if err != nil {
			return errors.NewWithError(errors.ExitCodeFileOperation, "failed to open history", err)
		}
		defer store.Close()
		return fn(ctx, cmd, args, store)
	}
	return b
}

func (b *CommandBuilder) WithArgsValidation(minArgs int) *CommandBuilder {
	b.cmd.Args = func(cmd *cobra.Command, args []string) error {
		if len(args) < minArgs {
			return errors.ValidationError(fmt.Sprintf("requires at least %d argument(s)", minArgs))
		}
		return nil
	}
	return b
}

func (b *CommandBuilder) WithExactArgs(n int) *CommandBuilder {
	b.cmd.Args = func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return errors.ValidationError(fmt.Sprintf("requires exactly %d argument(s), got %d", n, len(args)))
		}
		return nil
	}
	return b
}

func (b *CommandBuilder) Build() *cobra.Command {
	return b.cmd
}

func AddCommands(parent *cobra.Command, children ...*cobra.Command) {
	for _, child := range children {
		parent.AddCommand(child)
	}
}

type session struct {
	ipc.API
	close func() error
}

func (s *session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

func openSession(ctx context.Context) (*session, error) {
	if inProcessFlag {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		c, closeFn := buildCore(cfg)
		return &session{API: ipc.NewLocal(c), close: closeFn}, nil
	}

	level := logLevel
	if level == "" {
		level = "info"
	}
	proc, err := ipc.SpawnCore(ctx, "--log-level", level)
	if err != nil {
		return nil, err
	}
	return &session{API: proc, close: proc.Close}, nil
}
