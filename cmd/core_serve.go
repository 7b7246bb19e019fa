package cmd

import (
	"context"
	"os"
	"os/signal"

	"mdview/pkg/clipboard"
	"mdview/pkg/config"
	"mdview/pkg/core"
	"mdview/pkg/history"
	"mdview/pkg/ipc"
	"mdview/pkg/logger"
	"mdview/pkg/sandbox"

	"github.com/spf13/cobra"
)

var coreServeCmd = &cobra.Command{
	Use:    ipc.ServeCommand,
	Hidden: true,
	Short:  "Internal: run the trusted core on stdin/stdout (do not call directly)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		c, closeFn := buildCore(cfg)
		defer closeFn()

		// The parent owns the session; stdin EOF ends it.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return ipc.NewServer(ipc.NewLocal(c), os.Stdin, os.Stdout).Serve(ctx)
	},
}

// buildCore wires a core from cfg: the platform clipboard bridge and, unless
// disabled, the history recorder. The returned func releases the history
// database.
func buildCore(cfg *config.Config) (*core.Core, func() error) {
	bridge := clipboard.NewBridge(
		clipboard.DefaultCodec(),
		clipboard.NewPasteboard(cfg.Clipboard.Backend),
		sandbox.DefaultPolicy(),
		cfg.Clipboard.Timeout,
	)
	c := core.New(cfg, bridge)

	if cfg.History.Disabled {
		return c, func() error { return nil }
	}
	store, err := history.Open(cfg.HistoryPath(), cfg.History.Limit)
	if err != nil {
		logger.Warn().Err(err).Msg("history unavailable; opens will not be recorded")
		return c, func() error { return nil }
	}
	c.SetRecorder(store)
	return c, store.Close
}
