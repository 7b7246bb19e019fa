package cmd

import (
	"context"
	"fmt"
	"time"
)

type WatchConfig struct {
	Interval    time.Duration
	RefreshFunc func(ctx context.Context) error
	ClearScreen func()
	OnError     func(error)
}

// RunWatch calls RefreshFunc every Interval until ctx ends. Refresh errors
// go to OnError and do not stop the loop.
func RunWatch(ctx context.Context, cfg WatchConfig) error {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if cfg.ClearScreen != nil {
			cfg.ClearScreen()
		}

		if cfg.RefreshFunc != nil {
			if err := cfg.RefreshFunc(ctx); err != nil && cfg.OnError != nil {
				cfg.OnError(err)
			}
		}

		if ctx.Err() != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func ClearScreen() {
	fmt.Print("\033[H\033[2J")
}
