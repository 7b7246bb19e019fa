package history

import (
	"context"
	"os"
	"time"
)

// Revalidate splits entries into those still present on disk and stale ones.
// Each check races a timer; a check that errors or outlives the timer marks
// the entry stale. Entries left unchecked when ctx ends are kept as live.
func Revalidate(ctx context.Context, entries []Entry, timeout time.Duration) (live, stale []Entry) {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	live = []Entry{}
	stale = []Entry{}

	for i, e := range entries {
		if ctx.Err() != nil {
			live = append(live, entries[i:]...)
			break
		}
		if present(ctx, e, timeout) {
			live = append(live, e)
		} else {
			stale = append(stale, e)
		}
	}
	return live, stale
}

func present(ctx context.Context, e Entry, timeout time.Duration) bool {
	done := make(chan bool, 1)
	go func() {
		info, err := os.Stat(e.Path)
		if err != nil {
			done <- false
			return
		}
		done <- info.IsDir() == (e.Kind == KindDirectory)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ok := <-done:
		return ok
	case <-timer.C:
		return false
	case <-ctx.Done():
		return true
	}
}
