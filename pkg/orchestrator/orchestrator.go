// Package orchestrator owns the client's staged clipboard selection and runs
// paste transactions against the trusted core. It is the only authority on
// what is staged; the core's mirror is informed after every change but never
// consulted.
package orchestrator

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"mdview/pkg/clipboard"
	"mdview/pkg/logger"
	"mdview/pkg/mirror"

	"github.com/rs/zerolog"
)

// Core is the part of the trusted core a paste needs. Each call validates its
// paths on the core side.
type Core interface {
	CopyFile(ctx context.Context, src, dst string) error
	CopyDirRecursive(ctx context.Context, src, dst string) error
	MoveFile(ctx context.Context, src, dst string) error
	PathExists(ctx context.Context, path string) (bool, error)
	IsDirectory(ctx context.Context, path string) (bool, error)
	SyncClipboardMirror(ctx context.Context, files []string, mode mirror.Mode) error
}

// Selection is a staged set of files. Files is never empty.
type Selection struct {
	Files []string    `json:"files" yaml:"files"`
	Mode  mirror.Mode `json:"mode" yaml:"mode"`
}

// ProgressFunc is called after each staged file is handled.
type ProgressFunc func(done, total int, name string)

type Orchestrator struct {
	core Core
	log  zerolog.Logger

	mu       sync.Mutex
	selected *Selection
	progress ProgressFunc
}

func New(core Core) *Orchestrator {
	return &Orchestrator{
		core: core,
		log:  logger.With("orchestrator"),
	}
}

// SetProgress installs fn to be called after each pasted file. A nil fn
// turns reporting off.
func (o *Orchestrator) SetProgress(fn ProgressFunc) {
	o.mu.Lock()
	o.progress = fn
	o.mu.Unlock()
}

// Copy stages paths for copying, replacing any previous selection.
func (o *Orchestrator) Copy(ctx context.Context, paths []string) {
	o.stage(ctx, paths, mirror.ModeCopy)
}

// Cut stages paths for moving, replacing any previous selection.
func (o *Orchestrator) Cut(ctx context.Context, paths []string) {
	o.stage(ctx, paths, mirror.ModeCut)
}

// Clear drops the selection.
func (o *Orchestrator) Clear(ctx context.Context) {
	o.mu.Lock()
	o.selected = nil
	o.mu.Unlock()
	o.syncMirror(ctx, nil, mirror.ModeNone)
}

// Selection returns a copy of the staged selection, or false when idle.
func (o *Orchestrator) Selection() (Selection, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.selected == nil {
		return Selection{}, false
	}
	return Selection{
		Files: append([]string(nil), o.selected.Files...),
		Mode:  o.selected.Mode,
	}, true
}

// StageFromOS stages the allowed entries of an OS clipboard read and returns
// how many were staged. Nothing changes when no entry is allowed.
func (o *Orchestrator) StageFromOS(ctx context.Context, entries []clipboard.Entry, isCut bool) int {
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsAllowed {
			paths = append(paths, e.Path)
		}
	}
	if len(paths) == 0 {
		return 0
	}
	mode := mirror.ModeCopy
	if isCut {
		mode = mirror.ModeCut
	}
	o.stage(ctx, paths, mode)
	return len(paths)
}

func (o *Orchestrator) stage(ctx context.Context, paths []string, mode mirror.Mode) {
	files := dedupe(paths)
	if len(files) == 0 {
		o.Clear(ctx)
		return
	}

	o.mu.Lock()
	o.selected = &Selection{Files: files, Mode: mode}
	o.mu.Unlock()
	o.syncMirror(ctx, files, mode)
}

// syncMirror pushes the selection to the core. The mirror is advisory, so a
// failure is only logged.
func (o *Orchestrator) syncMirror(ctx context.Context, files []string, mode mirror.Mode) {
	if err := o.core.SyncClipboardMirror(ctx, files, mode); err != nil {
		o.log.Warn().Err(err).Msg("clipboard mirror sync failed")
	}
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// isDescendant reports whether p lies strictly beneath dir. Both must be
// cleaned.
func isDescendant(dir, p string) bool {
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}
