package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"mdview/pkg/mirror"
	"mdview/pkg/sandbox"
)

var (
	errOwnSubdirectory = errors.New("cannot paste into own subdirectory")
	errAlreadyExists   = errors.New("already exists")
)

// PasteOutcome lists the destinations written and the per-file errors.
type PasteOutcome struct {
	Succeeded []string `json:"succeeded" yaml:"succeeded"`
	Errors    []string `json:"errors" yaml:"errors"`
}

// PasteAggregateError carries every per-file failure of one paste. Files that
// succeeded are not rolled back.
type PasteAggregateError struct {
	Errors []string
}

func (e *PasteAggregateError) Error() string {
	return strings.Join(e.Errors, "\n")
}

// Paste applies the staged selection to targetDir, one file at a time. A
// failing file is recorded and the batch continues. After a cut the
// selection is dropped even when some files failed; after a copy it stays
// staged. It is a no-op when nothing is staged.
func (o *Orchestrator) Paste(ctx context.Context, targetDir string) (PasteOutcome, error) {
	outcome := PasteOutcome{Succeeded: []string{}, Errors: []string{}}

	sel, ok := o.Selection()
	if !ok {
		return outcome, nil
	}

	o.mu.Lock()
	report := o.progress
	o.mu.Unlock()

	target := filepath.Clean(targetDir)
	total := len(sel.Files)
	o.log.Debug().Str("target", target).Str("mode", string(sel.Mode)).Int("files", total).Msg("paste started")

	for i, file := range sel.Files {
		src := filepath.Clean(file)
		name := filepath.Base(src)

		if err := ctx.Err(); err != nil {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("%s: %v", name, err))
		} else if dest, err := o.pasteOne(ctx, src, target, sel.Mode); err != nil {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("%s: %s", name, err.Error()))
		} else if dest != "" {
			outcome.Succeeded = append(outcome.Succeeded, dest)
		}

		if report != nil {
			report(i+1, total, name)
		}
	}

	if sel.Mode == mirror.ModeCut {
		o.Clear(ctx)
	}

	o.log.Info().
		Int("succeeded", len(outcome.Succeeded)).
		Int("failed", len(outcome.Errors)).
		Msg("paste finished")

	if len(outcome.Errors) > 0 {
		return outcome, &PasteAggregateError{Errors: append([]string(nil), outcome.Errors...)}
	}
	return outcome, nil
}

// pasteOne returns the destination written, or "" when src already sits at
// its destination.
func (o *Orchestrator) pasteOne(ctx context.Context, src, target string, mode mirror.Mode) (string, error) {
	dest := filepath.Join(target, filepath.Base(src))
	// A target reached through a symlink must compare by where it lands.
	realSrc, realDest := sandbox.ResolveExisting(src), sandbox.ResolveExisting(dest)
	if dest == src || realDest == realSrc {
		return "", nil
	}
	if isDescendant(src, dest) || isDescendant(realSrc, realDest) {
		return "", errOwnSubdirectory
	}

	exists, err := o.core.PathExists(ctx, dest)
	if err != nil {
		return "", err
	}
	if exists {
		return "", errAlreadyExists
	}

	if mode == mirror.ModeCut {
		err = o.core.MoveFile(ctx, src, dest)
	} else {
		var isDir bool
		isDir, err = o.core.IsDirectory(ctx, src)
		if err == nil {
			if isDir {
				err = o.core.CopyDirRecursive(ctx, src, dest)
			} else {
				err = o.core.CopyFile(ctx, src, dest)
			}
		}
	}
	if err != nil {
		return "", err
	}
	return dest, nil
}
