package core

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"

	"mdview/pkg/errors"
	"mdview/pkg/sandbox"
)

// assertAll runs AssertSecure on every path and returns the first failure.
func (c *Core) assertAll(paths ...string) error {
	for _, p := range paths {
		if err := c.validator.AssertSecure(p); err != nil {
			return err
		}
	}
	return nil
}

// assertNotInside rejects a tree copy whose destination resolves to src or
// below it. Symlinks are resolved on both sides first.
func assertNotInside(src, dst string) error {
	if sandbox.Contains(sandbox.ResolveExisting(src), sandbox.ResolveExisting(dst)) {
		return errors.ValidationError("cannot copy a folder into itself: " + filepath.Base(src))
	}
	return nil
}

// CopyFile copies one regular file, creating dst's parent directories.
func (c *Core) CopyFile(ctx context.Context, src, dst string) error {
	if err := c.assertAll(src, dst); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := copyFile(src, dst); err != nil {
		return errors.FileOperationError("copy", err)
	}
	c.log.Debug().Str("src", src).Str("dst", dst).Msg("file copied")
	return nil
}

// CopyDirRecursive copies the tree at src to dst. Symlinks are recreated as
// links only when their target passes the same checks as src; others are
// skipped.
func (c *Core) CopyDirRecursive(ctx context.Context, src, dst string) error {
	if err := c.assertAll(src, dst); err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return errors.FileOperationError("copy", err)
	}
	if !info.IsDir() {
		return errors.ValidationError("not a directory: " + filepath.Base(src))
	}
	if err := assertNotInside(src, dst); err != nil {
		return err
	}
	if err := c.copyDir(ctx, src, dst, info.Mode().Perm()); err != nil {
		if errors.IsSecurityViolation(err) || stderrors.Is(err, context.Canceled) {
			return err
		}
		return errors.FileOperationError("copy", err)
	}
	c.log.Debug().Str("src", src).Str("dst", dst).Msg("directory copied")
	return nil
}

func (c *Core) copyDir(ctx context.Context, src, dst string, perm os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, perm|0o700); err != nil {
		return err
	}

	for _, entry := range entries {
		from := filepath.Join(src, entry.Name())
		to := filepath.Join(dst, entry.Name())

		switch {
		case entry.Type()&os.ModeSymlink != 0:
			if err := c.copySymlink(from, to); err != nil {
				return err
			}
		case entry.IsDir():
			info, err := entry.Info()
			if err != nil {
				return err
			}
			if err := c.copyDir(ctx, from, to, info.Mode().Perm()); err != nil {
				return err
			}
		case entry.Type().IsRegular():
			if err := copyFile(from, to); err != nil {
				return err
			}
		default:
			c.log.Warn().Str("path", from).Msg("skipping special file")
		}
	}
	return nil
}

func (c *Core) copySymlink(from, to string) error {
	target, err := os.Readlink(from)
	if err != nil {
		return err
	}
	resolved := target
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(filepath.Dir(from), target)
	}
	if err := c.validator.AssertSecure(resolved); err != nil {
		c.log.Warn().Str("path", from).Msg("skipping symlink that leaves the workspace")
		return nil
	}
	return os.Symlink(target, to)
}

// MoveFile renames src to dst, falling back to copy and remove when they sit
// on different devices.
func (c *Core) MoveFile(ctx context.Context, src, dst string) error {
	if err := c.assertAll(src, dst); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.FileOperationError("move", err)
	}

	err := os.Rename(src, dst)
	if err == nil {
		c.log.Debug().Str("src", src).Str("dst", dst).Msg("file moved")
		return nil
	}
	if !isCrossDevice(err) {
		return errors.FileOperationError("move", err)
	}

	c.log.Debug().Str("src", src).Msg("cross-device move, copying")
	info, err := os.Lstat(src)
	if err != nil {
		return errors.FileOperationError("move", err)
	}
	if info.IsDir() {
		if err := assertNotInside(src, dst); err != nil {
			return err
		}
		err = c.copyDir(ctx, src, dst, info.Mode().Perm())
	} else {
		err = copyFile(src, dst)
	}
	if err != nil {
		return errors.FileOperationError("move", err)
	}
	if err := os.RemoveAll(src); err != nil {
		return errors.FileOperationError("move", err)
	}
	return nil
}

// PathExists reports whether path exists. It does not follow a final
// symlink, so a dangling link still counts.
func (c *Core) PathExists(ctx context.Context, path string) (bool, error) {
	if err := c.assertAll(path); err != nil {
		return false, err
	}
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, errors.FileOperationError("stat", err)
	}
}

func (c *Core) IsDirectory(ctx context.Context, path string) (bool, error) {
	if err := c.assertAll(path); err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.FileOperationError("stat", err)
	}
	return info.IsDir(), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
