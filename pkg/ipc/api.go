package ipc

import (
	"context"

	"mdview/pkg/clipboard"
	"mdview/pkg/core"
	"mdview/pkg/launch"
	"mdview/pkg/mirror"
)

// API is the core's message surface as seen by a client. Every call may
// fail in transit, so even advisory operations return an error.
type API interface {
	SetSandboxRoot(ctx context.Context, path string) error
	GetSandboxRoot(ctx context.Context) (string, bool, error)
	ValidateLaunchArgument(ctx context.Context, raw string) (launch.Result, error)
	SyncClipboardMirror(ctx context.Context, files []string, mode mirror.Mode) error
	GetClipboardMirror(ctx context.Context) (mirror.State, error)
	ReadOSClipboardFiles(ctx context.Context) ([]clipboard.Entry, error)
	WriteOSClipboardFiles(ctx context.Context, paths []string, isCut bool) (bool, error)
	HasOSClipboardFiles(ctx context.Context) (bool, error)
	ClearOSClipboard(ctx context.Context) error
	CopyFile(ctx context.Context, src, dst string) error
	CopyDirRecursive(ctx context.Context, src, dst string) error
	MoveFile(ctx context.Context, src, dst string) error
	PathExists(ctx context.Context, path string) (bool, error)
	IsDirectory(ctx context.Context, path string) (bool, error)
}

// LocalCore adapts an in-process core to API.
type LocalCore struct {
	*core.Core
}

func NewLocal(c *core.Core) *LocalCore {
	return &LocalCore{Core: c}
}

func (l *LocalCore) GetSandboxRoot(ctx context.Context) (string, bool, error) {
	root, ok := l.Core.GetSandboxRoot(ctx)
	return root, ok, nil
}

func (l *LocalCore) ValidateLaunchArgument(ctx context.Context, raw string) (launch.Result, error) {
	return l.Core.ValidateLaunchArgument(ctx, raw), nil
}

func (l *LocalCore) GetClipboardMirror(ctx context.Context) (mirror.State, error) {
	return l.Core.GetClipboardMirror(ctx), nil
}

func (l *LocalCore) ReadOSClipboardFiles(ctx context.Context) ([]clipboard.Entry, error) {
	return l.Core.ReadOSClipboardFiles(ctx), nil
}

func (l *LocalCore) WriteOSClipboardFiles(ctx context.Context, paths []string, isCut bool) (bool, error) {
	return l.Core.WriteOSClipboardFiles(ctx, paths, isCut), nil
}

func (l *LocalCore) HasOSClipboardFiles(ctx context.Context) (bool, error) {
	return l.Core.HasOSClipboardFiles(ctx), nil
}

func (l *LocalCore) ClearOSClipboard(ctx context.Context) error {
	l.Core.ClearOSClipboard(ctx)
	return nil
}
