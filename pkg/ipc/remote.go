package ipc

import (
	"context"
	"io"
	"os"
	"os/exec"

	"mdview/pkg/clipboard"
	"mdview/pkg/errors"
	"mdview/pkg/launch"
	"mdview/pkg/logger"
	"mdview/pkg/mirror"
)

// ServeCommand is the hidden subcommand that runs a core on stdin/stdout.
const ServeCommand = "__core-serve"

// RemoteCore implements API by calling a core over a Client.
type RemoteCore struct {
	client *Client
}

func NewRemoteCore(client *Client) *RemoteCore {
	return &RemoteCore{client: client}
}

func (r *RemoteCore) SetSandboxRoot(ctx context.Context, path string) error {
	return r.client.Call(ctx, MethodSetSandboxRoot, pathParams{Path: path}, nil)
}

func (r *RemoteCore) GetSandboxRoot(ctx context.Context) (string, bool, error) {
	var root *string
	if err := r.client.Call(ctx, MethodGetSandboxRoot, nil, &root); err != nil {
		return "", false, err
	}
	if root == nil {
		return "", false, nil
	}
	return *root, true, nil
}

func (r *RemoteCore) ValidateLaunchArgument(ctx context.Context, raw string) (launch.Result, error) {
	var result launch.Result
	err := r.client.Call(ctx, MethodValidateLaunchArgument, rawParams{Raw: raw}, &result)
	return result, err
}

func (r *RemoteCore) SyncClipboardMirror(ctx context.Context, files []string, mode mirror.Mode) error {
	return r.client.Call(ctx, MethodSyncClipboardMirror, mirrorParams{Files: files, Mode: mode}, nil)
}

func (r *RemoteCore) GetClipboardMirror(ctx context.Context) (mirror.State, error) {
	var state mirror.State
	err := r.client.Call(ctx, MethodGetClipboardMirror, nil, &state)
	return state, err
}

func (r *RemoteCore) ReadOSClipboardFiles(ctx context.Context) ([]clipboard.Entry, error) {
	entries := []clipboard.Entry{}
	err := r.client.Call(ctx, MethodReadOSClipboardFiles, nil, &entries)
	return entries, err
}

func (r *RemoteCore) WriteOSClipboardFiles(ctx context.Context, paths []string, isCut bool) (bool, error) {
	var ok bool
	err := r.client.Call(ctx, MethodWriteOSClipboardFiles, clipboardWriteParams{Paths: paths, IsCut: isCut}, &ok)
	return ok, err
}

func (r *RemoteCore) HasOSClipboardFiles(ctx context.Context) (bool, error) {
	var ok bool
	err := r.client.Call(ctx, MethodHasOSClipboardFiles, nil, &ok)
	return ok, err
}

func (r *RemoteCore) ClearOSClipboard(ctx context.Context) error {
	return r.client.Call(ctx, MethodClearOSClipboard, nil, nil)
}

func (r *RemoteCore) CopyFile(ctx context.Context, src, dst string) error {
	return r.client.Call(ctx, MethodCopyFile, transferParams{Src: src, Dst: dst}, nil)
}

func (r *RemoteCore) CopyDirRecursive(ctx context.Context, src, dst string) error {
	return r.client.Call(ctx, MethodCopyDirRecursive, transferParams{Src: src, Dst: dst}, nil)
}

func (r *RemoteCore) MoveFile(ctx context.Context, src, dst string) error {
	return r.client.Call(ctx, MethodMoveFile, transferParams{Src: src, Dst: dst}, nil)
}

func (r *RemoteCore) PathExists(ctx context.Context, path string) (bool, error) {
	var ok bool
	err := r.client.Call(ctx, MethodPathExists, pathParams{Path: path}, &ok)
	return ok, err
}

func (r *RemoteCore) IsDirectory(ctx context.Context, path string) (bool, error) {
	var ok bool
	err := r.client.Call(ctx, MethodIsDirectory, pathParams{Path: path}, &ok)
	return ok, err
}

// Process is a core running as a child of this binary.
type Process struct {
	*RemoteCore
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// SpawnCore re-executes the current binary with ServeCommand and connects to
// it over its stdin and stdout. extraArgs are passed after the command, for
// flags such as --log-level. The child's stderr is inherited for logs.
func SpawnCore(ctx context.Context, extraArgs ...string) (*Process, error) {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	args := append([]string{ServeCommand}, extraArgs...)
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.NewWithError(errors.ExitCodeIPC, "failed to open core stdin", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.NewWithError(errors.ExitCodeIPC, "failed to open core stdout", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.NewWithError(errors.ExitCodeIPC, "failed to start core process", err)
	}
	logger.Debug().Int("pid", cmd.Process.Pid).Msg("core process started")

	return &Process{
		RemoteCore: NewRemoteCore(NewClient(stdout, stdin)),
		cmd:        cmd,
		stdin:      stdin,
	}, nil
}

// Close ends the session by closing the child's stdin and waits for it to
// exit.
func (p *Process) Close() error {
	if err := p.stdin.Close(); err != nil {
		return err
	}
	if err := p.cmd.Wait(); err != nil {
		return errors.NewWithError(errors.ExitCodeIPC, "core process exited", err)
	}
	return nil
}
