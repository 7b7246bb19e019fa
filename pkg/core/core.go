// Package core is the trusted side of mdview. A Core owns the workspace
// sandbox, the protected-path policy, the launch validator, the clipboard
// mirror and the OS clipboard bridge, and exposes the message surface the
// client drives. Every filesystem operation is validated against the sandbox
// and the policy before it touches disk.
package core

import (
	"context"

	"mdview/pkg/clipboard"
	"mdview/pkg/config"
	"mdview/pkg/history"
	"mdview/pkg/launch"
	"mdview/pkg/logger"
	"mdview/pkg/mirror"
	"mdview/pkg/sandbox"

	"github.com/rs/zerolog"
)

// Recorder receives successful opens. A nil Recorder disables recording.
type Recorder interface {
	Record(path string, kind history.Kind) error
}

type Core struct {
	sandbox   *sandbox.Sandbox
	policy    *sandbox.Policy
	validator *sandbox.Validator
	launch    *launch.Validator
	mirror    *mirror.Mirror
	bridge    *clipboard.Bridge
	recorder  Recorder
	log       zerolog.Logger
}

// New builds a Core with an empty sandbox. bridge may be nil when the host
// has no clipboard; clipboard calls then report no files.
func New(cfg *config.Config, bridge *clipboard.Bridge) *Core {
	if cfg == nil {
		cfg = config.Default()
	}
	sb := sandbox.New()
	policy := sandbox.DefaultPolicy()
	return &Core{
		sandbox:   sb,
		policy:    policy,
		validator: sandbox.NewValidator(sb, policy),
		launch:    launch.NewValidator(cfg.Launch),
		mirror:    mirror.New(),
		bridge:    bridge,
		log:       logger.With("core"),
	}
}

// SetRecorder attaches the history store used for successful opens.
func (c *Core) SetRecorder(r Recorder) {
	c.recorder = r
}

func (c *Core) Validator() *sandbox.Validator {
	return c.validator
}

// Reset drops the sandbox root and the mirrored selection.
func (c *Core) Reset() {
	c.sandbox.Reset()
	c.mirror.Clear()
}

// SetSandboxRoot replaces the workspace root. The caller is a trusted folder
// picker, so the path is normalized but not otherwise checked.
func (c *Core) SetSandboxRoot(ctx context.Context, path string) error {
	if err := c.sandbox.SetRoot(path); err != nil {
		return err
	}
	root, _ := c.sandbox.Root()
	c.log.Info().Str("root", root).Msg("workspace root set")
	c.record(root, history.KindDirectory)
	return nil
}

func (c *Core) GetSandboxRoot(ctx context.Context) (string, bool) {
	return c.sandbox.Root()
}

func (c *Core) ValidateLaunchArgument(ctx context.Context, raw string) launch.Result {
	result := c.launch.Validate(raw)
	switch result.Kind {
	case launch.KindMdFile:
		c.record(result.Path, history.KindFile)
	case launch.KindDirectory:
		c.record(result.Path, history.KindDirectory)
	}
	return result
}

// SyncClipboardMirror stores the client's staged selection as is.
func (c *Core) SyncClipboardMirror(ctx context.Context, files []string, mode mirror.Mode) error {
	c.mirror.Sync(files, mode)
	return nil
}

func (c *Core) GetClipboardMirror(ctx context.Context) mirror.State {
	return c.mirror.Snapshot()
}

func (c *Core) ReadOSClipboardFiles(ctx context.Context) []clipboard.Entry {
	if c.bridge == nil {
		return []clipboard.Entry{}
	}
	return c.bridge.Read()
}

func (c *Core) WriteOSClipboardFiles(ctx context.Context, paths []string, isCut bool) bool {
	if c.bridge == nil {
		return false
	}
	return c.bridge.Write(paths, isCut)
}

func (c *Core) HasOSClipboardFiles(ctx context.Context) bool {
	return c.bridge != nil && c.bridge.HasFiles()
}

func (c *Core) ClearOSClipboard(ctx context.Context) {
	if c.bridge != nil {
		c.bridge.Clear()
	}
}

func (c *Core) record(path string, kind history.Kind) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(path, kind); err != nil {
		c.log.Debug().Err(err).Str("path", path).Msg("history record failed")
	}
}
