package clipboard

import (
	stderrors "errors"

	"mdview/pkg/logger"
)

var errUnsupported = stderrors.New("clipboard: no native clipboard available on this host")

const (
	BackendAuto   = "auto"
	BackendMemory = "memory"
)

// NewPasteboard returns the pasteboard for backend. "auto" picks the native
// clipboard and falls back to memory when the host has none.
func NewPasteboard(backend string) Pasteboard {
	if backend == BackendMemory {
		return NewMemoryPasteboard()
	}
	pb, err := newNativePasteboard()
	if err != nil {
		logger.Warn().Err(err).Msg("falling back to in-memory clipboard")
		return NewMemoryPasteboard()
	}
	return pb
}
