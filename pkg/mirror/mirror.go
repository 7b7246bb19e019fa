// Package mirror keeps the trusted core's copy of the client's staged
// clipboard selection. It only feeds UI affordances such as "enable paste";
// the client owns the real selection, and nothing here may authorize a file
// operation.
package mirror

import "sync"

type Mode string

const (
	ModeNone Mode = ""
	ModeCopy Mode = "copy"
	ModeCut  Mode = "cut"
)

// Valid reports whether m names a staging mode.
func (m Mode) Valid() bool {
	return m == ModeCopy || m == ModeCut
}

type State struct {
	Files    []string `json:"files" yaml:"files"`
	Mode     Mode     `json:"mode" yaml:"mode"`
	HasFiles bool     `json:"hasFiles" yaml:"has_files"`
}

type Mirror struct {
	mu    sync.RWMutex
	files []string
	mode  Mode
}

func New() *Mirror {
	return &Mirror{}
}

// Sync replaces the cached selection. The client is trusted here; no
// validation happens.
func (m *Mirror) Sync(files []string, mode Mode) {
	copied := append([]string(nil), files...)

	m.mu.Lock()
	m.files = copied
	m.mode = mode
	m.mu.Unlock()
}

func (m *Mirror) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return State{
		Files:    append([]string{}, m.files...),
		Mode:     m.mode,
		HasFiles: len(m.files) > 0,
	}
}

func (m *Mirror) Clear() {
	m.mu.Lock()
	m.files = nil
	m.mode = ModeNone
	m.mu.Unlock()
}
