// Package sandbox implements the workspace trust boundary: a single allowed
// root directory, a static denylist of protected system and credential
// paths, and the validator that composes both before any disclosive or
// destructive file operation.
package sandbox

import (
	"path/filepath"
	"strings"
	"sync/atomic"

	"mdview/pkg/errors"
)

// Sandbox holds the one allowed root. The root is replaced wholesale and
// never merged.
type Sandbox struct {
	root atomic.Pointer[string]
}

func New() *Sandbox {
	return &Sandbox{}
}

// SetRoot normalizes path and replaces the current root. Callers are trusted
// pickers; no existence check is made here.
func (s *Sandbox) SetRoot(path string) error {
	normalized, err := Normalize(path)
	if err != nil {
		return err
	}
	s.root.Store(&normalized)
	return nil
}

// Root returns the current root and whether one is set.
func (s *Sandbox) Root() (string, bool) {
	p := s.root.Load()
	if p == nil {
		return "", false
	}
	return *p, true
}

// IsWithin reports whether candidate, after resolving . and .. segments, is
// the root itself or lies beneath it.
func (s *Sandbox) IsWithin(candidate string) bool {
	root, ok := s.Root()
	if !ok {
		return false
	}
	normalized, err := Normalize(candidate)
	if err != nil {
		return false
	}
	return Contains(root, normalized)
}

// Reset clears the root.
func (s *Sandbox) Reset() {
	s.root.Store(nil)
}

// Normalize returns the absolute, cleaned form of path.
func Normalize(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.ValidationError("empty path")
	}
	return filepath.Abs(path)
}

// Contains reports whether candidate equals root or has root+separator as a
// prefix. Both arguments must already be normalized.
func Contains(root, candidate string) bool {
	if candidate == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(candidate, prefix)
}
