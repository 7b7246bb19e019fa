package sandbox

import (
	"os"
	"path/filepath"

	"mdview/pkg/errors"
	"mdview/pkg/logger"
)

// Validator is the single gate run before any operation that discloses or
// mutates a path.
type Validator struct {
	sandbox *Sandbox
	policy  *Policy
}

func NewValidator(sandbox *Sandbox, policy *Policy) *Validator {
	return &Validator{sandbox: sandbox, policy: policy}
}

func (v *Validator) Sandbox() *Sandbox {
	return v.sandbox
}

func (v *Validator) Policy() *Policy {
	return v.policy
}

// AssertAllowed fails unless candidate lies within the current root.
func (v *Validator) AssertAllowed(candidate string) error {
	root, ok := v.sandbox.Root()
	if !ok {
		return errors.SandboxViolation(true)
	}
	normalized, err := Normalize(candidate)
	if err != nil {
		return errors.SandboxViolation(false)
	}
	if !Contains(root, normalized) {
		logger.Warn().Str("path", normalized).Msg("path outside workspace rejected")
		return errors.SandboxViolation(false)
	}

	// A symlink inside the root may still lead outside it.
	resolvedRoot := ResolveExisting(root)
	resolved := ResolveExisting(normalized)
	if !Contains(resolvedRoot, resolved) {
		logger.Warn().Str("path", normalized).Str("resolved", resolved).Msg("symlink escape rejected")
		return errors.SandboxViolation(false)
	}
	return nil
}

// AssertNotProtected fails if candidate, or the path it resolves to, matches
// the protected-path policy.
func (v *Validator) AssertNotProtected(candidate string) error {
	if rule, ok := v.policy.Match(candidate); ok {
		logger.Warn().Str("path", candidate).Str("rule", rule.Kind.String()).Msg("protected path rejected")
		return errors.ProtectedPathViolation()
	}
	if normalized, err := Normalize(candidate); err == nil {
		if resolved := ResolveExisting(normalized); resolved != normalized {
			if rule, ok := v.policy.Match(resolved); ok {
				logger.Warn().Str("path", candidate).Str("rule", rule.Kind.String()).Msg("protected symlink target rejected")
				return errors.ProtectedPathViolation()
			}
		}
	}
	return nil
}

// AssertSecure runs both checks. The protected check runs even inside the
// sandbox because the root itself may point at a sensitive directory.
func (v *Validator) AssertSecure(candidate string) error {
	if err := v.AssertAllowed(candidate); err != nil {
		return err
	}
	return v.AssertNotProtected(candidate)
}

// ResolveExisting evaluates symlinks on the longest existing prefix of p and
// re-appends the remainder, so not-yet-created destinations still resolve
// through their parents.
func ResolveExisting(p string) string {
	var tail []string
	current := p
	for {
		if resolved, err := filepath.EvalSymlinks(current); err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved
		}
		if _, err := os.Lstat(current); err == nil {
			// Exists but cannot be evaluated (dangling link, loop).
			return p
		}
		parent := filepath.Dir(current)
		if parent == current {
			return p
		}
		tail = append(tail, filepath.Base(current))
		current = parent
	}
}
