// Package launch validates untrusted paths handed to the application from
// outside: command-line arguments, "open with" requests and file URLs.
package launch

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"mdview/pkg/config"
	"mdview/pkg/logger"
)

const MaxArgumentLength = 4096

type Kind string

const (
	KindMdFile    Kind = "md_file"
	KindDirectory Kind = "directory"
	KindInvalid   Kind = "invalid"
)

// Reasons reported for invalid arguments. Each failure stage has its own.
const (
	ReasonEmpty              = "empty path"
	ReasonTooLong            = "path exceeds maximum length"
	ReasonNullByte           = "path contains a NUL byte"
	ReasonTraversal          = "path contains a parent-directory traversal"
	ReasonBadURL             = "malformed file URL"
	ReasonResolve            = "path cannot be resolved"
	ReasonNotFound           = "file not found"
	ReasonPermission         = "permission denied"
	ReasonStat               = "cannot access path"
	ReasonNotMarkdown        = "not a markdown file"
	ReasonTooLarge           = "file exceeds maximum size"
	ReasonSymlinkResolve     = "cannot resolve symlink"
	ReasonSymlinkNotMarkdown = "symlink target is not a markdown file"
	ReasonUnsupported        = "unsupported file type"
)

type Result struct {
	Valid bool   `json:"valid" yaml:"valid"`
	Kind  Kind   `json:"kind" yaml:"kind"`
	Path  string `json:"path,omitempty" yaml:"path,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

func invalid(reason string) Result {
	return Result{Kind: KindInvalid, Error: reason}
}

type Validator struct {
	extensions  map[string]bool
	maxFileSize int64
}

func NewValidator(cfg config.LaunchConfig) *Validator {
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = config.DefaultExtensions
	}
	v := &Validator{
		extensions:  make(map[string]bool, len(exts)),
		maxFileSize: cfg.MaxFileSize,
	}
	if v.maxFileSize <= 0 {
		v.maxFileSize = config.DefaultMaxFileSize
	}
	for _, ext := range exts {
		v.extensions[strings.ToLower(ext)] = true
	}
	return v
}

// IsMarkdown reports whether name carries an allowed extension.
func (v *Validator) IsMarkdown(name string) bool {
	return v.extensions[strings.ToLower(filepath.Ext(name))]
}

// Validate runs raw through the launch pipeline. It stops at the first
// failing stage and never touches the filesystem before the lexical checks
// pass.
func (v *Validator) Validate(raw string) Result {
	result := v.validate(raw)
	if !result.Valid {
		logger.Warn().
			Int("length", len(raw)).
			Str("reason", result.Error).
			Msg("launch argument rejected")
	}
	return result
}

func (v *Validator) validate(raw string) Result {
	if raw == "" {
		return invalid(ReasonEmpty)
	}
	if len(raw) > MaxArgumentLength {
		return invalid(ReasonTooLong)
	}
	if strings.ContainsRune(raw, 0) {
		return invalid(ReasonNullByte)
	}

	candidate := raw
	if strings.HasPrefix(strings.ToLower(raw), "file://") {
		decoded, err := pathFromFileURL(raw)
		if err != nil {
			return invalid(ReasonBadURL)
		}
		if strings.ContainsRune(decoded, 0) {
			return invalid(ReasonNullByte)
		}
		candidate = decoded
	}

	if hasTraversal(candidate) {
		return invalid(ReasonTraversal)
	}

	normalized, err := filepath.Abs(candidate)
	if err != nil {
		return invalid(ReasonResolve)
	}

	info, err := os.Stat(normalized)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			return invalid(ReasonNotFound)
		case os.IsPermission(err):
			return invalid(ReasonPermission)
		default:
			return invalid(ReasonStat)
		}
	}

	switch {
	case info.Mode().IsRegular():
		return v.validateFile(normalized, info)
	case info.IsDir():
		return Result{Valid: true, Kind: KindDirectory, Path: normalized}
	default:
		return invalid(ReasonUnsupported)
	}
}

func (v *Validator) validateFile(normalized string, info os.FileInfo) Result {
	if !v.IsMarkdown(normalized) {
		return invalid(ReasonNotMarkdown)
	}
	if info.Size() > v.maxFileSize {
		return invalid(fmt.Sprintf("%s (%d bytes > %d bytes)", ReasonTooLarge, info.Size(), v.maxFileSize))
	}

	// A .md-named symlink may point at anything; the real target must pass
	// the same allow-list.
	realPath, err := filepath.EvalSymlinks(normalized)
	if err != nil {
		return invalid(ReasonSymlinkResolve)
	}
	if !v.IsMarkdown(realPath) {
		return invalid(ReasonSymlinkNotMarkdown)
	}
	return Result{Valid: true, Kind: KindMdFile, Path: realPath}
}

func hasTraversal(p string) bool {
	for _, seg := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}

func pathFromFileURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("remote host %q", u.Host)
	}
	p := u.Path
	if p == "" {
		return "", fmt.Errorf("empty path")
	}
	// file:///C:/Users/... on windows
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p), nil
}
