// Package clipboard bridges the operating system's native file clipboard.
// Each platform stores file lists in its own wire format: a property-list
// array on macOS, a NUL-separated UTF-16LE buffer on Windows, and a
// text/uri-list style file:// list on Linux. A Codec knows one format; a
// Pasteboard knows how to move raw bytes in and out of the system clipboard.
// The Bridge pairs the two, picked once at startup, and filters every read
// through the protected-path policy.
//
// Clipboard access is advisory. Reads never fail (an error reads as "no
// files") and writes report success as a bool.
package clipboard

import (
	stderrors "errors"
	"os"
	"time"

	"mdview/pkg/errors"
	"mdview/pkg/logger"
	"mdview/pkg/sandbox"

	"github.com/rs/zerolog"
)

// FormatText is the key Pasteboard implementations use for plain UTF-8 text.
const FormatText = "text/plain"

// ErrFormatUnavailable is returned by ReadBuffer when the clipboard holds no
// data for the requested format.
var ErrFormatUnavailable = stderrors.New("clipboard: format not available")

const (
	ReasonMissing   = "file does not exist"
	ReasonProtected = "protected system path"
)

type Entry struct {
	Path      string `json:"path" yaml:"path"`
	Exists    bool   `json:"exists" yaml:"exists"`
	IsAllowed bool   `json:"isAllowed" yaml:"is_allowed"`
	Reason    string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Pasteboard is raw access to one system clipboard.
type Pasteboard interface {
	// ReadBuffer returns the bytes stored under a named format.
	ReadBuffer(format string) ([]byte, error)
	ReadText() (string, error)
	// Write replaces the clipboard contents with every format in items at
	// once. The FormatText key carries plain text.
	Write(items map[string][]byte) error
	Clear() error
}

// Codec encodes and decodes one platform's file-list wire format.
type Codec interface {
	Name() string
	Decode(pb Pasteboard) ([]string, error)
	Encode(paths []string, isCut bool) map[string][]byte
	// Has is a cheap presence probe that skips full decoding.
	Has(pb Pasteboard) bool
}

type Bridge struct {
	codec   Codec
	pb      Pasteboard
	policy  *sandbox.Policy
	timeout time.Duration
	log     zerolog.Logger
}

func NewBridge(codec Codec, pb Pasteboard, policy *sandbox.Policy, timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &Bridge{
		codec:   codec,
		pb:      pb,
		policy:  policy,
		timeout: timeout,
		log:     logger.With("clipboard"),
	}
}

// Codec returns the codec chosen for this bridge.
func (b *Bridge) Codec() Codec {
	return b.codec
}

// Read decodes the file list currently on the clipboard and annotates each
// path with existence and policy status. Failures yield an empty list.
func (b *Bridge) Read() []Entry {
	paths, err := race(b.timeout, func() ([]string, error) {
		return b.codec.Decode(b.pb)
	})
	if err != nil {
		b.log.Debug().Err(err).Str("codec", b.codec.Name()).Msg("clipboard read failed")
		return []Entry{}
	}

	seen := make(map[string]bool, len(paths))
	entries := make([]Entry, 0, len(paths))
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		entries = append(entries, b.classify(p))
	}
	return entries
}

func (b *Bridge) classify(p string) Entry {
	entry := Entry{Path: p}
	if _, err := os.Stat(p); err == nil {
		entry.Exists = true
	}
	protected := b.policy.IsProtected(p)

	switch {
	case !entry.Exists:
		entry.Reason = ReasonMissing
	case protected:
		entry.Reason = ReasonProtected
	default:
		entry.IsAllowed = true
	}
	return entry
}

// Write puts the existing subset of paths on the clipboard. It returns false
// without touching the clipboard when none of them exist.
func (b *Bridge) Write(paths []string, isCut bool) bool {
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		b.log.Debug().Int("requested", len(paths)).Msg("clipboard write skipped: no existing files")
		return false
	}

	items := b.codec.Encode(existing, isCut)
	_, err := race(b.timeout, func() (struct{}, error) {
		return struct{}{}, b.pb.Write(items)
	})
	if err != nil {
		b.log.Warn().Err(err).Str("codec", b.codec.Name()).Int("files", len(existing)).Msg("clipboard write failed")
		return false
	}
	b.log.Debug().Int("files", len(existing)).Bool("cut", isCut).Msg("clipboard written")
	return true
}

func (b *Bridge) HasFiles() bool {
	has, err := race(b.timeout, func() (bool, error) {
		return b.codec.Has(b.pb), nil
	})
	return err == nil && has
}

// Clear empties the clipboard.
func (b *Bridge) Clear() {
	_, err := race(b.timeout, func() (struct{}, error) {
		return struct{}{}, b.pb.Clear()
	})
	if err != nil {
		b.log.Warn().Err(err).Msg("clipboard clear failed")
	}
}

// race runs fn against a timer. A call that outlives the timer is abandoned
// and reported as a timeout; its goroutine finishes on its own.
func race[T any](timeout time.Duration, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.v, r.err
	case <-timer.C:
		var zero T
		return zero, errors.TimeoutError("clipboard access")
	}
}
