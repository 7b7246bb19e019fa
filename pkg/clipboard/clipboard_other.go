//go:build !linux && !darwin && !windows

package clipboard

import (
	"os"

	atotto "github.com/atotto/clipboard"
)

const ServeCommand = "__clipboard-serve"

// nativePasteboard supports plain text only.
type nativePasteboard struct{}

func newNativePasteboard() (Pasteboard, error) {
	if atotto.Unsupported {
		return nil, errUnsupported
	}
	return nativePasteboard{}, nil
}

func (nativePasteboard) ReadBuffer(format string) ([]byte, error) {
	return nil, ErrFormatUnavailable
}

func (nativePasteboard) ReadText() (string, error) {
	return atotto.ReadAll()
}

func (nativePasteboard) Write(items map[string][]byte) error {
	return atotto.WriteAll(string(items[FormatText]))
}

func (nativePasteboard) Clear() error {
	return atotto.WriteAll("")
}

// ServeClipboard is not used on this platform.
func ServeClipboard(r *os.File) error {
	return nil
}
