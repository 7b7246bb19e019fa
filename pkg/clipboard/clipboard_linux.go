//go:build linux

package clipboard

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"syscall"

	"mdview/pkg/clipboard/internal/wayland"

	atotto "github.com/atotto/clipboard"
)

// ServeCommand is the hidden subcommand that owns a Wayland selection.
const ServeCommand = "__clipboard-serve"

// nativePasteboard reads plain text through atotto (xclip, xsel or
// wl-paste). On Wayland writes spawn a selection owner offering every
// format, so file managers see text/uri-list; on X11 only text is written.
type nativePasteboard struct{}

func newNativePasteboard() (Pasteboard, error) {
	if atotto.Unsupported && os.Getenv("WAYLAND_DISPLAY") == "" {
		return nil, errUnsupported
	}
	return nativePasteboard{}, nil
}

func (nativePasteboard) ReadBuffer(format string) ([]byte, error) {
	if format == FormatText {
		text, err := atotto.ReadAll()
		return []byte(text), err
	}
	return nil, ErrFormatUnavailable
}

func (nativePasteboard) ReadText() (string, error) {
	return atotto.ReadAll()
}

func (nativePasteboard) Write(items map[string][]byte) error {
	if os.Getenv("WAYLAND_DISPLAY") == "" {
		return atotto.WriteAll(string(items[FormatText]))
	}
	return spawnClipboardServer(waylandOffers(items))
}

func (nativePasteboard) Clear() error {
	return atotto.WriteAll("")
}

// waylandOffers adds the text aliases that X11-era clients still request.
func waylandOffers(items map[string][]byte) map[string][]byte {
	offers := make(map[string][]byte, len(items)+4)
	for format, data := range items {
		offers[format] = data
	}
	if text, ok := items[FormatText]; ok {
		offers["text/plain;charset=utf-8"] = text
		offers["UTF8_STRING"] = text
		offers["STRING"] = text
		offers["TEXT"] = text
	}
	return offers
}

type servePayload struct {
	Formats map[string][]byte `json:"formats"`
}

func spawnClipboardServer(formats map[string][]byte) error {
	payload, err := json.Marshal(servePayload{Formats: formats})
	if err != nil {
		return err
	}

	// Re-exec this binary as a detached selection owner.
	cmd := exec.Command(os.Args[0], ServeCommand)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return cmd.Start()
}

// ServeClipboard runs the Wayland selection owner for the payload read from
// r, blocking until another client takes the selection.
func ServeClipboard(r *os.File) error {
	var payload servePayload
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return err
	}
	return wayland.Serve(payload.Formats)
}
