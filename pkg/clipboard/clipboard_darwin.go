//go:build darwin

package clipboard

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"strings"

	atotto "github.com/atotto/clipboard"
)

const ServeCommand = "__clipboard-serve"

// NSPasteboard access goes through JavaScript for Automation so the binary
// stays cgo-free. Payloads cross the process boundary as base64.
const (
	jxaReadBuffer = `ObjC.import('AppKit');
function run(argv) {
  var d = $.NSPasteboard.generalPasteboard.dataForType($(argv[0]));
  if (d.isNil()) { return ''; }
  return d.base64EncodedStringWithOptions(0).js;
}`

	jxaWrite = `ObjC.import('AppKit');
function run(argv) {
  var pb = $.NSPasteboard.generalPasteboard;
  pb.clearContents;
  for (var i = 0; i + 1 < argv.length; i += 2) {
    var data = $.NSData.alloc.initWithBase64EncodedStringOptions($(argv[i + 1]), 0);
    pb.setDataForType(data, $(argv[i]));
  }
  return '';
}`

	jxaClear = `ObjC.import('AppKit');
function run(argv) { $.NSPasteboard.generalPasteboard.clearContents; return ''; }`

	utiPlainText = "public.utf8-plain-text"
)

type nativePasteboard struct{}

func newNativePasteboard() (Pasteboard, error) {
	if _, err := exec.LookPath("osascript"); err != nil {
		return nil, errUnsupported
	}
	return nativePasteboard{}, nil
}

func runJXA(script string, args ...string) (string, error) {
	argv := append([]string{"-l", "JavaScript", "-e", script}, args...)
	cmd := exec.Command("osascript", argv...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("osascript: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(string(out)), nil
}

func (nativePasteboard) ReadBuffer(format string) ([]byte, error) {
	encoded, err := runJXA(jxaReadBuffer, format)
	if err != nil {
		return nil, err
	}
	if encoded == "" {
		return nil, ErrFormatUnavailable
	}
	return base64.StdEncoding.DecodeString(encoded)
}

func (nativePasteboard) ReadText() (string, error) {
	return atotto.ReadAll()
}

func (nativePasteboard) Write(items map[string][]byte) error {
	args := make([]string, 0, len(items)*2)
	for format, data := range items {
		if format == FormatText {
			format = utiPlainText
		}
		args = append(args, format, base64.StdEncoding.EncodeToString(data))
	}
	_, err := runJXA(jxaWrite, args...)
	return err
}

func (nativePasteboard) Clear() error {
	_, err := runJXA(jxaClear)
	return err
}

// ServeClipboard is not used on macOS.
func ServeClipboard(r *os.File) error {
	return nil
}
