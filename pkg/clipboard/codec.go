package clipboard

import (
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"howett.net/plist"
)

// Native format names.
const (
	FormatMacFilenames = "NSFilenamesPboardType"
	FormatWindowsFileW = "FileNameW"
	FormatURIList      = "text/uri-list"
	FormatGnomeCopied  = "x-special/gnome-copied-files"
)

const (
	fileURLPrefix   = "file://"
	platformMac     = "darwin"
	platformWindows = "windows"
	platformLinux   = "linux"
)

// DefaultCodec returns the codec for the running OS.
func DefaultCodec() Codec {
	return CodecFor(runtime.GOOS)
}

// CodecFor returns the codec for goos. Systems other than darwin and windows
// use the uri-list convention.
func CodecFor(goos string) Codec {
	switch goos {
	case platformMac:
		return macCodec{}
	case platformWindows:
		return windowsCodec{}
	default:
		return uriListCodec{}
	}
}

// macCodec reads the NSFilenamesPboardType property-list array and falls
// back to a file:// text list. Writes carry both.
type macCodec struct{}

func (macCodec) Name() string { return platformMac }

func (macCodec) Decode(pb Pasteboard) ([]string, error) {
	if data, err := pb.ReadBuffer(FormatMacFilenames); err == nil && len(data) > 0 {
		return DecodePlist(data)
	}
	text, err := pb.ReadText()
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(text, fileURLPrefix) {
		return nil, nil
	}
	return decodeURILines(text), nil
}

func (macCodec) Encode(paths []string, isCut bool) map[string][]byte {
	items := map[string][]byte{
		FormatText: []byte(EncodeURIList(paths)),
	}
	if data, err := EncodePlist(paths); err == nil {
		items[FormatMacFilenames] = data
	}
	return items
}

func (macCodec) Has(pb Pasteboard) bool {
	if data, err := pb.ReadBuffer(FormatMacFilenames); err == nil && len(data) > 0 {
		return true
	}
	text, err := pb.ReadText()
	return err == nil && strings.HasPrefix(text, fileURLPrefix)
}

// windowsCodec reads the FileNameW buffer. Writes are plain newline-joined
// paths; native CF_HDROP output is not produced, so reads fall back to
// absolute-path text lines when the buffer is absent.
type windowsCodec struct{}

func (windowsCodec) Name() string { return platformWindows }

func (windowsCodec) Decode(pb Pasteboard) ([]string, error) {
	if data, err := pb.ReadBuffer(FormatWindowsFileW); err == nil && len(data) > 0 {
		return DecodeFileNameW(data)
	}
	text, err := pb.ReadText()
	if err != nil {
		return nil, err
	}
	return decodePathLines(text), nil
}

func (windowsCodec) Encode(paths []string, isCut bool) map[string][]byte {
	return map[string][]byte{
		FormatText: []byte(strings.Join(paths, "\n")),
	}
}

func (windowsCodec) Has(pb Pasteboard) bool {
	if data, err := pb.ReadBuffer(FormatWindowsFileW); err == nil && len(data) >= 2 {
		return true
	}
	text, err := pb.ReadText()
	return err == nil && len(decodePathLines(text)) > 0
}

// uriListCodec follows the text/uri-list convention used by Linux desktops.
type uriListCodec struct{}

func (uriListCodec) Name() string { return platformLinux }

func (uriListCodec) Decode(pb Pasteboard) ([]string, error) {
	text, err := pb.ReadText()
	if err != nil {
		return nil, err
	}
	return decodeURILines(text), nil
}

func (uriListCodec) Encode(paths []string, isCut bool) map[string][]byte {
	list := EncodeURIList(paths)
	verb := "copy"
	if isCut {
		verb = "cut"
	}
	return map[string][]byte{
		FormatText:        []byte(list),
		FormatURIList:     []byte(strings.ReplaceAll(list, "\n", "\r\n") + "\r\n"),
		FormatGnomeCopied: []byte(verb + "\n" + list),
	}
}

func (uriListCodec) Has(pb Pasteboard) bool {
	text, err := pb.ReadText()
	return err == nil && strings.Contains(text, fileURLPrefix)
}

// EncodePlist renders paths as an XML property-list string array.
func EncodePlist(paths []string) ([]byte, error) {
	if paths == nil {
		paths = []string{}
	}
	return plist.Marshal(paths, plist.XMLFormat)
}

// DecodePlist parses an XML or binary property-list string array.
func DecodePlist(data []byte) ([]string, error) {
	var paths []string
	if _, err := plist.Unmarshal(data, &paths); err != nil {
		return nil, fmt.Errorf("decode %s: %w", FormatMacFilenames, err)
	}
	return paths, nil
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// DecodeFileNameW splits a UTF-16LE buffer on NUL and drops empty entries,
// including the trailing ones left by the double-NUL terminator.
func DecodeFileNameW(data []byte) ([]string, error) {
	if len(data)%2 == 1 {
		data = data[:len(data)-1]
	}
	decoded, err := utf16le.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", FormatWindowsFileW, err)
	}
	var paths []string
	for _, p := range strings.Split(string(decoded), "\x00") {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// EncodeFileURL returns "file://" followed by the percent-encoded absolute
// path. Windows drive paths gain the leading slash of file:///C:/...
func EncodeFileURL(p string) string {
	slashed := strings.ReplaceAll(p, `\`, "/")
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	u := url.URL{Scheme: "file", Path: slashed}
	return u.String()
}

// DecodeFileURL reverses EncodeFileURL. The returned path uses the host
// separator.
func DecodeFileURL(raw string) (string, bool) {
	if !strings.HasPrefix(raw, fileURLPrefix) {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return "", false
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", false
	}
	p := u.Path
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p), true
}

// EncodeURIList joins the file URLs of paths with newlines.
func EncodeURIList(paths []string) string {
	lines := make([]string, 0, len(paths))
	for _, p := range paths {
		lines = append(lines, EncodeFileURL(p))
	}
	return strings.Join(lines, "\n")
}

// decodeURILines keeps only file:// lines of text, tolerating CRLF and
// uri-list comments.
func decodeURILines(text string) []string {
	var paths []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if p, ok := DecodeFileURL(line); ok {
			paths = append(paths, p)
		}
	}
	return paths
}

// decodePathLines accepts file:// lines and bare absolute paths.
func decodePathLines(text string) []string {
	var paths []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if p, ok := DecodeFileURL(line); ok {
			paths = append(paths, p)
			continue
		}
		if isAbsolutePath(line) {
			paths = append(paths, line)
		}
	}
	return paths
}

func isAbsolutePath(p string) bool {
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\\`) {
		return true
	}
	if len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/') {
		c := p[0]
		return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
	}
	return false
}
