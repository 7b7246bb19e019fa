// Package ipc carries the core's message surface between the client and a
// trusted core process. Frames are single-line JSON objects: a request
// {id, method, params} answered by a response {id, result, error}. Request
// ids are random UUIDs.
package ipc

import (
	"encoding/json"
	stderrors "errors"

	"mdview/pkg/errors"
	"mdview/pkg/mirror"
)

// Method names.
const (
	MethodSetSandboxRoot         = "setSandboxRoot"
	MethodGetSandboxRoot         = "getSandboxRoot"
	MethodValidateLaunchArgument = "validateLaunchArgument"
	MethodSyncClipboardMirror    = "syncClipboardMirror"
	MethodGetClipboardMirror     = "getClipboardMirror"
	MethodReadOSClipboardFiles   = "readOSClipboardFiles"
	MethodWriteOSClipboardFiles  = "writeOSClipboardFiles"
	MethodHasOSClipboardFiles    = "hasOSClipboardFiles"
	MethodClearOSClipboard       = "clearOSClipboard"
	MethodCopyFile               = "copyFile"
	MethodCopyDirRecursive       = "copyDirRecursive"
	MethodMoveFile               = "moveFile"
	MethodPathExists             = "pathExists"
	MethodIsDirectory            = "isDirectory"
)

// maxFrameSize bounds one JSON line.
const maxFrameSize = 4 << 20

type Request struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorBody      `json:"error,omitempty"`
}

type ErrorBody struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// toBody flattens err for the wire, keeping its exit code.
func toBody(err error) *ErrorBody {
	body := &ErrorBody{Code: int(errors.CodeOf(err)), Message: err.Error()}
	var e *errors.Error
	if stderrors.As(err, &e) {
		body.Suggestion = e.Suggestion
	}
	return body
}

// toError rebuilds the error a server reported. The message is kept
// verbatim so callers can show it as is.
func (b *ErrorBody) toError() error {
	return &errors.Error{
		Code:       errors.ExitCode(b.Code),
		Message:    b.Message,
		Suggestion: b.Suggestion,
	}
}

type pathParams struct {
	Path string `json:"path"`
}

type rawParams struct {
	Raw string `json:"raw"`
}

type transferParams struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
}

type mirrorParams struct {
	Files []string    `json:"files"`
	Mode  mirror.Mode `json:"mode"`
}

type clipboardWriteParams struct {
	Paths []string `json:"paths"`
	IsCut bool     `json:"isCut"`
}
