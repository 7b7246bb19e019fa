package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mdview/pkg/logger"

	"github.com/fatih/color"
)

type ExitCode int

const (
	ExitCodeSuccess          ExitCode = 0
	ExitCodeGeneral          ExitCode = 1
	ExitCodeConfig           ExitCode = 2
	ExitCodeValidation       ExitCode = 3
	ExitCodeFileOperation    ExitCode = 4
	ExitCodeSandboxViolation ExitCode = 5
	ExitCodeProtectedPath    ExitCode = 6
	ExitCodeLaunchInvalid    ExitCode = 7
	ExitCodePaste            ExitCode = 8
	ExitCodeIPC              ExitCode = 9
	ExitCodeTimeout          ExitCode = 10
)

// User-facing messages for trust-boundary failures. They never name the rule
// that matched.
const (
	ErrMsgOutsideWorkspace = "access denied: path is outside the workspace"
	ErrMsgProtectedPath    = "access denied: protected path"
	ErrMsgNoWorkspace      = "access denied: no workspace folder is open"
	ErrMsgInvalidInput     = "invalid input provided"
)

type Error struct {
	Code       ExitCode
	Message    string
	Underlying error
	Suggestion string
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

func New(code ExitCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func NewWithError(code ExitCode, message string, err error) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
	}
}

func NewWithSuggestion(code ExitCode, message string, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	var wrapped *Error
	if stderrors.As(err, &wrapped) {
		return &Error{
			Code:       wrapped.Code,
			Message:    message + ": " + wrapped.Message,
			Underlying: wrapped.Underlying,
			Suggestion: wrapped.Suggestion,
		}
	}

	return &Error{
		Code:       ExitCodeGeneral,
		Message:    message,
		Underlying: err,
	}
}

// CodeOf returns the exit code carried by err, or ExitCodeGeneral when err
// carries none.
func CodeOf(err error) ExitCode {
	if err == nil {
		return ExitCodeSuccess
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ExitCodeGeneral
}

func IsExitCode(err error, code ExitCode) bool {
	if err == nil {
		return false
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// SandboxViolation is returned when a path resolves outside the workspace
// root, or when no root has been set.
func SandboxViolation(noRoot bool) *Error {
	if noRoot {
		return &Error{
			Code:       ExitCodeSandboxViolation,
			Message:    ErrMsgNoWorkspace,
			Suggestion: "Open a folder first; file operations are limited to the open workspace.",
		}
	}
	return &Error{
		Code:    ExitCodeSandboxViolation,
		Message: ErrMsgOutsideWorkspace,
	}
}

func ProtectedPathViolation() *Error {
	return &Error{
		Code:    ExitCodeProtectedPath,
		Message: ErrMsgProtectedPath,
	}
}

func IsSandboxViolation(err error) bool {
	return IsExitCode(err, ExitCodeSandboxViolation)
}

func IsProtectedPathViolation(err error) bool {
	return IsExitCode(err, ExitCodeProtectedPath)
}

// IsSecurityViolation reports whether err is either trust-boundary failure.
func IsSecurityViolation(err error) bool {
	return IsSandboxViolation(err) || IsProtectedPathViolation(err)
}

func ValidationError(message string) *Error {
	return &Error{
		Code:    ExitCodeValidation,
		Message: message,
	}
}

func ConfigError(message string) *Error {
	return &Error{
		Code:       ExitCodeConfig,
		Message:    message,
		Suggestion: "Check your configuration file (mdview config path) or the MDVIEW_* environment variables.",
	}
}

func FileOperationError(op string, err error) *Error {
	return &Error{
		Code:       ExitCodeFileOperation,
		Message:    op + " failed",
		Underlying: err,
	}
}

func TimeoutError(operation string) *Error {
	return &Error{
		Code:    ExitCodeTimeout,
		Message: fmt.Sprintf("operation timed out: %s", operation),
	}
}

// HandleReturn renders err to stderr and returns the exit code for it. It
// does not call os.Exit.
func HandleReturn(err error) ExitCode {
	return render(os.Stderr, err)
}

func render(w io.Writer, err error) ExitCode {
	if err == nil {
		return ExitCodeSuccess
	}

	exitCode := ExitCodeGeneral
	message := err.Error()
	var suggestion string

	var e *Error
	if stderrors.As(err, &e) {
		exitCode = e.Code
		message = e.Error()
		suggestion = e.Suggestion
		if e.Underlying != nil {
			logger.Debug().Err(e.Underlying).Int("code", int(e.Code)).Msg(e.Message)
		}
	}

	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	fmt.Fprintln(w)
	red.Fprint(w, "Error: ")
	lines := strings.Split(message, "\n")
	fmt.Fprintln(w, lines[0])
	for _, line := range lines[1:] {
		cyan.Fprintln(w, "  - "+line)
	}

	if suggestion != "" {
		yellow.Fprint(w, "Suggestion: ")
		fmt.Fprintln(w, suggestion)
	}

	fmt.Fprintln(w)

	return exitCode
}
