//go:build windows

package clipboard

import (
	"fmt"
	"os"
	"runtime"
	"syscall"
	"time"
	"unsafe"

	atotto "github.com/atotto/clipboard"
	"golang.org/x/sys/windows"
)

const ServeCommand = "__clipboard-serve"

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procOpenClipboard            = user32.NewProc("OpenClipboard")
	procCloseClipboard           = user32.NewProc("CloseClipboard")
	procEmptyClipboard           = user32.NewProc("EmptyClipboard")
	procGetClipboardData         = user32.NewProc("GetClipboardData")
	procRegisterClipboardFormatW = user32.NewProc("RegisterClipboardFormatW")
	procGlobalLock               = kernel32.NewProc("GlobalLock")
	procGlobalUnlock             = kernel32.NewProc("GlobalUnlock")
	procGlobalSize               = kernel32.NewProc("GlobalSize")
)

// nativePasteboard reads registered formats through user32 and leaves
// text to atotto.
type nativePasteboard struct{}

func newNativePasteboard() (Pasteboard, error) {
	if err := user32.Load(); err != nil {
		return nil, errUnsupported
	}
	return nativePasteboard{}, nil
}

// openClipboard retries briefly; another process may hold the clipboard.
func openClipboard() error {
	var err error
	for i := 0; i < 10; i++ {
		r, _, callErr := procOpenClipboard.Call(0)
		if r != 0 {
			return nil
		}
		err = callErr
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("OpenClipboard: %w", err)
}

func closeClipboard() {
	procCloseClipboard.Call() //nolint:errcheck
}

func (nativePasteboard) ReadBuffer(format string) ([]byte, error) {
	name, err := syscall.UTF16PtrFromString(format)
	if err != nil {
		return nil, err
	}
	id, _, callErr := procRegisterClipboardFormatW.Call(uintptr(unsafe.Pointer(name)))
	if id == 0 {
		return nil, fmt.Errorf("RegisterClipboardFormatW: %w", callErr)
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := openClipboard(); err != nil {
		return nil, err
	}
	defer closeClipboard()

	h, _, _ := procGetClipboardData.Call(id)
	if h == 0 {
		return nil, ErrFormatUnavailable
	}
	ptr, _, callErr := procGlobalLock.Call(h)
	if ptr == 0 {
		return nil, fmt.Errorf("GlobalLock: %w", callErr)
	}
	defer procGlobalUnlock.Call(h) //nolint:errcheck

	size, _, _ := procGlobalSize.Call(h)
	data := make([]byte, size)
	copy(data, unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size))
	return data, nil
}

func (nativePasteboard) ReadText() (string, error) {
	return atotto.ReadAll()
}

func (nativePasteboard) Write(items map[string][]byte) error {
	return atotto.WriteAll(string(items[FormatText]))
}

func (nativePasteboard) Clear() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := openClipboard(); err != nil {
		return err
	}
	defer closeClipboard()

	if r, _, err := procEmptyClipboard.Call(); r == 0 {
		return fmt.Errorf("EmptyClipboard: %w", err)
	}
	return nil
}

// ServeClipboard is not used on Windows.
func ServeClipboard(r *os.File) error {
	return nil
}
