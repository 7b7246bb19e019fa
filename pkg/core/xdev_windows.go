//go:build windows

package core

import (
	stderrors "errors"

	"golang.org/x/sys/windows"
)

func isCrossDevice(err error) bool {
	return stderrors.Is(err, windows.ERROR_NOT_SAME_DEVICE)
}
