//go:build unix

package core

import (
	stderrors "errors"

	"golang.org/x/sys/unix"
)

func isCrossDevice(err error) bool {
	return stderrors.Is(err, unix.EXDEV)
}
