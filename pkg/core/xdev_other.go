//go:build !unix && !windows

package core

func isCrossDevice(err error) bool {
	return false
}
