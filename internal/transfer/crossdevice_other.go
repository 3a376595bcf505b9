//go:build !unix

package transfer

// Rename failures are never retried as copies where EXDEV does not exist.
func isCrossDevice(err error) bool {
	return false
}
