package matcher

import (
	"bytes"
	"crypto/sha1"
	"errors"
	"io"
	"os"
)

// Verify reads length bytes at begin from the file at path and reports
// whether their SHA-1 digest equals expected. A short read or a different
// digest is a plain false; errors are only returned when the file cannot be
// opened or read.
func Verify(path string, begin, length int64, expected []byte) (bool, error) {
	if begin < 0 || length <= 0 {
		return false, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	hasher := sha1.New()
	n, err := io.Copy(hasher, io.NewSectionReader(file, begin, length))
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	if n != length {
		return false, nil
	}
	return bytes.Equal(hasher.Sum(nil), expected), nil
}
