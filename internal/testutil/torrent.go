package testutil

import (
	"crypto/sha1"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/GeminiZA/torrentmatch/internal/bencode"
)

// TestFile is one file of a test torrent. Path excludes the torrent name.
type TestFile struct {
	Path    []string
	Content []byte
	Attr    string
}

// RandomBytes returns n deterministic pseudo-random bytes for seed.
func RandomBytes(seed int64, n int) []byte {
	data := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(data)
	return data
}

// PieceHashes hashes the concatenation of files piece by piece.
func PieceHashes(files []TestFile, pieceSize int) [][]byte {
	var stream []byte
	for _, file := range files {
		stream = append(stream, file.Content...)
	}
	hashes := make([][]byte, 0, len(stream)/pieceSize+1)
	for start := 0; start < len(stream); start += pieceSize {
		end := min(start+pieceSize, len(stream))
		sum := sha1.Sum(stream[start:end])
		hashes = append(hashes, sum[:])
	}
	return hashes
}

// BuildTorrent returns the bencoded metainfo of a multi-file torrent.
func BuildTorrent(tb testing.TB, name string, pieceSize int, files []TestFile) []byte {
	tb.Helper()

	var pieces []byte
	for _, hash := range PieceHashes(files, pieceSize) {
		pieces = append(pieces, hash...)
	}
	fileList := make([]any, 0, len(files))
	for _, file := range files {
		item := map[string]any{
			"length": int64(len(file.Content)),
			"path":   file.Path,
		}
		if file.Attr != "" {
			item["attr"] = file.Attr
		}
		fileList = append(fileList, item)
	}
	data, err := bencode.Encode(map[string]any{
		"announce":   "http://tracker.example/announce",
		"created by": "testutil",
		"info": map[string]any{
			"name":         name,
			"piece length": int64(pieceSize),
			"pieces":       pieces,
			"files":        fileList,
		},
	})
	if err != nil {
		tb.Fatalf("encoding test torrent: %v", err)
	}
	return data
}

// WriteTorrent writes BuildTorrent's output into dir and returns its path.
func WriteTorrent(tb testing.TB, dir, name string, pieceSize int, files []TestFile) string {
	tb.Helper()

	path := filepath.Join(dir, name+".torrent")
	if err := os.WriteFile(path, BuildTorrent(tb, name, pieceSize, files), 0o644); err != nil {
		tb.Fatalf("writing test torrent: %v", err)
	}
	return path
}

// WriteFile creates path (and its parents) with content.
func WriteFile(tb testing.TB, path string, content []byte) {
	tb.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		tb.Fatalf("writing %s: %v", path, err)
	}
}
