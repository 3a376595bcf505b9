package matcher

import (
	"path/filepath"

	"github.com/GeminiZA/torrentmatch/internal/manifest"
)

// CandidateFile is a file on disk being evaluated against the manifest.
type CandidateFile struct {
	Path      string
	Size      int64
	Extension string
}

func NewCandidate(path string, size int64) CandidateFile {
	return CandidateFile{
		Path:      path,
		Size:      size,
		Extension: manifest.Extension(filepath.Base(path)),
	}
}

// MinimumSize is the smallest file guaranteed to contain one whole piece
// wherever its first piece boundary falls: up to pieceSize-1 bytes before the
// boundary, then pieceSize bytes of piece.
func MinimumSize(pieceSize int64) int64 {
	return 2*pieceSize - 1
}

// Match returns the index of the first entry, in manifest order, with a
// non-empty extension and exactly the candidate's size. Padding entries are
// never matched.
//
// When several entries share a size the first one wins, even if the
// candidate's content belongs to a later one. Verification covers a single
// piece, so entries that differ only outside that piece can be confused.
// This is a known limitation of size plus single-piece matching.
func Match(candidate CandidateFile, entries []manifest.Entry, minSize int64) (int, bool) {
	if candidate.Size < minSize {
		return -1, false
	}
	for i, entry := range entries {
		if entry.Padding || entry.Extension == "" {
			continue
		}
		if entry.Size == candidate.Size {
			return i, true
		}
	}
	return -1, false
}
