// Package matcher decides whether a file on disk is one of the manifest's
// entries: a size match followed by a SHA-1 check of one whole piece.
package matcher

import (
	"fmt"

	"github.com/GeminiZA/torrentmatch/internal/manifest"
)

type Outcome int

const (
	BelowMinimum Outcome = iota
	Unmatched
	NoPiece
	Mismatch
	Verified
)

func (o Outcome) String() string {
	switch o {
	case BelowMinimum:
		return "below minimum size"
	case Unmatched:
		return "no entry of that size"
	case NoPiece:
		return "piece outside hash list"
	case Mismatch:
		return "hash mismatch"
	case Verified:
		return "verified"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type Result struct {
	Outcome    Outcome
	EntryIndex int
	Entry      manifest.Entry
	Location   Location
}

// Matcher holds the read-only manifest and its offset index. It is safe for
// concurrent use.
type Matcher struct {
	manifest *manifest.Manifest
	index    manifest.OffsetIndex
	minSize  int64
}

func New(m *manifest.Manifest) *Matcher {
	return &Matcher{
		manifest: m,
		index:    manifest.BuildOffsetIndex(m.Entries),
		minSize:  MinimumSize(m.PieceSize),
	}
}

func (mt *Matcher) MinimumSize() int64 {
	return mt.minSize
}

// Check runs matching and verification for one candidate. The returned error
// is non-nil only when the candidate could not be read.
func (mt *Matcher) Check(candidate CandidateFile) (Result, error) {
	if candidate.Size < mt.minSize {
		return Result{Outcome: BelowMinimum, EntryIndex: -1}, nil
	}
	entryIndex, ok := Match(candidate, mt.manifest.Entries, mt.minSize)
	if !ok {
		return Result{Outcome: Unmatched, EntryIndex: -1}, nil
	}
	result := Result{
		EntryIndex: entryIndex,
		Entry:      mt.manifest.Entries[entryIndex],
		Location:   Locate(mt.index.Offset(entryIndex), mt.manifest.PieceSize),
	}
	length := mt.manifest.PieceLength(result.Location.Index)
	if length == 0 {
		result.Outcome = NoPiece
		return result, nil
	}
	verified, err := Verify(candidate.Path, result.Location.Begin, length, mt.manifest.Hashes[result.Location.Index])
	if err != nil {
		return result, fmt.Errorf("verifying %s: %w", candidate.Path, err)
	}
	if verified {
		result.Outcome = Verified
	} else {
		result.Outcome = Mismatch
	}
	return result, nil
}
