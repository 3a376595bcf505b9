package matcher

// Location identifies the piece used to verify a file.
type Location struct {
	// Begin is where reading starts, relative to the candidate file.
	Begin int64
	// Index is the piece's position in the manifest's hash list.
	Index int64
}

// Locate finds the first whole piece inside a file that starts at offset in
// the stream. A file that does not start on a piece boundary is verified
// against the next boundary. When it does start on one, Begin is offset
// itself, not zero.
func Locate(offset, pieceSize int64) Location {
	seek := offset % pieceSize
	if seek == 0 {
		return Location{Begin: offset, Index: offset / pieceSize}
	}
	index := offset/pieceSize + 1
	return Location{Begin: index*pieceSize - offset, Index: index}
}
