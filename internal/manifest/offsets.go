package manifest

// OffsetIndex holds the starting byte of every entry in the stream formed by
// concatenating all entries in manifest order. Positions match Entries.
type OffsetIndex struct {
	offsets []int64
}

func BuildOffsetIndex(entries []Entry) OffsetIndex {
	offsets := make([]int64, len(entries))
	var offset int64
	for i, entry := range entries {
		offsets[i] = offset
		offset += entry.Size
	}
	return OffsetIndex{offsets: offsets}
}

// Offset returns the stream offset of entry i.
func (idx OffsetIndex) Offset(i int) int64 {
	return idx.offsets[i]
}

func (idx OffsetIndex) Len() int {
	return len(idx.offsets)
}
