// Package manifest exposes the parts of a torrent that file matching needs:
// the ordered file entries, the piece size and the piece hashes, plus the
// byte offset of every entry in the concatenated stream.
package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/GeminiZA/torrentmatch/internal/torrentfile"
)

var ErrUnsafePath = errors.New("path escapes the torrent root")

type Entry struct {
	// Path starts with the torrent name, followed by the file's path list.
	Path      []string
	Size      int64
	Extension string
	Padding   bool
}

// RelativePath joins the entry's path segments with the OS separator.
func (e Entry) RelativePath() string {
	return filepath.Join(e.Path...)
}

type Manifest struct {
	Name      string
	InfoHash  []byte
	Entries   []Entry
	PieceSize int64
	Hashes    [][]byte
}

func FromTorrent(tf *torrentfile.TorrentFile) (*Manifest, error) {
	m := &Manifest{
		Name:      tf.Info.Name,
		InfoHash:  tf.InfoHash,
		PieceSize: tf.Info.PieceLength,
		Hashes:    tf.Info.Pieces,
	}
	if tf.Info.MultiFile {
		m.Entries = make([]Entry, 0, len(tf.Info.Files))
		for _, file := range tf.Info.Files {
			path := append([]string{tf.Info.Name}, file.Path...)
			m.Entries = append(m.Entries, Entry{
				Path:      path,
				Size:      file.Length,
				Extension: Extension(path[len(path)-1]),
				Padding:   file.IsPadding(),
			})
		}
	} else {
		m.Entries = []Entry{{
			Path:      []string{tf.Info.Name},
			Size:      tf.Info.Length,
			Extension: Extension(tf.Info.Name),
		}}
	}
	for _, entry := range m.Entries {
		if err := CheckPath(entry.Path); err != nil {
			return nil, err
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// CheckPath rejects path lists that would leave the directory they are
// joined to: dot segments, segments holding a separator, absolute or
// otherwise non-local results.
func CheckPath(segments []string) error {
	for _, segment := range segments {
		if segment == "." || segment == ".." || strings.ContainsRune(segment, '/') || strings.ContainsRune(segment, filepath.Separator) {
			return fmt.Errorf("%w: %q", ErrUnsafePath, segments)
		}
	}
	if !filepath.IsLocal(filepath.Join(segments...)) {
		return fmt.Errorf("%w: %q", ErrUnsafePath, segments)
	}
	return nil
}

// Extension returns the final suffix of name including the dot. Names with no
// dot, a trailing dot, or only a leading dot have no extension.
func Extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return name[i:]
}

func (m *Manifest) TotalSize() int64 {
	var total int64
	for _, entry := range m.Entries {
		total += entry.Size
	}
	return total
}

func (m *Manifest) PieceCount() int {
	return len(m.Hashes)
}

// PieceLength is the number of stream bytes covered by piece index. Every
// piece is PieceSize long except possibly the last.
func (m *Manifest) PieceLength(index int64) int64 {
	if index < 0 || index >= int64(m.PieceCount()) {
		return 0
	}
	if index < int64(m.PieceCount())-1 {
		return m.PieceSize
	}
	return m.TotalSize() - index*m.PieceSize
}

func (m *Manifest) Validate() error {
	if m.PieceSize <= 0 {
		return fmt.Errorf("invalid piece size %d", m.PieceSize)
	}
	total := m.TotalSize()
	count := int64(m.PieceCount())
	if total == 0 && count == 0 {
		return nil
	}
	if total > m.PieceSize*count || total <= m.PieceSize*(count-1) {
		return fmt.Errorf("%d pieces of %d bytes do not cover a stream of %d bytes", count, m.PieceSize, total)
	}
	return nil
}
