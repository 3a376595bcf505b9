package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/GeminiZA/torrentmatch/internal/matcher"
)

// Walk lists every regular file below root as a candidate, in lexical order.
// A symbolic link to a regular file is a candidate under the link's own path,
// sized by its target. Links to directories are not descended into and
// dangling links are skipped.
func Walk(root string) ([]matcher.CandidateFile, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	candidates := make([]matcher.CandidateFile, 0)
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		var info fs.FileInfo
		switch {
		case d.Type().IsRegular():
			info, err = d.Info()
			if err != nil {
				return err
			}
		case d.Type()&fs.ModeSymlink != 0:
			info, err = os.Stat(path)
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			if err != nil {
				return err
			}
			if !info.Mode().IsRegular() {
				return nil
			}
		default:
			return nil
		}
		candidates = append(candidates, matcher.NewCandidate(path, info.Size()))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return candidates, nil
}
