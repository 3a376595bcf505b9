package session

import (
	"fmt"

	"github.com/GeminiZA/torrentmatch/internal/database"
	"github.com/GeminiZA/torrentmatch/internal/transfer"
)

func (s *Session) place(src, dst string, pieceIndex int64) error {
	if s.cfg.DryRun {
		s.logger.Info("verified (dry run)", "path", src, "destination", dst, "action", s.cfg.Action)
		return nil
	}
	if err := transfer.EnsureParent(dst, s.cfg.DirMode.FileMode()); err != nil {
		return fmt.Errorf("creating directory for %s: %w", dst, err)
	}
	if err := s.cfg.Action.Relocate(src, dst); err != nil {
		return fmt.Errorf("%s %s to %s: %w", s.cfg.Action, src, dst, err)
	}
	s.logger.Info("relocated", "path", src, "destination", dst, "action", s.cfg.Action, "piece", pieceIndex)

	if s.journal == nil {
		return nil
	}
	err := s.journal.Record(database.Relocation{
		InfoHash:    s.infoHash,
		Source:      src,
		Destination: dst,
		Action:      s.cfg.Action.String(),
		PieceIndex:  pieceIndex,
	})
	if err != nil {
		return fmt.Errorf("journaling %s: %w", dst, err)
	}
	return nil
}
