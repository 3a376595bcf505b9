// Package session runs one matching pass: it scans the source directory,
// checks every file against the manifest and relocates verified files into
// the destination tree.
package session

import (
	"context"
	"encoding/hex"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/GeminiZA/torrentmatch/internal/config"
	"github.com/GeminiZA/torrentmatch/internal/database"
	"github.com/GeminiZA/torrentmatch/internal/logger"
	"github.com/GeminiZA/torrentmatch/internal/manifest"
	"github.com/GeminiZA/torrentmatch/internal/matcher"
	"github.com/GeminiZA/torrentmatch/internal/scanner"
)

type Summary struct {
	Scanned      int64
	BelowMinimum int64
	Unmatched    int64
	Mismatched   int64
	Unreadable   int64
	Relocated    int64
}

type counters struct {
	scanned, belowMinimum, unmatched, mismatched, unreadable, relocated atomic.Int64
}

func (c *counters) summary() Summary {
	return Summary{
		Scanned:      c.scanned.Load(),
		BelowMinimum: c.belowMinimum.Load(),
		Unmatched:    c.unmatched.Load(),
		Mismatched:   c.mismatched.Load(),
		Unreadable:   c.unreadable.Load(),
		Relocated:    c.relocated.Load(),
	}
}

type Session struct {
	cfg      config.Config
	manifest *manifest.Manifest
	matcher  *matcher.Matcher
	logger   *logger.Logger
	journal  *database.DBConn
	infoHash string
}

type Option func(*Session)

func WithLogger(lg *logger.Logger) Option {
	return func(s *Session) {
		s.logger = lg
	}
}

// WithJournal records every relocation in dbc.
func WithJournal(dbc *database.DBConn) Option {
	return func(s *Session) {
		s.journal = dbc
	}
}

func New(cfg config.Config, m *manifest.Manifest, opts ...Option) *Session {
	s := &Session{
		cfg:      cfg,
		manifest: m,
		matcher:  matcher.New(m),
		logger:   logger.Discard(),
		infoHash: hex.EncodeToString(m.InfoHash),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes every file below the source directory. Filesystem errors
// during placement stop the run; relocations already done are kept.
func (s *Session) Run(ctx context.Context) (Summary, error) {
	candidates, err := scanner.Walk(s.cfg.Source)
	if err != nil {
		return Summary{}, err
	}
	s.logger.Info("scanning candidates",
		"count", len(candidates),
		"torrent", s.manifest.Name,
		"min_size", s.matcher.MinimumSize(),
		"action", s.cfg.Action,
		"jobs", s.cfg.Jobs)

	var c counters
	if s.cfg.Jobs <= 1 {
		for _, candidate := range candidates {
			if err := ctx.Err(); err != nil {
				return c.summary(), err
			}
			if err := s.process(candidate, &c); err != nil {
				return c.summary(), err
			}
		}
		return c.summary(), nil
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.cfg.Jobs)
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return s.process(candidate, &c)
		})
	}
	err = eg.Wait()
	return c.summary(), err
}

func (s *Session) process(candidate matcher.CandidateFile, c *counters) error {
	c.scanned.Add(1)
	result, err := s.matcher.Check(candidate)
	if err != nil {
		c.unreadable.Add(1)
		s.logger.Warn("skipping unreadable candidate", "path", candidate.Path, "err", err)
		return nil
	}
	switch result.Outcome {
	case matcher.BelowMinimum:
		c.belowMinimum.Add(1)
		return nil
	case matcher.Unmatched:
		c.unmatched.Add(1)
		return nil
	case matcher.Verified:
	default:
		c.mismatched.Add(1)
		s.logger.Debug("candidate rejected",
			"path", candidate.Path,
			"entry", result.Entry.RelativePath(),
			"piece", result.Location.Index,
			"reason", result.Outcome)
		return nil
	}

	dst := s.Destination(result.Entry)
	if err := s.place(candidate.Path, dst, result.Location.Index); err != nil {
		s.logger.Error("placement failed", "path", candidate.Path, "destination", dst, "err", err)
		return err
	}
	c.relocated.Add(1)
	return nil
}

// Destination is where entry is placed below the destination root.
func (s *Session) Destination(entry manifest.Entry) string {
	return filepath.Join(s.cfg.Destination, entry.RelativePath())
}
