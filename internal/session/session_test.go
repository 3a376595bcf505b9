package session

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeminiZA/torrentmatch/internal/config"
	"github.com/GeminiZA/torrentmatch/internal/database"
	"github.com/GeminiZA/torrentmatch/internal/manifest"
	"github.com/GeminiZA/torrentmatch/internal/testutil"
	"github.com/GeminiZA/torrentmatch/internal/torrentfile"
	"github.com/GeminiZA/torrentmatch/internal/transfer"
)

const pieceSize = 16

type fixture struct {
	cfg      config.Config
	manifest *manifest.Manifest
	a, b     []byte
}

// newFixture builds a torrent "t" holding A.mkv (two pieces) and B.mkv (one
// piece), and empty source and destination directories.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	a := testutil.RandomBytes(1, 2*pieceSize)
	b := testutil.RandomBytes(2, pieceSize)
	torrentPath := testutil.WriteTorrent(t, dir, "t", pieceSize, []testutil.TestFile{
		{Path: []string{"A.mkv"}, Content: a},
		{Path: []string{"B.mkv"}, Content: b},
	})
	tf, err := torrentfile.ParseFile(torrentPath)
	require.NoError(t, err)
	m, err := manifest.FromTorrent(tf)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Manifest = torrentPath
	cfg.Source = filepath.Join(dir, "source")
	cfg.Destination = filepath.Join(dir, "destination")
	require.NoError(t, os.MkdirAll(cfg.Source, 0o755))
	return &fixture{cfg: cfg, manifest: m, a: a, b: b}
}

func (f *fixture) run(t *testing.T, opts ...Option) Summary {
	t.Helper()
	summary, err := New(f.cfg, f.manifest, opts...).Run(context.Background())
	require.NoError(t, err)
	return summary
}

func TestScenarioMoveVerifiedFile(t *testing.T) {
	f := newFixture(t)
	src := filepath.Join(f.cfg.Source, "recup_dir.1", "f0001.bin")
	testutil.WriteFile(t, src, f.a)

	summary := f.run(t)
	assert.Equal(t, Summary{Scanned: 1, Relocated: 1}, summary)

	_, err := os.Stat(src)
	assert.ErrorIs(t, err, os.ErrNotExist)
	got, err := os.ReadFile(filepath.Join(f.cfg.Destination, "t", "A.mkv"))
	require.NoError(t, err)
	assert.Equal(t, f.a, got)
}

func TestScenarioCorruptFileStays(t *testing.T) {
	f := newFixture(t)
	corrupt := append([]byte(nil), f.a...)
	corrupt[3] ^= 0x5a
	src := filepath.Join(f.cfg.Source, "f0002.bin")
	testutil.WriteFile(t, src, corrupt)

	summary := f.run(t)
	assert.Equal(t, Summary{Scanned: 1, Mismatched: 1}, summary)

	got, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, corrupt, got)
	_, err = os.Stat(filepath.Join(f.cfg.Destination, "t", "A.mkv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScenarioLink(t *testing.T) {
	f := newFixture(t)
	f.cfg.Action = transfer.Link
	src := filepath.Join(f.cfg.Source, "f0003.bin")
	testutil.WriteFile(t, src, f.a)

	f.run(t)

	dst := filepath.Join(f.cfg.Destination, "t", "A.mkv")
	target, err := os.Readlink(dst)
	require.NoError(t, err)
	assert.Equal(t, src, target)
	_, err = os.Stat(src)
	assert.NoError(t, err)

	// A second pass leaves the existing link alone.
	summary := f.run(t)
	assert.Equal(t, int64(1), summary.Relocated)
	target, err = os.Readlink(dst)
	require.NoError(t, err)
	assert.Equal(t, src, target)
}

func TestScenarioCreatesParentWithMode(t *testing.T) {
	f := newFixture(t)
	f.cfg.DirMode = config.Mode(0o750)
	f.cfg.Action = transfer.Copy
	src := filepath.Join(f.cfg.Source, "f0004.bin")
	testutil.WriteFile(t, src, f.a)

	f.run(t)

	info, err := os.Stat(filepath.Join(f.cfg.Destination, "t"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o750), info.Mode().Perm())
	_, err = os.Stat(src)
	assert.NoError(t, err)
}

func TestSkipsSmallAndUnknownFiles(t *testing.T) {
	f := newFixture(t)
	// B.mkv is a single piece, below the 2*piece-1 threshold.
	testutil.WriteFile(t, filepath.Join(f.cfg.Source, "b.bin"), f.b)
	testutil.WriteFile(t, filepath.Join(f.cfg.Source, "other.bin"), testutil.RandomBytes(5, 40))

	summary := f.run(t)
	assert.Equal(t, Summary{Scanned: 2, BelowMinimum: 1, Unmatched: 1}, summary)
	_, err := os.Stat(f.cfg.Destination)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDryRun(t *testing.T) {
	f := newFixture(t)
	f.cfg.DryRun = true
	src := filepath.Join(f.cfg.Source, "f0005.bin")
	testutil.WriteFile(t, src, f.a)

	summary := f.run(t)
	assert.Equal(t, int64(1), summary.Relocated)
	_, err := os.Stat(src)
	assert.NoError(t, err)
	_, err = os.Stat(f.cfg.Destination)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPlacementFailureAborts(t *testing.T) {
	f := newFixture(t)
	testutil.WriteFile(t, filepath.Join(f.cfg.Destination, "t"), []byte("not a directory"))
	src := filepath.Join(f.cfg.Source, "f0006.bin")
	testutil.WriteFile(t, src, f.a)

	_, err := New(f.cfg, f.manifest).Run(context.Background())
	assert.Error(t, err)
	_, statErr := os.Stat(src)
	assert.NoError(t, statErr)
}

func TestMissingSource(t *testing.T) {
	f := newFixture(t)
	f.cfg.Source = filepath.Join(f.cfg.Source, "missing")
	_, err := New(f.cfg, f.manifest).Run(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCancelledContext(t *testing.T) {
	f := newFixture(t)
	testutil.WriteFile(t, filepath.Join(f.cfg.Source, "f.bin"), f.a)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(f.cfg, f.manifest).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParallelJobs(t *testing.T) {
	dir := t.TempDir()
	files := make([]testutil.TestFile, 0, 8)
	for i := range 8 {
		files = append(files, testutil.TestFile{
			Path:    []string{"season", "e0" + string(rune('0'+i)) + ".mkv"},
			Content: testutil.RandomBytes(int64(100+i), 3*pieceSize+1+i*7),
		})
	}
	tf, err := torrentfile.ParseFile(testutil.WriteTorrent(t, dir, "show", pieceSize, files))
	require.NoError(t, err)
	m, err := manifest.FromTorrent(tf)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Source = filepath.Join(dir, "in")
	cfg.Destination = filepath.Join(dir, "out")
	cfg.Jobs = 4
	for i, file := range files {
		testutil.WriteFile(t, filepath.Join(cfg.Source, "f"+string(rune('a'+i))), file.Content)
	}

	summary, err := New(cfg, m).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(8), summary.Relocated)
	for _, file := range files {
		got, err := os.ReadFile(filepath.Join(cfg.Destination, "show", "season", file.Path[1]))
		require.NoError(t, err)
		assert.Equal(t, file.Content, got)
	}
}

func TestJournal(t *testing.T) {
	f := newFixture(t)
	dbc, err := database.Connect(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer dbc.Disconnect()
	src := filepath.Join(f.cfg.Source, "f0007.bin")
	testutil.WriteFile(t, src, f.a)

	f.run(t, WithJournal(dbc))

	got, err := dbc.List(hex.EncodeToString(f.manifest.InfoHash))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, src, got[0].Source)
	assert.Equal(t, filepath.Join(f.cfg.Destination, "t", "A.mkv"), got[0].Destination)
	assert.Equal(t, "move", got[0].Action)
	assert.Equal(t, int64(0), got[0].PieceIndex)
}
