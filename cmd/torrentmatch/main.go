// torrentmatch finds the files of a torrent among recovered files with lost
// names. Files are matched by size, confirmed against one piece hash and
// moved, copied or linked into a tree laid out like the torrent.
//
// Usage:
//
//	torrentmatch -f show.torrent -s /recovered -d /library [-m 755] [-a move|copy|link]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/pflag"

	"github.com/GeminiZA/torrentmatch/internal/config"
	"github.com/GeminiZA/torrentmatch/internal/database"
	"github.com/GeminiZA/torrentmatch/internal/logger"
	"github.com/GeminiZA/torrentmatch/internal/manifest"
	"github.com/GeminiZA/torrentmatch/internal/session"
	"github.com/GeminiZA/torrentmatch/internal/torrentfile"
	"github.com/GeminiZA/torrentmatch/internal/transfer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := parseArgs(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrManifestNotFound) {
			fmt.Fprintf(stdout, "File not found in path %s\n", cfg.Manifest)
			return 1
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	lg := logger.NewWithWriter(stderr, byte(cfg.LogLevel), "torrentmatch")
	summary, err := execute(ctx, cfg, lg)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	lg.Info("finished",
		"scanned", summary.Scanned,
		"relocated", summary.Relocated,
		"mismatched", summary.Mismatched,
		"unmatched", summary.Unmatched,
		"below_minimum", summary.BelowMinimum,
		"unreadable", summary.Unreadable)
	fmt.Fprintln(stdout, "Done")
	return 0
}

func execute(ctx context.Context, cfg config.Config, lg *logger.Logger) (session.Summary, error) {
	tf, err := torrentfile.ParseFile(cfg.Manifest)
	if err != nil {
		return session.Summary{}, err
	}
	m, err := manifest.FromTorrent(tf)
	if err != nil {
		return session.Summary{}, fmt.Errorf("%s: %w", cfg.Manifest, err)
	}

	opts := []session.Option{session.WithLogger(lg.Named("session"))}
	if cfg.Journal != "" {
		dbc, err := database.Connect(cfg.Journal)
		if err != nil {
			return session.Summary{}, fmt.Errorf("opening journal %s: %w", cfg.Journal, err)
		}
		defer dbc.Disconnect()
		opts = append(opts, session.WithJournal(dbc))
	}
	return session.New(cfg, m, opts...).Run(ctx)
}

// parseArgs builds the run configuration. Values come from the defaults, then
// the --config file, then flags given on the command line.
func parseArgs(args []string, stderr io.Writer) (config.Config, error) {
	var (
		configPath string
		cfg        = config.Default()
		action     string
	)
	dirMode := cfg.DirMode
	logLevel := cfg.LogLevel

	flagSet := pflag.NewFlagSet("torrentmatch", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&cfg.Manifest, "file", "f", "", "filename of .torrent file")
	flagSet.StringVarP(&cfg.Source, "source", "s", "", "source directory with files")
	flagSet.StringVarP(&cfg.Destination, "destination", "d", "", "destination directory to put found files into")
	flagSet.VarP(&dirMode, "mode", "m", "access mode for created directories")
	flagSet.StringVarP(&action, "action", "a", transfer.Move.String(), "way to transfer found files: "+strings.Join(transfer.Names(), "|"))
	flagSet.IntVar(&cfg.Jobs, "jobs", cfg.Jobs, "candidate files checked in parallel")
	flagSet.BoolVar(&cfg.DryRun, "dry-run", false, "verify matches without transferring them")
	flagSet.StringVar(&cfg.Journal, "journal", "", "sqlite database to record relocations in")
	flagSet.Var(&logLevel, "log-level", "debug, info, warn or error")
	flagSet.StringVar(&configPath, "config", "", "YAML file with default settings")
	flagSet.Usage = func() {
		fmt.Fprintf(stderr, "Usage: torrentmatch -f FILE -s SOURCE -d DESTINATION [flags]\n\n")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return cfg, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return cfg, fmt.Errorf("unexpected argument: %s", rest[0])
	}

	if configPath != "" {
		fileCfg, err := config.Load(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = merge(fileCfg, cfg, flagSet)
	}
	if flagSet.Changed("mode") || configPath == "" {
		cfg.DirMode = dirMode
	}
	if flagSet.Changed("log-level") || configPath == "" {
		cfg.LogLevel = logLevel
	}
	if flagSet.Changed("action") || configPath == "" {
		parsed, err := transfer.ParseAction(action)
		if err != nil {
			return cfg, err
		}
		cfg.Action = parsed
	}
	return cfg, nil
}

// merge overlays the flags that were set explicitly onto the file config.
func merge(fileCfg, flagCfg config.Config, flagSet *pflag.FlagSet) config.Config {
	cfg := fileCfg
	if flagSet.Changed("file") {
		cfg.Manifest = flagCfg.Manifest
	}
	if flagSet.Changed("source") {
		cfg.Source = flagCfg.Source
	}
	if flagSet.Changed("destination") {
		cfg.Destination = flagCfg.Destination
	}
	if flagSet.Changed("jobs") {
		cfg.Jobs = flagCfg.Jobs
	}
	if flagSet.Changed("dry-run") {
		cfg.DryRun = flagCfg.DryRun
	}
	if flagSet.Changed("journal") {
		cfg.Journal = flagCfg.Journal
	}
	return cfg
}
