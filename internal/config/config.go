// Package config holds the settings of one matching run. A Config is built
// once from an optional YAML file plus command line flags and then passed by
// value; nothing changes it afterwards.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/GeminiZA/torrentmatch/internal/logger"
	"github.com/GeminiZA/torrentmatch/internal/transfer"
)

const (
	DefaultDirMode fs.FileMode = 0o755
	DefaultJobs                = 1
)

var (
	ErrManifestNotFound = errors.New("manifest not found")
	ErrMissingPath      = errors.New("missing required path")
)

type Config struct {
	Manifest    string          `yaml:"file"`
	Source      string          `yaml:"source"`
	Destination string          `yaml:"destination"`
	DirMode     Mode            `yaml:"mode"`
	Action      transfer.Action `yaml:"action"`
	Jobs        int             `yaml:"jobs"`
	DryRun      bool            `yaml:"dry_run"`
	// Journal is the sqlite database relocations are recorded in. Empty
	// disables the journal.
	Journal  string `yaml:"journal"`
	LogLevel Level  `yaml:"log_level"`
}

func Default() Config {
	return Config{
		DirMode:  Mode(DefaultDirMode),
		Action:   transfer.Move,
		Jobs:     DefaultJobs,
		LogLevel: Level(logger.INFO),
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks required paths and that the manifest exists.
func (c Config) Validate() error {
	required := []struct{ name, value string }{
		{"file", c.Manifest},
		{"source", c.Source},
		{"destination", c.Destination},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingPath, r.name)
		}
	}
	if _, err := os.Stat(c.Manifest); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrManifestNotFound, c.Manifest)
		}
		return err
	}
	if _, err := c.Action.MarshalText(); err != nil {
		return err
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	return nil
}

// Mode is a directory permission written in octal, as chmod takes it.
type Mode fs.FileMode

func ParseMode(s string) (Mode, error) {
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid octal mode %q: %w", s, err)
	}
	if v > 0o7777 {
		return 0, fmt.Errorf("invalid octal mode %q: out of range", s)
	}
	return Mode(v), nil
}

// FileMode converts the octal special bits to their fs.FileMode flags.
func (m Mode) FileMode() fs.FileMode {
	mode := fs.FileMode(m) & fs.ModePerm
	if m&0o4000 != 0 {
		mode |= fs.ModeSetuid
	}
	if m&0o2000 != 0 {
		mode |= fs.ModeSetgid
	}
	if m&0o1000 != 0 {
		mode |= fs.ModeSticky
	}
	return mode
}

func (m Mode) String() string {
	return strconv.FormatUint(uint64(m), 8)
}

func (m *Mode) Set(s string) error {
	mode, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

func (m *Mode) Type() string {
	return "octal"
}

func (m *Mode) UnmarshalYAML(node *yaml.Node) error {
	return m.Set(node.Value)
}

// Level is a logger level that reads as debug, info, warn or error.
type Level byte

var levelNames = map[string]byte{
	"debug": logger.DEBUG,
	"info":  logger.INFO,
	"warn":  logger.WARN,
	"error": logger.ERROR,
}

func (l Level) String() string {
	for name, level := range levelNames {
		if byte(l) == level {
			return name
		}
	}
	return strconv.Itoa(int(l))
}

func (l *Level) Set(s string) error {
	level, ok := levelNames[s]
	if !ok {
		return fmt.Errorf("unknown log level %q", s)
	}
	*l = Level(level)
	return nil
}

func (l *Level) Type() string {
	return "level"
}

func (l *Level) UnmarshalYAML(node *yaml.Node) error {
	return l.Set(node.Value)
}
