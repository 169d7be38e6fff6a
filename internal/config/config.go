package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir    string   `toml:"data_dir"`
	LogDir     string   `toml:"log_dir"`
	PluginDirs []string `toml:"plugin_dirs"`
}

// Tasks contains configuration for the markdown task store.
type Tasks struct {
	Filename string `toml:"filename"`
}

// Pomodoro contains configuration for the pomodoro plugin and its daemon.
type Pomodoro struct {
	FocusMinutes             int  `toml:"focus_minutes"`
	BreakMinutes             int  `toml:"break_minutes"`
	LongBreakMinutes         int  `toml:"long_break_minutes"`
	PomodorosBeforeLongBreak int  `toml:"pomodoros_before_long_break"`
	Cycles                   int  `toml:"cycles"`
	TickIntervalSeconds      int  `toml:"tick_interval_seconds"`
	StartupWaitMillis        int  `toml:"startup_wait_millis"`
	MaxMessageBytes          int  `toml:"max_message_bytes"`
	HistoryEnabled           bool `toml:"history_enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for taiga.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and plugin search directories
//   - Tasks: markdown task store settings
//   - Pomodoro: timer defaults and daemon timing
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Tasks    Tasks    `toml:"tasks"`
	Pomodoro Pomodoro `toml:"pomodoro"`
	Logging  Logging  `toml:"logging"`

	// SourcePath is the resolved path this configuration was loaded from.
	// Load sets it; the file itself never does.
	SourcePath string `toml:"-"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/taiga/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return value
// is the resolved config path, the third reports whether a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	cfg.SourcePath = resolvedPath

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	dirs := make([]string, 0, len(c.Paths.PluginDirs))
	for _, dir := range c.Paths.PluginDirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		expanded, err := expandPath(dir)
		if err != nil {
			return fmt.Errorf("paths.plugin_dirs: %w", err)
		}
		dirs = append(dirs, expanded)
	}
	c.Paths.PluginDirs = dirs

	c.Tasks.Filename = strings.TrimSpace(c.Tasks.Filename)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

// EnsureDirectories creates the directories required for operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TasksFile returns the absolute path to the markdown task file.
func (c *Config) TasksFile() string {
	return filepath.Join(c.Paths.DataDir, c.Tasks.Filename)
}

// HistoryDBPath returns the absolute path of the pomodoro history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.DataDir, "pomodoro_history.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
