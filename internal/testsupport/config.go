package testsupport

import (
	"path/filepath"
	"testing"

	"taiga/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Pomodoro.StartupWaitMillis = 100

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithHistoryDisabled turns off pomodoro session recording.
func WithHistoryDisabled() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pomodoro.HistoryEnabled = false
	}
}

// WithPluginDir adds a plugin search directory.
func WithPluginDir(dir string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.PluginDirs = append(cfg.Paths.PluginDirs, dir)
	}
}
