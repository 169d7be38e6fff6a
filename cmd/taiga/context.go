package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"taiga/internal/config"
	"taiga/internal/logging"
	"taiga/internal/plugin"
	"taiga/internal/pomodoro"
	"taiga/internal/storage"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	registryOnce sync.Once
	registry     *plugin.Registry
	registryErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// loggerValue builds the shared file logger. CLI output goes to stdout
// directly; structured logs land in the log directory.
func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg := c.configValue()
		if cfg == nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.New(logging.Options{
			Level:            cfg.Logging.Level,
			Format:           cfg.Logging.Format,
			OutputPaths:      []string{filepath.Join(cfg.Paths.LogDir, "taiga.log")},
			ErrorOutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "taiga.log")},
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "warn: unable to initialize logger: %v\n", err)
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) storageValue() (*storage.Markdown, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return storage.NewMarkdown(cfg.TasksFile(), c.loggerValue()), nil
}

// registryValue assembles the plugin registry: the built-in pomodoro
// capability plus whatever the search directories turn up.
func (c *commandContext) registryValue() (*plugin.Registry, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.registryOnce.Do(func() {
		registry := plugin.NewRegistry(c.loggerValue())
		if err := registry.RegisterStatic(pomodoro.NewPlugin(cfg, c.loggerValue())); err != nil {
			c.registryErr = err
			return
		}

		registry.AddSearchPath(filepath.Join(cfg.Paths.DataDir, "plugins"))
		if exe, err := os.Executable(); err == nil {
			registry.AddSearchPath(filepath.Join(filepath.Dir(exe), "plugins"))
		}
		for _, dir := range cfg.Paths.PluginDirs {
			registry.AddSearchPath(dir)
		}
		registry.Discover()

		c.registry = registry
	})
	return c.registry, c.registryErr
}

func (c *commandContext) pluginContext() *plugin.Context {
	cfg := c.configValue()
	if cfg == nil {
		return plugin.NewContext("")
	}
	return plugin.NewContext(cfg.Paths.DataDir).
		WithExtra("task_filename", cfg.Tasks.Filename)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for current := cmd; current != nil; current = current.Parent() {
		if current.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
