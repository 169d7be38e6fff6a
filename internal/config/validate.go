package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePomodoro(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Tasks.Filename == "" {
		return errors.New("tasks.filename must be set")
	}
	return nil
}

func (c *Config) validatePomodoro() error {
	p := c.Pomodoro
	if p.FocusMinutes < 1 || p.FocusMinutes > 480 {
		return fmt.Errorf("pomodoro.focus_minutes must be between 1 and 480, got %d", p.FocusMinutes)
	}
	if p.BreakMinutes < 1 || p.BreakMinutes > 120 {
		return fmt.Errorf("pomodoro.break_minutes must be between 1 and 120, got %d", p.BreakMinutes)
	}
	if p.LongBreakMinutes < p.BreakMinutes {
		return errors.New("pomodoro.long_break_minutes must be at least break_minutes")
	}
	if p.PomodorosBeforeLongBreak < 1 {
		return errors.New("pomodoro.pomodoros_before_long_break must be positive")
	}
	if p.Cycles < 1 || p.Cycles > 100 {
		return fmt.Errorf("pomodoro.cycles must be between 1 and 100, got %d", p.Cycles)
	}
	if p.TickIntervalSeconds < 1 {
		return errors.New("pomodoro.tick_interval_seconds must be positive")
	}
	if p.StartupWaitMillis < 0 {
		return errors.New("pomodoro.startup_wait_millis must not be negative")
	}
	if p.MaxMessageBytes < 512 {
		return fmt.Errorf("pomodoro.max_message_bytes must be at least 512, got %d", p.MaxMessageBytes)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
