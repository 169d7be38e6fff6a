// Package config loads, normalizes, and validates taiga configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// CLI and plugin daemons need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
