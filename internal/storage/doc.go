// Package storage persists task collections as markdown files, one line per
// task grouped under category headers, with backup-before-save and recovery
// from the backup.
package storage
