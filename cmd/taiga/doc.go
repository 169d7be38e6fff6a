// Package main hosts the Taiga CLI entrypoint and command graph.
//
// The Cobra-based command tree covers markdown task management (add, list,
// check, scheduling, categories, tags) plus configuration scaffolding, and
// forwards any unmatched subcommand to the plugin registry so extensions such
// as the pomodoro timer surface as first-class verbs. It centralizes
// configuration resolution, storage construction, and structured logging
// setup so subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
