// Package pomodoro implements the timer capability and its background
// daemon.
//
// The capability side translates CLI arguments into wire commands and sends
// them over the daemon socket, launching the daemon on demand. The daemon
// side is a state machine over idle, focus, and break phases: focus
// completion starts a short break, or a long one every few pomodoros, and
// breaks roll back into focus until the configured cycles run out. Completed
// focus intervals land in a SQLite session history.
package pomodoro
