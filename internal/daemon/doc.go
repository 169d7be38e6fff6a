// Package daemon provides a reusable background-process runtime and the
// matching client side.
//
// Runtime owns the event loop: it acquires a single-instance file lock, binds
// a Unix domain socket, and multiplexes periodic ticks with one-shot client
// exchanges, handing both to a Handler whose calls it serializes. Command and
// response types are type parameters, so each extension defines its own wire
// protocol without touching the loop.
//
// Send is the client counterpart. When the daemon is not up it can launch a
// detached copy of the current executable, wait briefly, and retry once
// before reporting ErrDaemonNotRunning.
package daemon
