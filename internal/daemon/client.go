package daemon

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"time"

	"taiga/internal/ipc"
)

// ErrDaemonNotRunning reports that no daemon answered on the socket, after
// any configured autospawn attempt.
var ErrDaemonNotRunning = errors.New("daemon is not running")

// SpawnOptions controls launching a detached daemon when a connection
// attempt finds no listener. Args is the argv the current executable is
// re-invoked with.
type SpawnOptions struct {
	Args        []string
	StartupWait time.Duration
}

// ClientOptions configures one client exchange. A nil Spawn disables
// autospawn and connection failures surface immediately.
type ClientOptions struct {
	SocketPath     string
	MaxMessageSize int
	Spawn          *SpawnOptions
}

// Send performs one command/response exchange with the daemon. If the first
// connection fails and spawning is configured, it launches a detached daemon
// process, waits for startup, and retries exactly once.
func Send[C, R any](opts ClientOptions, cmd C) (R, error) {
	var zero R
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = ipc.DefaultMaxMessageSize
	}

	conn, err := ipc.Dial(opts.SocketPath)
	if err != nil {
		dialErr := err
		if opts.Spawn == nil {
			return zero, fmt.Errorf("%w: %w", ErrDaemonNotRunning, dialErr)
		}
		if spawnErr := spawnDetached(opts.Spawn.Args); spawnErr != nil {
			return zero, fmt.Errorf("launch daemon: %w", spawnErr)
		}
		wait := opts.Spawn.StartupWait
		if wait <= 0 {
			wait = 500 * time.Millisecond
		}
		time.Sleep(wait)

		// The retry's own failure is discarded; the first attempt is the
		// connection error worth reporting.
		conn, err = ipc.Dial(opts.SocketPath)
		if err != nil {
			return zero, fmt.Errorf("%w: %w", ErrDaemonNotRunning, dialErr)
		}
	}
	defer conn.Close()

	return roundTrip[C, R](conn, opts.MaxMessageSize, cmd)
}

func roundTrip[C, R any](conn net.Conn, maxSize int, cmd C) (R, error) {
	var zero R
	if err := ipc.Send(conn, maxSize, cmd); err != nil {
		return zero, fmt.Errorf("send command: %w", err)
	}
	var resp R
	if err := ipc.Receive(conn, maxSize, &resp); err != nil {
		return zero, fmt.Errorf("read response: %w", err)
	}
	return resp, nil
}

// spawnDetached re-invokes the current executable with the given arguments
// and releases the child so it outlives this process. Standard streams stay
// detached; the daemon logs to files.
func spawnDetached(args []string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	proc := exec.Command(exe, args...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("start process: %w", err)
	}
	return proc.Process.Release()
}
