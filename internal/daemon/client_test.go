package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

// TestDaemonHelper is not a test. The autospawn tests re-invoke the test
// binary with this test selected so a real detached daemon process exists to
// connect to.
func TestDaemonHelper(t *testing.T) {
	socket := os.Getenv("TAIGA_TEST_DAEMON_SOCKET")
	if socket == "" {
		t.Skip("helper entry point")
	}

	rt, err := NewRuntime(Options{
		SocketPath:   socket,
		TickInterval: 10 * time.Millisecond,
	}, &testHandler{}, nil)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	if err := rt.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestSendWithoutSpawnFails(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "absent.sock")
	_, err := Send[testCommand, testResponse](ClientOptions{SocketPath: socket}, testCommand{Verb: "ping"})
	if !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("error = %v, want ErrDaemonNotRunning", err)
	}
}

func TestSendAutospawn(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "spawned.sock")
	t.Setenv("TAIGA_TEST_DAEMON_SOCKET", socket)

	opts := ClientOptions{
		SocketPath: socket,
		Spawn: &SpawnOptions{
			Args:        []string{"-test.run", "TestDaemonHelper"},
			StartupWait: time.Second,
		},
	}

	resp, err := Send[testCommand, testResponse](opts, testCommand{Verb: "ping"})
	if err != nil {
		t.Fatalf("autospawn send: %v", err)
	}
	if resp.Verb != "ping" {
		t.Fatalf("response verb = %q, want ping", resp.Verb)
	}

	// Second send finds the daemon already up; no second spawn happens.
	if _, err := Send[testCommand, testResponse](opts, testCommand{Verb: "ping"}); err != nil {
		t.Fatalf("second send: %v", err)
	}

	if _, err := Send[testCommand, testResponse](opts, testCommand{Verb: "stop"}); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

// TestSocketFileHelper is not a test. It plants a plain file at the socket
// path so the retry dial fails differently than the first attempt.
func TestSocketFileHelper(t *testing.T) {
	path := os.Getenv("TAIGA_TEST_SOCKET_FILE")
	if path == "" {
		t.Skip("helper entry point")
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write socket file: %v", err)
	}
}

func TestSendReportsFirstDialError(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "gone.sock")
	t.Setenv("TAIGA_TEST_SOCKET_FILE", socket)

	opts := ClientOptions{
		SocketPath: socket,
		Spawn: &SpawnOptions{
			Args:        []string{"-test.run", "TestSocketFileHelper"},
			StartupWait: time.Second,
		},
	}
	_, err := Send[testCommand, testResponse](opts, testCommand{Verb: "ping"})
	if !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("error = %v, want ErrDaemonNotRunning", err)
	}

	// The first attempt failed because nothing existed at the socket path;
	// the retry hit a plain file instead. The first failure is the one the
	// error carries.
	if !errors.Is(err, syscall.ENOENT) {
		t.Fatalf("error = %v, want the original dial failure", err)
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		t.Fatalf("error = %v, carries the retry failure", err)
	}
}

func TestSendAutospawnStartupFailure(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "never.sock")
	// Helper skips without the socket env var, so nothing ever listens.
	opts := ClientOptions{
		SocketPath: socket,
		Spawn: &SpawnOptions{
			Args:        []string{"-test.run", "TestDaemonHelper"},
			StartupWait: 100 * time.Millisecond,
		},
	}
	_, err := Send[testCommand, testResponse](opts, testCommand{Verb: "ping"})
	if !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("error = %v, want ErrDaemonNotRunning", err)
	}
}
