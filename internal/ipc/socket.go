package ipc

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const dialTimeout = 2 * time.Second

// Listen binds a local listener at the given path. Any stale filesystem
// artifact left by a previous run is removed first.
func Listen(path string) (net.Listener, error) {
	Cleanup(path)
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}
	return listener, nil
}

// Dial opens one connection to an existing listener. A failure here is how a
// client detects that no daemon is serving the path.
func Dial(path string) (net.Conn, error) {
	conn, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect to socket: %w", err)
	}
	return conn, nil
}

// Cleanup removes the filesystem artifact backing a channel. It is best
// effort and a no-op where none exists.
func Cleanup(path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	_ = os.Remove(path)
}

// SocketPath derives the platform channel path for a daemon name. Callers
// treat the result as opaque; platform naming rules live only here.
func SocketPath(name string) string {
	file := name + ".sock"
	if runtime.GOOS == "windows" {
		return filepath.Join(os.TempDir(), file)
	}
	if dir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR")); dir != "" {
		return filepath.Join(dir, file)
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, file)
	}
	return filepath.Join(os.TempDir(), file)
}
