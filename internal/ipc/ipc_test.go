package ipc_test

import (
	"errors"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"taiga/internal/ipc"
)

type payload struct {
	Op    string   `json:"op"`
	Count int      `json:"count"`
	Tags  []string `json:"tags,omitempty"`
}

func testPair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ipc-test.sock")
	listener, err := ipc.Listen(path)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() {
		listener.Close()
		ipc.Cleanup(path)
	})

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		accepted <- conn
	}()

	client, err := ipc.Dial(path)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	server := <-accepted
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client, server
}

func TestSendReceiveRoundTrip(t *testing.T) {
	client, server := testPair(t)

	sent := payload{Op: "start", Count: 4, Tags: []string{"focus", "deep-work"}}
	if err := ipc.Send(client, 0, sent); err != nil {
		t.Fatalf("Send: %v", err)
	}

	var got payload
	if err := ipc.Receive(server, 0, &got); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if got.Op != sent.Op || got.Count != sent.Count || len(got.Tags) != 2 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestReceiveRejectsOversizedFrame(t *testing.T) {
	client, server := testPair(t)

	big := payload{Op: strings.Repeat("x", 2048)}
	if err := ipc.Send(client, 0, big); err != nil {
		t.Fatalf("Send: %v", err)
	}

	var got payload
	err := ipc.Receive(server, 512, &got)
	if !errors.Is(err, ipc.ErrMessageTooLarge) {
		t.Fatalf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestSendRejectsOversizedPayload(t *testing.T) {
	client, _ := testPair(t)

	big := payload{Op: strings.Repeat("x", 2048)}
	err := ipc.Send(client, 512, big)
	if !errors.Is(err, ipc.ErrMessageTooLarge) {
		t.Fatalf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestConfiguredLimitAboveDefault(t *testing.T) {
	client, server := testPair(t)

	limit := 4 * ipc.DefaultMaxMessageSize
	big := payload{Op: strings.Repeat("x", 2*ipc.DefaultMaxMessageSize)}

	sendErr := make(chan error, 1)
	go func() { sendErr <- ipc.Send(client, limit, big) }()

	var got payload
	if err := ipc.Receive(server, limit, &got); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if err := <-sendErr; err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(got.Op) != 2*ipc.DefaultMaxMessageSize {
		t.Fatalf("payload length = %d, want %d", len(got.Op), 2*ipc.DefaultMaxMessageSize)
	}
}

func TestReceiveClosedWithoutMessage(t *testing.T) {
	client, server := testPair(t)

	client.Close()

	var got payload
	err := ipc.Receive(server, 0, &got)
	if !errors.Is(err, ipc.ErrClosedWithoutMessage) {
		t.Fatalf("expected ErrClosedWithoutMessage, got %v", err)
	}
}

func TestDialWithoutListenerFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.sock")
	if _, err := ipc.Dial(path); err == nil {
		t.Fatal("expected dial failure with no listener")
	}
}

func TestListenReplacesStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.sock")
	first, err := ipc.Listen(path)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	first.Close()

	// The socket file may remain after an unclean shutdown; Listen must
	// still succeed.
	second, err := ipc.Listen(path)
	if err != nil {
		t.Fatalf("Listen over stale socket: %v", err)
	}
	second.Close()
	ipc.Cleanup(path)
}

func TestSocketPathIsStable(t *testing.T) {
	a := ipc.SocketPath("taiga-pomo")
	b := ipc.SocketPath("taiga-pomo")
	if a != b {
		t.Fatalf("expected stable path, got %s and %s", a, b)
	}
	if !strings.Contains(filepath.Base(a), "taiga-pomo") {
		t.Fatalf("expected daemon name in path, got %s", a)
	}
}
