package daemon

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"taiga/internal/ipc"
)

type testCommand struct {
	Verb string `json:"verb"`
}

type testResponse struct {
	Verb  string `json:"verb"`
	Ticks int    `json:"ticks"`
}

type testHandler struct {
	ticks    int
	started  bool
	stopped  bool
	startErr error

	// busy flags overlap between handler calls, which the runtime must
	// prevent by serializing them.
	busy     atomic.Int32
	overlaps atomic.Int32
}

func (h *testHandler) enter() {
	if !h.busy.CompareAndSwap(0, 1) {
		h.overlaps.Add(1)
	}
}

func (h *testHandler) leave() { h.busy.Store(0) }

func (h *testHandler) HandleCommand(ctx context.Context, cmd testCommand) Result[testResponse] {
	h.enter()
	time.Sleep(time.Millisecond)
	resp := testResponse{Verb: cmd.Verb, Ticks: h.ticks}
	h.leave()
	if cmd.Verb == "stop" {
		return ShutdownAfter(resp)
	}
	return Respond(resp)
}

func (h *testHandler) OnTick(ctx context.Context) {
	h.enter()
	h.ticks++
	h.leave()
}

func (h *testHandler) OnStart(ctx context.Context) error {
	h.started = true
	return h.startErr
}

func (h *testHandler) OnShutdown(ctx context.Context) { h.stopped = true }

func testOptions(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	return Options{
		SocketPath:   filepath.Join(dir, "test.sock"),
		LockPath:     filepath.Join(dir, "test.lock"),
		TickInterval: 10 * time.Millisecond,
	}
}

func startRuntime(t *testing.T, rt *Runtime[testCommand, testResponse]) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- rt.Run(context.Background()) }()
	waitForSocket(t, rt.opts.SocketPath)
	return done
}

func waitForSocket(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := ipc.Dial(path)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("socket %s never became reachable", path)
}

func sendTest(t *testing.T, socket, verb string) testResponse {
	t.Helper()
	resp, err := Send[testCommand, testResponse](ClientOptions{SocketPath: socket}, testCommand{Verb: verb})
	if err != nil {
		t.Fatalf("send %q: %v", verb, err)
	}
	return resp
}

func TestRuntimeServesAndShutsDown(t *testing.T) {
	handler := &testHandler{}
	rt, err := NewRuntime(testOptions(t), handler, nil)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	done := startRuntime(t, rt)

	if got := sendTest(t, rt.opts.SocketPath, "ping"); got.Verb != "ping" {
		t.Fatalf("response verb = %q, want ping", got.Verb)
	}
	if state := rt.State(); state != StateRunning {
		t.Fatalf("state = %v, want running", state)
	}

	sendTest(t, rt.opts.SocketPath, "stop")

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runtime did not stop after shutdown command")
	}

	if !handler.started || !handler.stopped {
		t.Fatalf("lifecycle hooks: started=%v stopped=%v", handler.started, handler.stopped)
	}
	if state := rt.State(); state != StateStopped {
		t.Fatalf("state = %v, want stopped", state)
	}
}

func TestRuntimeTicks(t *testing.T) {
	opts := testOptions(t)
	opts.TickInterval = 20 * time.Millisecond
	rt, err := NewRuntime(opts, &testHandler{}, nil)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	done := startRuntime(t, rt)

	const window = 600 * time.Millisecond
	before := sendTest(t, rt.opts.SocketPath, "ping")
	started := time.Now()
	time.Sleep(window)
	after := sendTest(t, rt.opts.SocketPath, "ping")
	elapsed := time.Since(started)

	// The tick count must track elapsed time over the interval. The ticker
	// cannot fire faster than the interval, so the upper bound is strict;
	// the lower bound is loose to tolerate scheduler delay.
	got := after.Ticks - before.Ticks
	upper := int(elapsed/opts.TickInterval) + 1
	lower := int(window/opts.TickInterval) / 2
	if got < lower || got > upper {
		t.Fatalf("ticks = %d over %v, want between %d and %d", got, elapsed, lower, upper)
	}

	rt.RequestShutdown()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRuntimeSerializesConcurrentClients(t *testing.T) {
	handler := &testHandler{}
	rt, err := NewRuntime(testOptions(t), handler, nil)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	done := startRuntime(t, rt)

	const clients = 8
	var wg sync.WaitGroup
	var responses atomic.Int32
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := Send[testCommand, testResponse](
				ClientOptions{SocketPath: rt.opts.SocketPath}, testCommand{Verb: "ping"})
			if err != nil {
				t.Errorf("concurrent send: %v", err)
				return
			}
			if resp.Verb == "ping" {
				responses.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := responses.Load(); got != clients {
		t.Fatalf("responses = %d, want %d", got, clients)
	}
	if overlaps := handler.overlaps.Load(); overlaps != 0 {
		t.Fatalf("handler calls overlapped %d times", overlaps)
	}

	rt.RequestShutdown()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRuntimeSecondInstanceRejected(t *testing.T) {
	opts := testOptions(t)
	first, err := NewRuntime(opts, &testHandler{}, nil)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	done := startRuntime(t, first)

	second, err := NewRuntime(opts, &testHandler{}, nil)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	if err := second.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Run error = %v, want ErrAlreadyRunning", err)
	}

	first.RequestShutdown()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRuntimeIgnoresProbeConnections(t *testing.T) {
	rt, err := NewRuntime(testOptions(t), &testHandler{}, nil)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	done := startRuntime(t, rt)

	// Connect and hang up without sending anything.
	conn, err := ipc.Dial(rt.opts.SocketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()

	if got := sendTest(t, rt.opts.SocketPath, "ping"); got.Verb != "ping" {
		t.Fatalf("response verb = %q after probe", got.Verb)
	}

	rt.RequestShutdown()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRuntimeStartHookFailureAborts(t *testing.T) {
	handler := &testHandler{startErr: errors.New("no state dir")}
	rt, err := NewRuntime(testOptions(t), handler, nil)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	if err := rt.Run(context.Background()); err == nil {
		t.Fatal("expected start hook failure to abort Run")
	}
	if rt.State() != StateStopped {
		t.Fatalf("state = %v, want stopped", rt.State())
	}
	if handler.stopped {
		t.Fatal("shutdown hook ran for aborted startup")
	}
}

func TestRuntimeContextCancel(t *testing.T) {
	rt, err := NewRuntime(testOptions(t), &testHandler{}, nil)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()
	waitForSocket(t, rt.opts.SocketPath)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runtime did not stop on context cancel")
	}
}
