package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"taiga/internal/ipc"
	"taiga/internal/logging"
)

// State tracks the runtime through its lifecycle. Transitions are one-way:
// Starting, Running, ShuttingDown, Stopped.
type State int32

const (
	StateStarting State = iota
	StateRunning
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Result carries a handler's response and whether the runtime should shut
// down after delivering it.
type Result[R any] struct {
	Response R
	Shutdown bool
}

// Respond returns a result that keeps the runtime running.
func Respond[R any](response R) Result[R] {
	return Result[R]{Response: response}
}

// ShutdownAfter returns a result delivered to the client before the runtime
// begins shutdown.
func ShutdownAfter[R any](response R) Result[R] {
	return Result[R]{Response: response, Shutdown: true}
}

// Handler supplies the domain logic a Runtime drives. The runtime serializes
// every call, so implementations need no internal locking.
type Handler[C, R any] interface {
	// HandleCommand services one decoded client command.
	HandleCommand(ctx context.Context, cmd C) Result[R]
	// OnTick fires at the configured interval while the runtime is running.
	OnTick(ctx context.Context)
	// OnStart runs once before the runtime accepts connections. A returned
	// error aborts startup.
	OnStart(ctx context.Context) error
	// OnShutdown runs once during teardown, after the listener closes.
	OnShutdown(ctx context.Context)
}

// Options configures a Runtime.
type Options struct {
	SocketPath     string
	LockPath       string
	TickInterval   time.Duration
	MaxMessageSize int
}

// ErrAlreadyRunning reports that another daemon instance holds the lock.
var ErrAlreadyRunning = errors.New("daemon already running")

// Runtime ties a Handler to a Unix socket, a periodic tick, and a
// single-instance lock. C and R are the wire command and response types.
type Runtime[C, R any] struct {
	opts    Options
	handler Handler[C, R]
	logger  *slog.Logger

	mu       sync.Mutex // serializes handler calls
	state    atomic.Int32
	lock     *flock.Flock
	listener net.Listener

	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewRuntime validates options and constructs a runtime around the handler.
func NewRuntime[C, R any](opts Options, handler Handler[C, R], logger *slog.Logger) (*Runtime[C, R], error) {
	if handler == nil {
		return nil, errors.New("runtime requires a handler")
	}
	if opts.SocketPath == "" {
		return nil, errors.New("runtime requires a socket path")
	}
	if opts.LockPath == "" {
		opts.LockPath = opts.SocketPath + ".lock"
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = ipc.DefaultMaxMessageSize
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runtime[C, R]{
		opts:     opts,
		handler:  handler,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		lock:     flock.New(opts.LockPath),
		shutdown: make(chan struct{}),
	}, nil
}

// State returns the current lifecycle state.
func (r *Runtime[C, R]) State() State {
	return State(r.state.Load())
}

// RequestShutdown asks the runtime to stop after in-flight work completes.
// Safe to call from any goroutine, repeatedly.
func (r *Runtime[C, R]) RequestShutdown() {
	r.shutdownOnce.Do(func() { close(r.shutdown) })
}

// Run acquires the instance lock, binds the socket, and drives the handler
// until the context is canceled or shutdown is requested. It returns after
// teardown completes.
func (r *Runtime[C, R]) Run(ctx context.Context) error {
	r.state.Store(int32(StateStarting))

	held, err := r.lock.TryLock()
	if err != nil {
		r.state.Store(int32(StateStopped))
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !held {
		r.state.Store(int32(StateStopped))
		return ErrAlreadyRunning
	}
	defer func() {
		if unlockErr := r.lock.Unlock(); unlockErr != nil {
			r.logger.Warn("release instance lock", logging.Error(unlockErr))
		}
	}()

	listener, err := ipc.Listen(r.opts.SocketPath)
	if err != nil {
		r.state.Store(int32(StateStopped))
		return err
	}
	r.listener = listener
	defer ipc.Cleanup(r.opts.SocketPath)

	r.mu.Lock()
	err = r.handler.OnStart(ctx)
	r.mu.Unlock()
	if err != nil {
		listener.Close()
		r.state.Store(int32(StateStopped))
		return fmt.Errorf("start handler: %w", err)
	}

	r.state.Store(int32(StateRunning))
	r.logger.Info("daemon listening",
		logging.String(logging.FieldSocket, r.opts.SocketPath),
		logging.Duration("tick_interval", r.opts.TickInterval))

	conns := make(chan net.Conn)
	go r.acceptLoop(conns)

	ticker := time.NewTicker(r.opts.TickInterval)
	defer ticker.Stop()

	var connWG sync.WaitGroup

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-r.shutdown:
			break loop
		case <-ticker.C:
			r.mu.Lock()
			r.handler.OnTick(ctx)
			r.mu.Unlock()
		case conn, ok := <-conns:
			if !ok {
				break loop
			}
			connWG.Add(1)
			go func() {
				defer connWG.Done()
				r.serveConn(ctx, conn)
			}()
		}
	}

	r.state.Store(int32(StateShuttingDown))
	r.logger.Info("daemon shutting down")

	listener.Close()
	for conn := range conns {
		conn.Close()
	}
	connWG.Wait()

	r.mu.Lock()
	r.handler.OnShutdown(ctx)
	r.mu.Unlock()

	r.state.Store(int32(StateStopped))
	r.logger.Info("daemon stopped")
	return nil
}

func (r *Runtime[C, R]) acceptLoop(conns chan<- net.Conn) {
	defer close(conns)
	for {
		conn, err := r.listener.Accept()
		if err != nil {
			if r.State() != StateRunning {
				return
			}
			r.logger.Warn("accept failed", logging.Error(err))
			continue
		}
		conns <- conn
	}
}

// serveConn handles one request/response exchange, then closes the
// connection. Clients that connect and close without sending anything are a
// liveness probe, not an error.
func (r *Runtime[C, R]) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	var cmd C
	if err := ipc.Receive(conn, r.opts.MaxMessageSize, &cmd); err != nil {
		if !errors.Is(err, ipc.ErrClosedWithoutMessage) {
			r.logger.Warn("discard undecodable message", logging.Error(err))
		}
		return
	}

	r.mu.Lock()
	result := r.handler.HandleCommand(ctx, cmd)
	r.mu.Unlock()

	if err := ipc.Send(conn, r.opts.MaxMessageSize, result.Response); err != nil {
		r.logger.Warn("send response", logging.Error(err))
	}
	if result.Shutdown {
		r.RequestShutdown()
	}
}
