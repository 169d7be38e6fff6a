package pomodoro

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"taiga/internal/config"
	"taiga/internal/daemon"
	"taiga/internal/ipc"
	"taiga/internal/logging"
)

// SocketPath returns the timer daemon's socket location.
func SocketPath() string {
	return ipc.SocketPath("taiga-pomo")
}

// handler is the timer state machine driven by the daemon runtime. The
// runtime serializes all calls, so fields need no locking.
type handler struct {
	cfg     *config.Config
	logger  *slog.Logger
	history *History
	now     func() time.Time

	mode               Mode
	endTime            time.Time // zero when no deadline is armed
	pausedRemaining    time.Duration
	paused             bool
	cyclesRemaining    int
	totalCycles        int
	completedPomodoros int
	taskID             int
	focusStarted       time.Time

	focusDuration     time.Duration
	breakDuration     time.Duration
	longBreakDuration time.Duration
	beforeLongBreak   int
}

func newHandler(cfg *config.Config, logger *slog.Logger) *handler {
	return &handler{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "pomodoro"),
		now:    time.Now,
		mode:   ModeIdle,
	}
}

func (h *handler) OnStart(ctx context.Context) error {
	if h.cfg.Pomodoro.HistoryEnabled {
		history, err := OpenHistory(h.cfg.HistoryDBPath())
		if err != nil {
			return fmt.Errorf("open session history: %w", err)
		}
		h.history = history
	}
	h.logger.Info("pomodoro daemon ready")
	return nil
}

func (h *handler) OnShutdown(ctx context.Context) {
	if h.history != nil {
		if err := h.history.Close(); err != nil {
			h.logger.Warn("close session history", logging.Error(err))
		}
	}
}

func (h *handler) OnTick(ctx context.Context) {
	if h.endTime.IsZero() || h.now().Before(h.endTime) {
		return
	}
	h.advance(ctx)
}

// advance moves the state machine past an expired deadline.
func (h *handler) advance(ctx context.Context) {
	switch h.mode {
	case ModeFocus:
		h.cyclesRemaining--
		h.completedPomodoros++
		h.recordSession(ctx, true)

		if h.cyclesRemaining <= 0 {
			h.logger.Info("all pomodoros finished",
				logging.Int("total_cycles", h.totalCycles))
			h.reset()
			return
		}

		long := h.beforeLongBreak > 0 && h.completedPomodoros%h.beforeLongBreak == 0
		duration := h.breakDuration
		kind := "short"
		if long {
			duration = h.longBreakDuration
			kind = "long"
		}
		h.mode = ModeBreak
		h.endTime = h.now().Add(duration)
		h.logger.Info("focus complete, break starting",
			logging.String(logging.FieldEventType, "phase_change"),
			logging.String("break_kind", kind),
			logging.Duration("break_duration", duration),
			logging.Int("cycles_left", h.cyclesRemaining))

	case ModeBreak:
		h.mode = ModeFocus
		h.endTime = h.now().Add(h.focusDuration)
		h.focusStarted = h.now()
		h.logger.Info("break over, focus starting",
			logging.String(logging.FieldEventType, "phase_change"),
			logging.Duration("focus_duration", h.focusDuration))

	default:
		h.reset()
	}
}

func (h *handler) HandleCommand(ctx context.Context, cmd Command) daemon.Result[Response] {
	switch cmd.Verb {
	case VerbStart:
		return daemon.Respond(h.start(cmd))
	case VerbStatus:
		return daemon.Respond(h.status())
	case VerbStop:
		return daemon.Respond(h.stop(ctx))
	case VerbPause:
		return daemon.Respond(h.pause())
	case VerbResume:
		return daemon.Respond(h.resume())
	case VerbPing:
		return daemon.Respond(okResponse("pong"))
	case VerbKill:
		return daemon.ShutdownAfter(okResponse("daemon shutting down"))
	}
	return daemon.Respond(errorResponse(fmt.Sprintf("unknown command %q", cmd.Verb)))
}

func (h *handler) start(cmd Command) Response {
	h.focusDuration = time.Duration(cmd.FocusMinutes) * time.Minute
	h.breakDuration = time.Duration(cmd.BreakMinutes) * time.Minute
	h.longBreakDuration = time.Duration(h.cfg.Pomodoro.LongBreakMinutes) * time.Minute
	h.beforeLongBreak = h.cfg.Pomodoro.PomodorosBeforeLongBreak

	h.cyclesRemaining = cmd.Cycles
	h.totalCycles = cmd.Cycles
	h.completedPomodoros = 0
	h.taskID = cmd.TaskID
	h.mode = ModeFocus
	h.endTime = h.now().Add(h.focusDuration)
	h.focusStarted = h.now()
	h.paused = false
	h.pausedRemaining = 0

	h.logger.Info("session started",
		logging.Int("focus_minutes", cmd.FocusMinutes),
		logging.Int("break_minutes", cmd.BreakMinutes),
		logging.Int("cycles", cmd.Cycles))
	return okResponse(fmt.Sprintf("Started: %dm focus, %dm break (%d cycles)",
		cmd.FocusMinutes, cmd.BreakMinutes, cmd.Cycles))
}

func (h *handler) status() Response {
	var status Status
	switch {
	case !h.endTime.IsZero():
		remaining := h.endTime.Sub(h.now())
		if remaining < 0 {
			remaining = 0
		}
		status = Status{
			RemainingSeconds: int(remaining.Seconds()),
			Running:          true,
			Mode:             h.mode,
			CyclesLeft:       h.cyclesRemaining,
		}
	case h.paused:
		status = Status{
			RemainingSeconds: int(h.pausedRemaining.Seconds()),
			Running:          false,
			Mode:             h.mode,
			CyclesLeft:       h.cyclesRemaining,
		}
	default:
		status = Status{Mode: ModeIdle}
	}
	status.CompletedPomodoros = h.completedPomodoros
	status.TaskID = h.taskID
	return Response{OK: true, Status: &status}
}

func (h *handler) stop(ctx context.Context) Response {
	if h.mode == ModeFocus && (!h.endTime.IsZero() || h.paused) {
		h.recordSession(ctx, false)
	}
	h.reset()
	h.logger.Info("timer stopped")
	return okResponse("Timer stopped")
}

func (h *handler) pause() Response {
	if h.endTime.IsZero() {
		return errorResponse("Timer is not running")
	}
	remaining := h.endTime.Sub(h.now())
	if remaining < 0 {
		remaining = 0
	}
	h.pausedRemaining = remaining
	h.paused = true
	h.endTime = time.Time{}
	return okResponse(fmt.Sprintf("Paused with %ds remaining", int(remaining.Seconds())))
}

func (h *handler) resume() Response {
	if !h.paused {
		return errorResponse("No paused timer found")
	}
	h.endTime = h.now().Add(h.pausedRemaining)
	h.paused = false
	h.pausedRemaining = 0
	return okResponse("Timer resumed")
}

func (h *handler) reset() {
	h.mode = ModeIdle
	h.endTime = time.Time{}
	h.paused = false
	h.pausedRemaining = 0
	h.cyclesRemaining = 0
	h.completedPomodoros = 0
	h.taskID = 0
}

func (h *handler) recordSession(ctx context.Context, completed bool) {
	if h.history == nil {
		return
	}
	session := Session{
		ID:           uuid.NewString(),
		TaskID:       h.taskID,
		StartedAt:    h.focusStarted,
		EndedAt:      h.now(),
		FocusMinutes: int(h.focusDuration.Minutes()),
		Completed:    completed,
	}
	if err := h.history.Record(ctx, session); err != nil {
		h.logger.Warn("record session",
			logging.String(logging.FieldSessionID, session.ID),
			logging.Error(err))
		return
	}
	h.logger.Debug("session recorded",
		logging.String(logging.FieldSessionID, session.ID),
		logging.Bool("completed", completed))
}

// RunDaemon drives the timer daemon until killed. It is the blocking entry
// point behind the daemon command verb.
func RunDaemon(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := newHandler(cfg, logger)
	rt, err := daemon.NewRuntime(daemon.Options{
		SocketPath:     SocketPath(),
		TickInterval:   time.Duration(cfg.Pomodoro.TickIntervalSeconds) * time.Second,
		MaxMessageSize: cfg.Pomodoro.MaxMessageBytes,
	}, h, logger)
	if err != nil {
		return err
	}
	return rt.Run(ctx)
}
