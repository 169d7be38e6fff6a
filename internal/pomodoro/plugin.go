package pomodoro

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"taiga/internal/config"
	"taiga/internal/logging"
	"taiga/internal/plugin"
)

// Argument bounds for start.
const (
	minFocusMinutes = 1
	maxFocusMinutes = 480
	minBreakMinutes = 1
	maxBreakMinutes = 120
	minCycles       = 1
	maxCycles       = 100
)

// PluginVersion is reported through the capability info surface.
const PluginVersion = "1.0.0"

// Pomo is the pomodoro timer capability. Timer commands talk to the
// background daemon over its socket; the daemon verb runs the daemon loop in
// the current process.
type Pomo struct {
	plugin.Base
	cfg    *config.Config
	logger *slog.Logger
}

// NewPlugin builds the capability around the loaded configuration.
func NewPlugin(cfg *config.Config, logger *slog.Logger) *Pomo {
	return &Pomo{cfg: cfg, logger: logging.NewComponentLogger(logger, "pomo")}
}

func (p *Pomo) Name() string        { return "pomo" }
func (p *Pomo) Version() string     { return PluginVersion }
func (p *Pomo) Description() string { return "Pomodoro timer for focused work sessions" }

func (p *Pomo) Commands() []plugin.CommandDef {
	return []plugin.CommandDef{
		plugin.NewCommand(VerbStart, "Start a new pomodoro session").
			WithUsage("[FOCUS BREAK CYCLES]").
			WithArg(plugin.OptionalArg("FOCUS", "Focus duration in minutes")).
			WithArg(plugin.OptionalArg("BREAK", "Break duration in minutes")).
			WithArg(plugin.OptionalArg("CYCLES", "Number of focus cycles")),
		plugin.NewCommand(VerbStatus, "Show current timer status"),
		plugin.NewCommand(VerbStop, "Stop the current timer"),
		plugin.NewCommand(VerbPause, "Pause the running timer"),
		plugin.NewCommand(VerbResume, "Resume a paused timer"),
		plugin.NewCommand(VerbPing, "Check whether the daemon responds"),
		plugin.NewCommand(VerbKill, "Shut the daemon down"),
		plugin.NewCommand("history", "Show recent focus sessions").
			WithUsage("[COUNT]").
			WithArg(plugin.OptionalArg("COUNT", "Number of sessions to show")),
		plugin.NewCommand("daemon", "Run the timer daemon in this process"),
	}
}

func (p *Pomo) Execute(command string, args []string, ctx *plugin.Context) (plugin.CommandResult, error) {
	switch command {
	case VerbStart:
		return p.startSession(args)
	case VerbStatus:
		return p.statusSession()
	case VerbStop, VerbPause, VerbResume, VerbPing, VerbKill:
		return p.roundTrip(Command{Verb: command})
	case "history":
		return p.showHistory(args)
	case "daemon":
		if err := RunDaemon(context.Background(), p.cfg, p.logger); err != nil {
			return plugin.CommandResult{}, err
		}
		return plugin.Success(""), nil
	}
	return plugin.Failure(fmt.Sprintf("unknown command %q", command)), nil
}

func (p *Pomo) startSession(args []string) (plugin.CommandResult, error) {
	cmd := Command{
		Verb:         VerbStart,
		FocusMinutes: p.cfg.Pomodoro.FocusMinutes,
		BreakMinutes: p.cfg.Pomodoro.BreakMinutes,
		Cycles:       p.cfg.Pomodoro.Cycles,
	}

	if len(args) > 0 {
		if len(args) < 3 {
			return plugin.Failure("usage: pomo start [FOCUS BREAK CYCLES]"), nil
		}
		var err error
		if cmd.FocusMinutes, err = parseBounded("FOCUS", args[0], minFocusMinutes, maxFocusMinutes); err != nil {
			return plugin.CommandResult{}, err
		}
		if cmd.BreakMinutes, err = parseBounded("BREAK", args[1], minBreakMinutes, maxBreakMinutes); err != nil {
			return plugin.CommandResult{}, err
		}
		if cmd.Cycles, err = parseBounded("CYCLES", args[2], minCycles, maxCycles); err != nil {
			return plugin.CommandResult{}, err
		}
	}

	return p.roundTrip(cmd)
}

func (p *Pomo) statusSession() (plugin.CommandResult, error) {
	resp, err := Send(p.cfg, Command{Verb: VerbStatus})
	if err != nil {
		return plugin.CommandResult{}, err
	}
	if resp.Status == nil {
		return resultOf(resp), nil
	}
	return plugin.Success(formatStatus(resp.Status)), nil
}

func (p *Pomo) roundTrip(cmd Command) (plugin.CommandResult, error) {
	resp, err := Send(p.cfg, cmd)
	if err != nil {
		return plugin.CommandResult{}, err
	}
	return resultOf(resp), nil
}

func (p *Pomo) showHistory(args []string) (plugin.CommandResult, error) {
	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return plugin.Failure("COUNT must be a positive number"), nil
		}
		limit = n
	}

	history, err := OpenHistory(p.cfg.HistoryDBPath())
	if err != nil {
		return plugin.CommandResult{}, err
	}
	defer history.Close()

	sessions, err := history.Recent(context.Background(), limit)
	if err != nil {
		return plugin.CommandResult{}, err
	}
	if len(sessions) == 0 {
		return plugin.Success("No sessions recorded yet"), nil
	}

	var b strings.Builder
	for _, s := range sessions {
		state := "abandoned"
		if s.Completed {
			state = "completed"
		}
		fmt.Fprintf(&b, "%s  %2dm focus  %s\n",
			s.StartedAt.Local().Format("2006-01-02 15:04"), s.FocusMinutes, state)
	}
	return plugin.Success(strings.TrimRight(b.String(), "\n")), nil
}

func resultOf(resp Response) plugin.CommandResult {
	if !resp.OK {
		return plugin.Failure(resp.Message)
	}
	return plugin.Success(resp.Message)
}

func formatStatus(s *Status) string {
	if s.Mode == ModeIdle && !s.Running {
		return "Idle"
	}
	state := "Running"
	if !s.Running {
		state = "Paused"
	}
	return fmt.Sprintf("%s | Mode: %s | Time: %d:%02d | Cycles left: %d",
		state, s.Mode, s.RemainingSeconds/60, s.RemainingSeconds%60, s.CyclesLeft)
}

func parseBounded(name, raw string, min, max int) (int, error) {
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, raw)
	}
	if value < min || value > max {
		return 0, fmt.Errorf("%s must be between %d and %d, got %d", name, min, max, value)
	}
	return value, nil
}
