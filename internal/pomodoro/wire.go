package pomodoro

// Mode is the timer phase.
type Mode string

const (
	ModeIdle  Mode = "idle"
	ModeFocus Mode = "focus"
	ModeBreak Mode = "break"
)

// Daemon command verbs.
const (
	VerbStart  = "start"
	VerbStatus = "status"
	VerbStop   = "stop"
	VerbPause  = "pause"
	VerbResume = "resume"
	VerbPing   = "ping"
	VerbKill   = "kill"
)

// Command is one client request to the timer daemon.
type Command struct {
	Verb         string `json:"verb"`
	TaskID       int    `json:"task_id,omitempty"`
	FocusMinutes int    `json:"focus_minutes,omitempty"`
	BreakMinutes int    `json:"break_minutes,omitempty"`
	Cycles       int    `json:"cycles,omitempty"`
}

// Status is a snapshot of the timer.
type Status struct {
	RemainingSeconds   int  `json:"remaining_seconds"`
	Running            bool `json:"running"`
	Mode               Mode `json:"mode"`
	CyclesLeft         int  `json:"cycles_left"`
	CompletedPomodoros int  `json:"completed_pomodoros"`
	TaskID             int  `json:"task_id,omitempty"`
}

// Response is the daemon's reply to a command.
type Response struct {
	OK      bool    `json:"ok"`
	Message string  `json:"message,omitempty"`
	Status  *Status `json:"status,omitempty"`
}

func okResponse(message string) Response {
	return Response{OK: true, Message: message}
}

func errorResponse(message string) Response {
	return Response{OK: false, Message: message}
}
