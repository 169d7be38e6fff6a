package pomodoro

import (
	"time"

	"taiga/internal/config"
	"taiga/internal/daemon"
)

// Send delivers one command to the timer daemon, launching it first when
// nothing is listening on the socket.
func Send(cfg *config.Config, cmd Command) (Response, error) {
	return daemon.Send[Command, Response](daemon.ClientOptions{
		SocketPath:     SocketPath(),
		MaxMessageSize: cfg.Pomodoro.MaxMessageBytes,
		Spawn: &daemon.SpawnOptions{
			Args:        spawnArgs(cfg),
			StartupWait: time.Duration(cfg.Pomodoro.StartupWaitMillis) * time.Millisecond,
		},
	}, cmd)
}

// spawnArgs builds the argv the daemon is launched with. The config path is
// forwarded so the spawned process resolves the same configuration as the
// client instead of the default location.
func spawnArgs(cfg *config.Config) []string {
	args := []string{"pomo", "daemon"}
	if cfg.SourcePath != "" {
		args = append(args, "--config", cfg.SourcePath)
	}
	return args
}
