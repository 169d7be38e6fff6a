package config

const (
	defaultDataDir       = "~/.local/share/taiga"
	defaultLogDir        = "~/.local/share/taiga/logs"
	defaultTaskFilename  = "tasks.md"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultFocusMinutes  = 25
	defaultBreakMinutes  = 5
	defaultLongBreakMins = 15
	defaultPomosPerLong  = 4
	defaultCycles        = 4
	defaultTickSeconds   = 1
	defaultStartupWaitMS = 500
	defaultMaxMsgBytes   = 64 * 1024
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Tasks: Tasks{
			Filename: defaultTaskFilename,
		},
		Pomodoro: Pomodoro{
			FocusMinutes:             defaultFocusMinutes,
			BreakMinutes:             defaultBreakMinutes,
			LongBreakMinutes:         defaultLongBreakMins,
			PomodorosBeforeLongBreak: defaultPomosPerLong,
			Cycles:                   defaultCycles,
			TickIntervalSeconds:      defaultTickSeconds,
			StartupWaitMillis:        defaultStartupWaitMS,
			MaxMessageBytes:          defaultMaxMsgBytes,
			HistoryEnabled:           true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
