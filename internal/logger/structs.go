package logger

// Console configures output to stdout and stderr.
type Console struct {
	Enabled bool `toml:"enabled"`
	// UseConsoleWriter switches from JSON lines to zerolog's human readable format.
	UseConsoleWriter bool
}

// Rotation configures one rolling log file. An empty File disables it.
type Rotation struct {
	File       string `toml:"file"`
	MaxSize    int    `toml:"maxSize"` // megabytes
	MaxBackups int    `toml:"maxBackups"`
	MaxAge     int    `toml:"maxAge"` // days
}

// LogFile configures file output, split by level into rolling files below Path.
type LogFile struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`

	Access Rotation `toml:"access"`
	Error  Rotation `toml:"error"`
	Info   Rotation `toml:"info"` // debug and info
	Trace  Rotation `toml:"trace"`
	Warn   Rotation `toml:"warn"`
}

// Log configures the global logger and the access log.
type Log struct {
	LogLevel string // trace, debug, info, warn or error
	LogEnv   string

	// EnableAccessLogToConsole writes the access log to stdout as well.
	// It has no effect while Console.Enabled is false.
	EnableAccessLogToConsole bool
	ReportCaller             bool
	DisableCheckAlive        bool // do not log health probes

	AppName     string
	ServiceName string

	Console Console
	File    LogFile `toml:"file"`
}
