package log

import (
	"io"
	"os"

	"github.com/op/go-logging"
)

type Level logging.Level

// The levels that can be passed to the SetLevel function.
const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

// The logger format
var format = logging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
)

// The internal leveled logger backend
var leveledBackend logging.LeveledBackend

// Levels survive a change of sink
var (
	globalLevel  = logging.NOTICE
	moduleLevels = map[string]logging.Level{}
)

// Logger is the leveled logger used by every package of the renderer.
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// New creates a logger for the given module name.
func New(module string) Logger {
	return logging.MustGetLogger(module)
}

// SetSink overrides the backend output sink. The global and per-module
// levels in effect are kept.
func SetSink(sink io.Writer) {
	backend := logging.NewLogBackend(sink, "", 0)
	backendWithFormatter := logging.NewBackendFormatter(backend, format)
	leveledBackend = logging.AddModuleLevel(backendWithFormatter)
	leveledBackend.SetLevel(globalLevel, "")
	for module, level := range moduleLevels {
		leveledBackend.SetLevel(level, module)
	}
	logging.SetBackend(leveledBackend)
}

// Discard silences all output, for tests and embedded use.
func Discard() {
	SetSink(io.Discard)
}

// SetLevel sets logger verbosity for all modules.
func SetLevel(level Level) {
	globalLevel = toLoggingLevel(level)
	leveledBackend.SetLevel(globalLevel, "")
}

// SetModuleLevel sets logger verbosity for a single module.
func SetModuleLevel(module string, level Level) {
	moduleLevels[module] = toLoggingLevel(level)
	leveledBackend.SetLevel(moduleLevels[module], module)
}

func toLoggingLevel(level Level) logging.Level {
	switch level {
	case Debug:
		return logging.DEBUG
	case Info:
		return logging.INFO
	case Warning:
		return logging.WARNING
	case Error:
		return logging.ERROR
	default:
		return logging.NOTICE
	}
}

func init() {
	SetSink(os.Stderr)
}
