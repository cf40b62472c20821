package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/lni/dragonboat/v4/logger"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboat's logger.ILogger)
// --------------------------------------------------------------------------

// output is shared by all named loggers, each line is written atomically
var output = log.New(os.Stderr, "", log.Ldate|log.Ltime)

// SetLogOutput redirects every zKV logger, e.g. into a test buffer
func SetLogOutput(w io.Writer) {
	output.SetOutput(w)
}

// zKVLogger writes "LEVEL | name | message" lines. Stdout stays free for
// command output of the CLI.
type zKVLogger struct {
	name  string
	level logger.LogLevel
}

func (l *zKVLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *zKVLogger) Debugf(format string, args ...interface{}) {
	l.logf(logger.DEBUG, "DEBUG", format, args...)
}

func (l *zKVLogger) Infof(format string, args ...interface{}) {
	l.logf(logger.INFO, "INFO", format, args...)
}

func (l *zKVLogger) Warningf(format string, args ...interface{}) {
	l.logf(logger.WARNING, "WARN", format, args...)
}

func (l *zKVLogger) Errorf(format string, args ...interface{}) {
	l.logf(logger.ERROR, "ERROR", format, args...)
}

// Panicf logs at every level and panics with the message
func (l *zKVLogger) Panicf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	l.write("PANIC", message)
	panic(message)
}

func (l *zKVLogger) logf(level logger.LogLevel, levelStr string, format string, args ...interface{}) {
	if l.level < level {
		return
	}
	l.write(levelStr, fmt.Sprintf(format, args...))
}

func (l *zKVLogger) write(levelStr, message string) {
	output.Printf("%-5s | %-9s | %s", levelStr, l.name, message)
}

// CreateLogger is the logger.Factory for every named logger of the process
func CreateLogger(pkgName string) logger.ILogger {
	return &zKVLogger{name: pkgName, level: logger.INFO}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// loggerNames lists the named loggers used across zKV
var loggerNames = []string{"server", "transport", "db", "client"}

// ParseLogLevel converts a level name (debug, info, warn, error) to a
// logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return 0, fmt.Errorf("invalid log level %q, must be one of debug, info, warn, error", level)
	}
}

// InitLoggers installs the zKV formatter and applies the configured level
// to every named logger
func InitLoggers(config ServerConfig) error {
	level, err := ParseLogLevel(config.LogLevel)
	if err != nil {
		return err
	}

	logger.SetLoggerFactory(CreateLogger)

	for _, name := range loggerNames {
		logger.GetLogger(name).SetLevel(level)
	}
	return nil
}
