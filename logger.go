package kurir

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the log sink capability. Key-value pairs follow the message.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// DebugConfig gates per-concern debug logging.
type DebugConfig struct {
	Enabled    bool
	LogRetries bool
	LogCache   bool
	LogAuth    bool
}

// DefaultDebugConfig enables all concerns but leaves debug off.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		LogRetries: true,
		LogCache:   true,
		LogAuth:    true,
	}
}

// SimpleLogger writes leveled lines to stderr via the standard log package.
type SimpleLogger struct {
	out *log.Logger
}

// NewSimpleLogger returns a console logger.
func NewSimpleLogger() *SimpleLogger {
	return &SimpleLogger{out: log.New(os.Stderr, "kurir ", log.LstdFlags)}
}

func (l *SimpleLogger) Debug(msg string, keysAndValues ...any) { l.print("DEBUG", msg, keysAndValues) }
func (l *SimpleLogger) Info(msg string, keysAndValues ...any)  { l.print("INFO", msg, keysAndValues) }
func (l *SimpleLogger) Warn(msg string, keysAndValues ...any)  { l.print("WARN", msg, keysAndValues) }
func (l *SimpleLogger) Error(msg string, keysAndValues ...any) { l.print("ERROR", msg, keysAndValues) }

func (l *SimpleLogger) print(level, msg string, kv []any) {
	var b strings.Builder
	b.WriteString("[" + level + "] " + msg)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	l.out.Print(b.String())
}

// ZerologLogger adapts a zerolog.Logger to the Logger capability.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger wraps a zerolog logger.
func NewZerologLogger(logger zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{logger: logger}
}

func (l *ZerologLogger) Debug(msg string, keysAndValues ...any) {
	l.emit(l.logger.Debug(), msg, keysAndValues)
}

func (l *ZerologLogger) Info(msg string, keysAndValues ...any) {
	l.emit(l.logger.Info(), msg, keysAndValues)
}

func (l *ZerologLogger) Warn(msg string, keysAndValues ...any) {
	l.emit(l.logger.Warn(), msg, keysAndValues)
}

func (l *ZerologLogger) Error(msg string, keysAndValues ...any) {
	l.emit(l.logger.Error(), msg, keysAndValues)
}

func (l *ZerologLogger) emit(ev *zerolog.Event, msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}
