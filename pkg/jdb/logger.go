package jdb

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Logger receives diagnostic output from the client. Implementations must be
// safe for concurrent use. The client logs nothing unless a Logger is
// configured via WithLogger or WithSimpleLogger.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// SimpleLogger writes levelled key/value lines to standard error through the
// stdlib log package.
type SimpleLogger struct {
	logger *log.Logger
}

// NewSimpleLogger returns a SimpleLogger ready for use.
func NewSimpleLogger() *SimpleLogger {
	return &SimpleLogger{logger: log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)}
}

func (l *SimpleLogger) Debug(msg string, keysAndValues ...any) { l.print("DEBUG", msg, keysAndValues) }

func (l *SimpleLogger) Info(msg string, keysAndValues ...any) { l.print("INFO", msg, keysAndValues) }

func (l *SimpleLogger) Warn(msg string, keysAndValues ...any) { l.print("WARN", msg, keysAndValues) }

func (l *SimpleLogger) Error(msg string, keysAndValues ...any) { l.print("ERROR", msg, keysAndValues) }

func (l *SimpleLogger) print(level, msg string, keysAndValues []any) {
	if l == nil || l.logger == nil {
		return
	}
	var b strings.Builder
	b.WriteString(level)
	b.WriteString(" ")
	b.WriteString(msg)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&b, " %s=%v", key, keysAndValues[i+1])
		} else {
			fmt.Fprintf(&b, " %s=", key)
		}
	}
	l.logger.Print(b.String())
}
