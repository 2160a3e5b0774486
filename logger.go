package tirta

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Logger is the minimal structured logging interface the package emits to.
// Keys and values alternate, slog style. The package never logs unless a
// Logger is configured.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// SimpleLogger is a console Logger for development use.
type SimpleLogger struct {
	out *log.Logger
}

// NewSimpleLogger returns a SimpleLogger writing to stderr.
func NewSimpleLogger() *SimpleLogger {
	return &SimpleLogger{out: log.New(os.Stderr, "tirta ", log.LstdFlags|log.Lmicroseconds)}
}

// Debug logs at debug level.
func (l *SimpleLogger) Debug(msg string, keysAndValues ...any) { l.log("DEBUG", msg, keysAndValues) }

// Info logs at info level.
func (l *SimpleLogger) Info(msg string, keysAndValues ...any) { l.log("INFO", msg, keysAndValues) }

// Warn logs at warn level.
func (l *SimpleLogger) Warn(msg string, keysAndValues ...any) { l.log("WARN", msg, keysAndValues) }

// Error logs at error level.
func (l *SimpleLogger) Error(msg string, keysAndValues ...any) { l.log("ERROR", msg, keysAndValues) }

func (l *SimpleLogger) log(level, msg string, kv []any) {
	var b strings.Builder
	b.WriteString(level)
	b.WriteString(" ")
	b.WriteString(msg)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	if len(kv)%2 == 1 {
		fmt.Fprintf(&b, " %v=<missing>", kv[len(kv)-1])
	}
	l.out.Println(b.String())
}
