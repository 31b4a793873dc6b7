// Package log is a small leveled key/value logger for the planner's internal
// components. main keeps using the standard logger for fatal startup errors.
package log

import (
	"fmt"
	stdlog "log"
	"os"
	"strings"
	"sync"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

var (
	mu       sync.Mutex
	out      = stdlog.New(os.Stderr, "", stdlog.LstdFlags|stdlog.Lmicroseconds)
	minLevel = LevelInfo
)

func SetLevel(l Level) {
	mu.Lock()
	minLevel = l
	mu.Unlock()
}

func Debug(msg string, kv ...any) { write(LevelDebug, "DEBUG", msg, kv) }

func Info(msg string, kv ...any) { write(LevelInfo, "INFO", msg, kv) }

// Error logs msg with err prepended to the key/value pairs.
func Error(msg string, err error, kv ...any) {
	write(LevelError, "ERROR", msg, append([]any{"err", err}, kv...))
}

func write(l Level, tag, msg string, kv []any) {
	mu.Lock()
	skip := l < minLevel
	mu.Unlock()
	if skip {
		return
	}

	var b strings.Builder
	b.WriteString("[" + tag + "] " + msg)
	// kv comes in pairs; a trailing odd value is dropped.
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, " %s=%v", key, kv[i+1])
	}
	out.Println(b.String())
}
