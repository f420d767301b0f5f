// Package spfslog is spfs's leveled, colorized logging. Used by
// repository operations that need to report a
// recovered race (e.g. a commit_dir dedup onto an existing package) at
// debug level without treating it as an error.
package spfslog

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spkenv/spfs/internal/colors"
)

// Level is a logger's minimum severity to emit.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Logger writes leveled, optionally colorized lines through a stdlib
// log.Logger, so output carries the usual date/time prefix.
type Logger struct {
	l     *log.Logger
	level Level
}

// New returns a Logger writing to out at minimum severity level.
func New(out io.Writer, level Level) *Logger {
	return &Logger{l: log.New(out, "", log.LstdFlags), level: level}
}

// Default returns a Logger writing to stderr at LevelInfo, honoring
// NO_COLOR/FORCE_COLOR the same way internal/colors does.
func Default() *Logger {
	return New(os.Stderr, LevelInfo)
}

func (lg *Logger) log(level Level, format string, args ...any) {
	if level < lg.level {
		return
	}
	lg.l.Printf("%s %s", levelTag(level), fmt.Sprintf(format, args...))
}

func levelTag(level Level) string {
	tag := "[" + level.String() + "]"
	switch level {
	case LevelDebug:
		return colors.Gray(tag)
	case LevelInfo:
		return colors.Cyan(tag)
	case LevelWarn:
		return colors.Yellow(tag)
	case LevelError:
		return colors.Red(tag)
	default:
		return tag
	}
}

func (lg *Logger) Debugf(format string, args ...any) { lg.log(LevelDebug, format, args...) }
func (lg *Logger) Infof(format string, args ...any)  { lg.log(LevelInfo, format, args...) }
func (lg *Logger) Warnf(format string, args ...any)  { lg.log(LevelWarn, format, args...) }
func (lg *Logger) Errorf(format string, args ...any) { lg.log(LevelError, format, args...) }
