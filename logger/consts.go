package logger

import (
	"github.com/facebookincubator/go-belt/tool/logger"
)

// Level is the verbosity of a log entry.
type Level = logger.Level

const (
	LevelUndefined = logger.LevelUndefined
	LevelFatal     = logger.LevelFatal
	LevelPanic     = logger.LevelPanic
	LevelError     = logger.LevelError
	LevelWarning   = logger.LevelWarning
	LevelInfo      = logger.LevelInfo
	LevelDebug     = logger.LevelDebug

	// LevelTrace is only reachable when built with the debug_trace tag;
	// otherwise Trace* calls are compiled into no-ops.
	LevelTrace = logger.LevelTrace
)
