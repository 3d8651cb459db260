//go:build !debug_trace
// +build !debug_trace

package logger

import (
	"context"

	"github.com/facebookincubator/go-belt/pkg/field"
)

// Trace-level logging is compiled out unless built with the debug_trace tag.

func TraceFields(ctx context.Context, message string, fields field.AbstractFields) {}

func Tracef(ctx context.Context, format string, args ...any) {}
