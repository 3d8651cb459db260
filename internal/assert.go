package internal

import (
	"context"

	"github.com/xaionaro-go/rsframe/logger"
)

// Assertf panics with the formatted message if cond is false.
func Assertf(
	ctx context.Context,
	cond bool,
	format string,
	args ...any,
) {
	if cond {
		return
	}
	logger.Panicf(ctx, "assertion failed: "+format, args...)
}
