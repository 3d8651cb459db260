package internal

import (
	"context"
	"runtime"

	"github.com/xaionaro-go/rsframe/logger"
)

// SetFinalizerRelease makes the GC give back the native reference of a
// wrapper that was dropped without being released.
func SetFinalizerRelease[T interface{ ReleaseLeaked(context.Context) bool }](
	ctx context.Context,
	obj T,
) {
	runtime.SetFinalizer(obj, func(obj T) {
		if obj.ReleaseLeaked(ctx) {
			logger.Warnf(ctx, "%T was garbage collected without being released", obj)
		}
	})
}
