package soft

import (
	"go.uber.org/atomic"
)

type counters struct {
	AddRefCalls   atomic.Uint64
	ReleaseCalls  atomic.Uint64
	Allocated     atomic.Uint64
	Freed         atomic.Uint64
	QuotaExceeded atomic.Uint64
	QueueDrops    atomic.Uint64
	Processed     atomic.Uint64
	FreedErrors   atomic.Uint64
}

// Stats is a snapshot of the runtime counters.
type Stats struct {
	AddRefCalls   uint64
	ReleaseCalls  uint64
	Allocated     uint64
	Freed         uint64
	LiveFrames    uint64
	QuotaExceeded uint64
	QueueDrops    uint64
	Processed     uint64
	FreedErrors   uint64
}

func (r *Runtime) Stats() Stats {
	s := Stats{
		AddRefCalls:   r.stats.AddRefCalls.Load(),
		ReleaseCalls:  r.stats.ReleaseCalls.Load(),
		Allocated:     r.stats.Allocated.Load(),
		Freed:         r.stats.Freed.Load(),
		QuotaExceeded: r.stats.QuotaExceeded.Load(),
		QueueDrops:    r.stats.QueueDrops.Load(),
		Processed:     r.stats.Processed.Load(),
		FreedErrors:   r.stats.FreedErrors.Load(),
	}
	r.do(func() {
		s.LiveFrames = uint64(len(r.frames))
	})
	return s
}
