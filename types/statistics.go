package types

import (
	"go.uber.org/atomic"
)

// BlockStatistics is a snapshot of BlockCounters.
type BlockStatistics struct {
	Submitted uint64 `json:",omitempty"`
	Generated uint64 `json:",omitempty"`
	Retrieved uint64 `json:",omitempty"`
	Dropped   uint64 `json:",omitempty"`
	Missed    uint64 `json:",omitempty"`
	Failed    uint64 `json:",omitempty"`
	DataBytes uint64 `json:",omitempty"`
}

// BlockCounters counts what happens to the frames passing through a
// processing block.
type BlockCounters struct {
	// Submitted is the amount of frames handed to the native block.
	Submitted atomic.Uint64
	// Generated is the amount of frames the block published.
	Generated atomic.Uint64
	// Retrieved is the amount of published frames returned to callers.
	Retrieved atomic.Uint64
	// Dropped is the amount of published frames replaced by a newer one
	// before being retrieved.
	Dropped atomic.Uint64
	// Missed is the amount of submissions that produced nothing.
	Missed atomic.Uint64
	// Failed is the amount of submissions rejected by the native layer.
	Failed atomic.Uint64
	// DataBytes is the total size of retrieved frames.
	DataBytes atomic.Uint64
}

func (c *BlockCounters) ToStats() BlockStatistics {
	return BlockStatistics{
		Submitted: c.Submitted.Load(),
		Generated: c.Generated.Load(),
		Retrieved: c.Retrieved.Load(),
		Dropped:   c.Dropped.Load(),
		Missed:    c.Missed.Load(),
		Failed:    c.Failed.Load(),
		DataBytes: c.DataBytes.Load(),
	}
}
