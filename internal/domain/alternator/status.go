package alternator

import "time"

// Status is a snapshot of the alternator as seen by callers.
type Status struct {
	// RunID identifies the current or most recent run. Empty before the first start.
	RunID string
	// StartedAt is when the current or most recent run was started.
	StartedAt time.Time
	// Config holds the durations that the next phase will use.
	Config Config
	// Phase is the worker state at the time of the snapshot.
	Phase Phase
	// Cycles counts completed burst and scan pairs of the current or most recent run.
	Cycles uint64
	// Running reports that a worker exists, from Start until the worker has exited.
	Running bool
	// Paused mirrors the pause signal.
	Paused bool
	// StopRequested mirrors the stop signal.
	StopRequested bool
}
