package alternator

import "strings"

// Phase is a state of the worker state machine.
type Phase uint8

const (
	// PhaseIdle means no worker exists.
	PhaseIdle Phase = iota
	// PhaseBurst means the burst subsystem owns the radio.
	PhaseBurst
	// PhaseScan means the scan subsystem owns the radio.
	PhaseScan
	// PhasePaused means the worker is suspended and neither subsystem is active.
	PhasePaused
	// PhaseTerminated means the worker is exiting.
	PhaseTerminated
)

// phaseNames maps phases to their wire and log names.
//
//nolint:gochecknoglobals // Read-only lookup table.
var phaseNames = [...]string{
	PhaseIdle:       "idle",
	PhaseBurst:      "burst",
	PhaseScan:       "scan",
	PhasePaused:     "paused",
	PhaseTerminated: "terminated",
}

// String returns the lowercase phase name.
func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}

	return "unknown"
}

// Next returns the timed phase that follows p: burst and scan alternate,
// and every other phase resumes from burst.
func (p Phase) Next() Phase {
	if p == PhaseBurst {
		return PhaseScan
	}

	return PhaseBurst
}

// IsTimed reports whether the phase activates a subsystem for a fixed window.
func (p Phase) IsTimed() bool {
	return p == PhaseBurst || p == PhaseScan
}

// ParsePhase converts a phase name back to a Phase.
func ParsePhase(s string) (Phase, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range phaseNames {
		if name == s {
			return Phase(i), true
		}
	}

	return PhaseIdle, false
}
