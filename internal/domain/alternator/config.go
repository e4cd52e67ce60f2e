package alternator

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultBurstDuration is how long the burst subsystem stays active per cycle.
	DefaultBurstDuration = 300 * time.Millisecond
	// DefaultScanDuration is how long the scan subsystem stays active per cycle.
	DefaultScanDuration = 700 * time.Millisecond
)

// ErrInvalidDuration is returned when a phase duration is negative.
var ErrInvalidDuration = errors.New("phase duration must not be negative")

// Config holds the phase durations of a single run.
type Config struct {
	// BurstDuration is the timed window of the burst phase.
	BurstDuration time.Duration
	// ScanDuration is the timed window of the scan phase.
	ScanDuration time.Duration
}

// DefaultConfig returns the 300ms burst / 700ms scan duty cycle.
func DefaultConfig() Config {
	return Config{
		BurstDuration: DefaultBurstDuration,
		ScanDuration:  DefaultScanDuration,
	}
}

// WithDefaults returns a copy where zero durations are replaced by the defaults.
func (c Config) WithDefaults() Config {
	if c.BurstDuration == 0 {
		c.BurstDuration = DefaultBurstDuration
	}

	if c.ScanDuration == 0 {
		c.ScanDuration = DefaultScanDuration
	}

	return c
}

// Validate rejects negative durations.
func (c Config) Validate() error {
	if c.BurstDuration < 0 {
		return fmt.Errorf("burst duration %s: %w", c.BurstDuration, ErrInvalidDuration)
	}

	if c.ScanDuration < 0 {
		return fmt.Errorf("scan duration %s: %w", c.ScanDuration, ErrInvalidDuration)
	}

	return nil
}

// Duration returns the configured window for the given phase, zero for non-timed phases.
func (c Config) Duration(phase Phase) time.Duration {
	switch phase {
	case PhaseBurst:
		return c.BurstDuration
	case PhaseScan:
		return c.ScanDuration
	default:
		return 0
	}
}
