package alternator

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/oshokin/radio-alternator/internal/domain/alternator"
)

// Subsystem is one of the two exclusive radio users driven by the alternator.
// Both calls are expected to return quickly; a failure is logged and the cycle goes on.
type Subsystem interface {
	Begin(ctx context.Context) error
	End(ctx context.Context) error
}

// Observer receives lifecycle notifications from the worker.
// Implementations must not block.
type Observer interface {
	RunStarted(runID string)
	RunFinished(runID string)
	Transition(from, to domain.Phase)
	PhaseCompleted(phase domain.Phase, elapsed time.Duration)
	SubsystemFailed(phase domain.Phase, operation string)
}

const (
	// OperationBegin labels failures of Subsystem.Begin.
	OperationBegin = "begin"
	// OperationEnd labels failures of Subsystem.End.
	OperationEnd = "end"
)

// errSubsystemPanic wraps a value recovered from a panicking subsystem call.
var errSubsystemPanic = errors.New("subsystem panicked")

// noopObserver is used when no observer is configured.
type noopObserver struct{}

// RunStarted ignores the event.
func (noopObserver) RunStarted(string) {}

// RunFinished ignores the event.
func (noopObserver) RunFinished(string) {}

// Transition ignores the event.
func (noopObserver) Transition(domain.Phase, domain.Phase) {}

// PhaseCompleted ignores the event.
func (noopObserver) PhaseCompleted(domain.Phase, time.Duration) {}

// SubsystemFailed ignores the event.
func (noopObserver) SubsystemFailed(domain.Phase, string) {}

// idleSubsystem stands in for a missing subsystem.
type idleSubsystem struct{}

// Begin does nothing.
func (idleSubsystem) Begin(context.Context) error { return nil }

// End does nothing.
func (idleSubsystem) End(context.Context) error { return nil }

// safeCall invokes fn and converts a panic into an error.
func safeCall(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%w: %v", errSubsystemPanic, recovered)
		}
	}()

	return fn(ctx)
}
