package alternator

import (
	"context"
	"time"

	domain "github.com/oshokin/radio-alternator/internal/domain/alternator"
	"github.com/oshokin/radio-alternator/internal/logger"
)

// work is the worker body. The top of the loop is the checkpoint: it runs
// before every phase and right after every timed wait. Stop wins over pause.
func (a *Alternator) work(ctx context.Context, r *run) {
	a.signals.Set(SignalRunning)
	a.observer.RunStarted(r.id)
	logger.Info(ctx, "Worker started")

	defer a.finish(ctx, r)

	next := domain.PhaseBurst

	for {
		bits := a.signals.Load()
		if bits.Has(SignalStop) {
			return
		}

		if bits.Has(SignalPause) {
			if !a.pause(ctx, r) {
				return
			}

			next = domain.PhaseBurst

			continue
		}

		a.runPhase(ctx, r, next)
		next = next.Next()
	}
}

// runPhase performs the begin, wait, end triple of one timed phase.
// The wait always runs to the end of the window.
func (a *Alternator) runPhase(ctx context.Context, r *run, phase domain.Phase) {
	a.mu.Lock()
	duration := a.cfg.Duration(phase)
	a.mu.Unlock()

	subsystem := a.burst
	if phase == domain.PhaseScan {
		subsystem = a.scan
	}

	a.transition(r, phase)
	logger.DebugKV(ctx, "Phase started", "phase", phase.String(), "duration", duration.String())

	started := time.Now()

	a.call(ctx, phase, OperationBegin, subsystem.Begin)
	time.Sleep(duration)
	a.call(ctx, phase, OperationEnd, subsystem.End)

	a.observer.PhaseCompleted(phase, time.Since(started))

	if phase == domain.PhaseScan {
		a.mu.Lock()
		r.cycles++
		a.mu.Unlock()
	}
}

// pause suspends the worker until resume or stop and reports whether to continue.
func (a *Alternator) pause(ctx context.Context, r *run) bool {
	a.transition(r, domain.PhasePaused)
	logger.Info(ctx, "Paused, waiting for resume or stop")

	bits, err := a.signals.Wait(ctx, func(bits Signal) bool {
		return bits.Has(SignalStop) || !bits.Has(SignalPause)
	})
	if err != nil || bits.Has(SignalStop) {
		return false
	}

	logger.Info(ctx, "Resumed")

	return true
}

// finish moves the run to terminated, clears the running signal and releases the handle.
func (a *Alternator) finish(ctx context.Context, r *run) {
	a.transition(r, domain.PhaseTerminated)
	a.observer.RunFinished(r.id)

	a.mu.Lock()
	cycles := r.cycles
	a.signals.Clear(SignalRunning)

	if a.current == r {
		a.current = nil
	}

	a.last = r
	a.mu.Unlock()

	logger.InfoKV(ctx, "Worker stopped", "cycles", cycles)
	close(r.done)
}

// transition records the new phase and notifies the observer.
func (a *Alternator) transition(r *run, to domain.Phase) {
	a.mu.Lock()
	from := r.phase
	r.phase = to
	a.mu.Unlock()

	a.observer.Transition(from, to)
}

// call runs one subsystem entry point, logging and counting its failure.
func (a *Alternator) call(ctx context.Context, phase domain.Phase, operation string, fn func(context.Context) error) {
	err := safeCall(ctx, fn)
	if err == nil {
		return
	}

	logger.ErrorKV(ctx, "Subsystem call failed", "phase", phase.String(), "operation", operation, "error", err)
	a.observer.SubsystemFailed(phase, operation)
}
