package alternator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/oshokin/radio-alternator/internal/domain/alternator"
	"github.com/oshokin/radio-alternator/internal/logger"
)

// ErrAlreadyRunning is returned by Start when a worker already exists.
// It is informational: the existing run is left untouched.
var ErrAlreadyRunning = errors.New("alternator is already running")

// Alternator alternates the burst and scan subsystems on a fixed duty cycle.
type Alternator struct {
	// burst is started and stopped during the burst phase.
	burst Subsystem
	// scan is started and stopped during the scan phase.
	scan Subsystem
	// observer is notified about runs, transitions and failures.
	observer Observer
	// signals is the control signal set shared with the worker.
	signals *Signals

	// cfg holds the durations read at the top of each phase.
	cfg domain.Config
	// current is the single worker handle, nil when no worker exists.
	current *run
	// last is the most recent run, kept for status reporting.
	last *run
	// mu protects cfg, current, last and the run fields.
	mu sync.Mutex
}

// run is the handle of one worker lifetime.
type run struct {
	// id identifies the run in logs, metrics and status.
	id string
	// startedAt is when Start spawned the worker.
	startedAt time.Time
	// done is closed after the worker released its handle.
	done chan struct{}
	// phase is the worker state, guarded by Alternator.mu.
	phase domain.Phase
	// cycles counts completed burst and scan pairs, guarded by Alternator.mu.
	cycles uint64
}

// Option configures an Alternator.
type Option func(*Alternator)

// WithConfig sets the initial phase durations.
func WithConfig(cfg domain.Config) Option {
	return func(a *Alternator) {
		if cfg.Validate() == nil {
			a.cfg = cfg.WithDefaults()
		}
	}
}

// WithObserver registers an observer for worker notifications.
func WithObserver(observer Observer) Option {
	return func(a *Alternator) {
		if observer != nil {
			a.observer = observer
		}
	}
}

// New creates an idle alternator driving the provided subsystems.
func New(burst, scan Subsystem, opts ...Option) *Alternator {
	a := &Alternator{
		burst:    burst,
		scan:     scan,
		observer: noopObserver{},
		signals:  NewSignals(),
		cfg:      domain.DefaultConfig(),
	}

	if a.burst == nil {
		a.burst = idleSubsystem{}
	}

	if a.scan == nil {
		a.scan = idleSubsystem{}
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start spawns the worker and returns without waiting for it to run.
// A nil cfg keeps the current durations. When a worker already exists
// ErrAlreadyRunning is returned and nothing changes.
func (a *Alternator) Start(ctx context.Context, cfg *domain.Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current != nil {
		logger.InfoKV(ctx, "Alternator already running", "run_id", a.current.id)

		return ErrAlreadyRunning
	}

	if cfg != nil {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}

		a.cfg = cfg.WithDefaults()
	}

	a.signals.Clear(SignalStop | SignalPause)

	r := &run{
		id:        "run_" + uuid.NewString(),
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}
	a.current = r

	// The worker outlives the caller's request, so only the logger values are kept.
	workerCtx := logger.WithKV(logger.WithName(context.WithoutCancel(ctx), "alternator"), "run_id", r.id)

	go a.work(workerCtx, r)

	logger.InfoKV(
		ctx,
		"Alternator started",
		"run_id", r.id,
		"burst_duration", a.cfg.BurstDuration.String(),
		"scan_duration", a.cfg.ScanDuration.String(),
	)

	return nil
}

// Stop asks the worker to terminate after its current phase. It never blocks.
func (a *Alternator) Stop(ctx context.Context) {
	bits := a.signals.Set(SignalStop)

	logger.InfoKV(ctx, "Alternator stop requested", "running", bits.Has(SignalRunning))
}

// TogglePause flips the pause signal and reports whether pausing is now requested.
// The worker honours it at its next checkpoint.
func (a *Alternator) TogglePause(ctx context.Context) bool {
	paused := a.signals.Toggle(SignalPause).Has(SignalPause)

	if paused {
		logger.Info(ctx, "Alternator pause requested")
	} else {
		logger.Info(ctx, "Alternator resume requested")
	}

	return paused
}

// IsRunning reports whether the worker is alive.
func (a *Alternator) IsRunning() bool {
	return a.signals.Load().Has(SignalRunning)
}

// Wait blocks until the current worker exits or ctx is done.
// It returns immediately when there is no worker.
func (a *Alternator) Wait(ctx context.Context) error {
	a.mu.Lock()
	r := a.current
	a.mu.Unlock()

	if r == nil {
		return nil
	}

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetBurstDuration changes the burst window starting with the next burst phase.
func (a *Alternator) SetBurstDuration(ctx context.Context, d time.Duration) {
	a.setDuration(ctx, domain.PhaseBurst, d)
}

// SetScanDuration changes the scan window starting with the next scan phase.
func (a *Alternator) SetScanDuration(ctx context.Context, d time.Duration) {
	a.setDuration(ctx, domain.PhaseScan, d)
}

// Status returns a snapshot of the alternator. Running reports that a worker
// handle exists, so it is already true when Start returns.
func (a *Alternator) Status() *domain.Status {
	bits := a.signals.Load()

	a.mu.Lock()
	defer a.mu.Unlock()

	status := &domain.Status{
		Config:        a.cfg,
		Phase:         domain.PhaseIdle,
		Running:       a.current != nil,
		Paused:        bits.Has(SignalPause),
		StopRequested: bits.Has(SignalStop),
	}

	r := a.current
	if r != nil {
		status.Phase = r.phase
	} else {
		r = a.last
	}

	if r != nil {
		status.RunID = r.id
		status.StartedAt = r.startedAt
		status.Cycles = r.cycles
	}

	return status
}

// setDuration stores a positive duration for the given phase.
func (a *Alternator) setDuration(ctx context.Context, phase domain.Phase, d time.Duration) {
	if d <= 0 {
		logger.WarnKV(ctx, "Ignoring non-positive phase duration", "phase", phase.String(), "duration", d.String())

		return
	}

	a.mu.Lock()
	if phase == domain.PhaseBurst {
		a.cfg.BurstDuration = d
	} else {
		a.cfg.ScanDuration = d
	}
	a.mu.Unlock()

	logger.InfoKV(ctx, "Phase duration updated", "phase", phase.String(), "duration", d.String())
}
