package alternator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/radio-alternator/internal/domain/alternator"
)

var errTestBegin = errors.New("test begin error")

// call is one recorded subsystem invocation.
type call struct {
	// name is the subsystem that was called.
	name string
	// operation is "begin" or "end".
	operation string
	// at is the offset from the recorder creation time.
	at time.Duration
}

// recorder tracks calls of both fake subsystems and checks they never overlap.
type recorder struct {
	// start is the reference time for call offsets.
	start time.Time
	// calls holds every recorded call in order.
	calls []call
	// active is the subsystem that has begun and not yet ended.
	active string
	// overlaps counts begins issued while another subsystem was active.
	overlaps int
	// mu protects the fields above.
	mu sync.Mutex
}

// newRecorder creates a recorder anchored at the current time.
func newRecorder() *recorder {
	return &recorder{start: time.Now()}
}

// record stores a call and updates the exclusivity bookkeeping.
func (r *recorder) record(name, operation string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch operation {
	case OperationBegin:
		if r.active != "" {
			r.overlaps++
		}

		r.active = name
	case OperationEnd:
		if r.active == name {
			r.active = ""
		}
	}

	r.calls = append(r.calls, call{name: name, operation: operation, at: time.Since(r.start)})
}

// snapshot returns a copy of the recorded calls.
func (r *recorder) snapshot() []call {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]call(nil), r.calls...)
}

// activeSubsystem returns the subsystem currently holding the radio.
func (r *recorder) activeSubsystem() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.active
}

// fakeSubsystem records its calls and can be told to misbehave.
type fakeSubsystem struct {
	// name labels recorded calls.
	name string
	// rec receives the calls.
	rec *recorder
	// beginErr is returned from Begin.
	beginErr error
	// panicOnEnd makes End panic after recording.
	panicOnEnd bool
}

// Begin records the call and returns the configured error.
func (f *fakeSubsystem) Begin(context.Context) error {
	f.rec.record(f.name, OperationBegin)

	return f.beginErr
}

// End records the call and optionally panics.
func (f *fakeSubsystem) End(context.Context) error {
	f.rec.record(f.name, OperationEnd)

	if f.panicOnEnd {
		panic("radio on fire")
	}

	return nil
}

// transition is one recorded phase change.
type transition struct {
	// from is the phase being left.
	from domain.Phase
	// to is the phase being entered.
	to domain.Phase
}

// fakeObserver records transitions and failures.
type fakeObserver struct {
	// transitions holds every phase change in order.
	transitions []transition
	// failures counts failed calls per "phase/operation".
	failures map[string]int
	// runs counts started runs.
	runs int
	// mu protects the fields above.
	mu sync.Mutex
}

// RunStarted counts the run.
func (o *fakeObserver) RunStarted(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs++
}

// RunFinished is not recorded.
func (o *fakeObserver) RunFinished(string) {}

// Transition appends the phase change.
func (o *fakeObserver) Transition(from, to domain.Phase) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, transition{from: from, to: to})
}

// PhaseCompleted is not recorded.
func (o *fakeObserver) PhaseCompleted(domain.Phase, time.Duration) {}

// SubsystemFailed counts the failure under "phase/operation".
func (o *fakeObserver) SubsystemFailed(phase domain.Phase, operation string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.failures == nil {
		o.failures = make(map[string]int)
	}

	o.failures[phase.String()+"/"+operation]++
}

// ms is shorthand for a millisecond offset.
func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// newTestAlternator builds an alternator over two recording fakes.
func newTestAlternator(opts ...Option) (*Alternator, *recorder) {
	rec := newRecorder()
	a := New(
		&fakeSubsystem{name: "burst", rec: rec},
		&fakeSubsystem{name: "scan", rec: rec},
		opts...,
	)

	return a, rec
}

// defaultPattern is the call sequence of a 300/700 run stopped at 2350ms.
func defaultPattern() []call {
	return []call{
		{"burst", OperationBegin, ms(0)},
		{"burst", OperationEnd, ms(300)},
		{"scan", OperationBegin, ms(300)},
		{"scan", OperationEnd, ms(1000)},
		{"burst", OperationBegin, ms(1000)},
		{"burst", OperationEnd, ms(1300)},
		{"scan", OperationBegin, ms(1300)},
		{"scan", OperationEnd, ms(2000)},
		{"burst", OperationBegin, ms(2000)},
		{"burst", OperationEnd, ms(2300)},
		{"scan", OperationBegin, ms(2300)},
		{"scan", OperationEnd, ms(3000)},
	}
}

// TestAlternator_StrictAlternation checks the begin/end pattern and timing of the default duty cycle.
func TestAlternator_StrictAlternation(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		a, rec := newTestAlternator()

		require.NoError(t, a.Start(ctx, nil))
		synctest.Wait()
		require.True(t, a.IsRunning())

		time.Sleep(ms(2350))
		require.True(t, a.IsRunning())

		// Stop lands inside the scan phase that began at 2300ms; it is honoured when that phase ends.
		a.Stop(ctx)
		require.NoError(t, a.Wait(ctx))

		require.False(t, a.IsRunning())
		require.Equal(t, defaultPattern(), rec.snapshot())
		require.Zero(t, rec.overlaps)
		require.Empty(t, rec.activeSubsystem())

		status := a.Status()
		require.Equal(t, domain.PhaseIdle, status.Phase)
		require.Equal(t, uint64(3), status.Cycles)
		require.NotEmpty(t, status.RunID)
	})
}

// TestAlternator_StartWhileRunningIsNoop verifies a second Start reports ErrAlreadyRunning and spawns nothing.
func TestAlternator_StartWhileRunningIsNoop(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		observer := new(fakeObserver)
		a, rec := newTestAlternator(WithObserver(observer))

		require.NoError(t, a.Start(ctx, nil))
		runID := a.Status().RunID

		err := a.Start(ctx, &domain.Config{BurstDuration: time.Second})
		require.ErrorIs(t, err, ErrAlreadyRunning)

		synctest.Wait()
		require.Equal(t, 1, observer.runs)
		require.Equal(t, runID, a.Status().RunID)
		// The rejected config must not leak into the running cycle.
		require.Equal(t, domain.DefaultBurstDuration, a.Status().Config.BurstDuration)

		a.Stop(ctx)
		require.NoError(t, a.Wait(ctx))
		require.Len(t, rec.snapshot(), 2)
		require.Zero(t, rec.overlaps)
	})
}

// TestAlternator_StopDuringBurst ensures the burst window completes, ends once, and scan never begins.
func TestAlternator_StopDuringBurst(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		a, rec := newTestAlternator()
		started := time.Now()

		require.NoError(t, a.Start(ctx, nil))

		time.Sleep(ms(100))
		a.Stop(ctx)

		require.NoError(t, a.Wait(ctx))
		require.Equal(t, ms(300), time.Since(started))
		require.Equal(t, []call{
			{"burst", OperationBegin, ms(0)},
			{"burst", OperationEnd, ms(300)},
		}, rec.snapshot())
	})
}

// TestAlternator_DoubleToggleIsInvisible verifies pause immediately followed by resume changes nothing.
func TestAlternator_DoubleToggleIsInvisible(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		observer := new(fakeObserver)
		a, rec := newTestAlternator(WithObserver(observer))

		require.NoError(t, a.Start(ctx, nil))

		time.Sleep(ms(100))
		require.True(t, a.TogglePause(ctx))
		require.False(t, a.TogglePause(ctx))

		time.Sleep(ms(2250))
		a.Stop(ctx)
		require.NoError(t, a.Wait(ctx))

		require.Equal(t, defaultPattern(), rec.snapshot())

		for _, tr := range observer.transitions {
			require.NotEqual(t, domain.PhasePaused, tr.to)
		}
	})
}

// TestAlternator_PauseHoldsNoSubsystemAndResumesFromBurst checks pause after scan and resume semantics.
func TestAlternator_PauseHoldsNoSubsystemAndResumesFromBurst(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		a, rec := newTestAlternator()

		require.NoError(t, a.Start(ctx, nil))

		// Pause requested during the scan phase that runs from 300ms to 1000ms.
		time.Sleep(ms(500))
		a.TogglePause(ctx)

		time.Sleep(ms(1000))

		status := a.Status()
		require.Equal(t, domain.PhasePaused, status.Phase)
		require.True(t, status.Paused)
		require.True(t, a.IsRunning())
		require.Empty(t, rec.activeSubsystem())
		require.Len(t, rec.snapshot(), 4)

		// Resume at 1500ms restarts from burst right away.
		a.TogglePause(ctx)
		synctest.Wait()

		calls := rec.snapshot()
		require.Len(t, calls, 5)
		require.Equal(t, call{"burst", OperationBegin, ms(1500)}, calls[4])
		require.Equal(t, domain.PhaseBurst, a.Status().Phase)

		a.Stop(ctx)
		require.NoError(t, a.Wait(ctx))
		require.Equal(t, call{"burst", OperationEnd, ms(1800)}, rec.snapshot()[5])
	})
}

// TestAlternator_StopWakesPausedWorker verifies stop releases the pause wait without any subsystem call.
func TestAlternator_StopWakesPausedWorker(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		a, rec := newTestAlternator()

		require.NoError(t, a.Start(ctx, nil))

		time.Sleep(ms(100))
		a.TogglePause(ctx)
		time.Sleep(ms(5000))

		stoppedAt := time.Now()
		a.Stop(ctx)
		synctest.Wait()

		require.False(t, a.IsRunning())
		require.NoError(t, a.Wait(ctx))
		require.Equal(t, stoppedAt, time.Now())
		require.Len(t, rec.snapshot(), 2)
	})
}

// TestAlternator_StopTakesPrecedenceOverPause ensures both signals at a checkpoint terminate the worker.
func TestAlternator_StopTakesPrecedenceOverPause(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		observer := new(fakeObserver)
		a, _ := newTestAlternator(WithObserver(observer))

		require.NoError(t, a.Start(ctx, nil))

		time.Sleep(ms(100))
		a.TogglePause(ctx)
		a.Stop(ctx)

		require.NoError(t, a.Wait(ctx))
		require.Equal(t, []transition{
			{from: domain.PhaseIdle, to: domain.PhaseBurst},
			{from: domain.PhaseBurst, to: domain.PhaseTerminated},
		}, observer.transitions)
	})
}

// TestAlternator_RestartResetsSignals verifies a fresh Start after termination clears stale pause state.
func TestAlternator_RestartResetsSignals(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		a, rec := newTestAlternator()

		require.NoError(t, a.Start(ctx, nil))
		firstRun := a.Status().RunID

		time.Sleep(ms(100))
		a.TogglePause(ctx)
		time.Sleep(ms(400))
		a.Stop(ctx)
		require.NoError(t, a.Wait(ctx))

		require.False(t, a.IsRunning())
		require.True(t, a.Status().Paused)

		require.NoError(t, a.Start(ctx, nil))
		synctest.Wait()

		status := a.Status()
		require.True(t, status.Running)
		require.False(t, status.Paused)
		require.False(t, status.StopRequested)
		require.Equal(t, domain.PhaseBurst, status.Phase)
		require.NotEqual(t, firstRun, status.RunID)

		calls := rec.snapshot()
		require.Equal(t, call{"burst", OperationBegin, ms(500)}, calls[len(calls)-1])

		a.Stop(ctx)
		require.NoError(t, a.Wait(ctx))
	})
}

// TestAlternator_SubsystemFailuresDoNotStall verifies errors and panics are swallowed and counted.
func TestAlternator_SubsystemFailuresDoNotStall(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		rec := newRecorder()
		observer := new(fakeObserver)
		a := New(
			&fakeSubsystem{name: "burst", rec: rec, beginErr: errTestBegin},
			&fakeSubsystem{name: "scan", rec: rec, panicOnEnd: true},
			WithObserver(observer),
		)

		require.NoError(t, a.Start(ctx, nil))

		time.Sleep(ms(2350))
		a.Stop(ctx)
		require.NoError(t, a.Wait(ctx))

		require.Equal(t, defaultPattern(), rec.snapshot())
		require.Equal(t, map[string]int{"burst/begin": 3, "scan/end": 3}, observer.failures)
		require.Equal(t, uint64(3), a.Status().Cycles)
	})
}

// TestAlternator_SettersApplyFromNextPhase checks that duration changes never shorten the running phase.
func TestAlternator_SettersApplyFromNextPhase(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		a, rec := newTestAlternator()

		require.NoError(t, a.Start(ctx, nil))

		time.Sleep(ms(100))
		a.SetBurstDuration(ctx, ms(50))
		a.SetScanDuration(ctx, ms(200))
		a.SetScanDuration(ctx, 0)

		time.Sleep(ms(420))
		a.Stop(ctx)
		require.NoError(t, a.Wait(ctx))

		require.Equal(t, []call{
			{"burst", OperationBegin, ms(0)},
			{"burst", OperationEnd, ms(300)},
			{"scan", OperationBegin, ms(300)},
			{"scan", OperationEnd, ms(500)},
			{"burst", OperationBegin, ms(500)},
			{"burst", OperationEnd, ms(550)},
		}, rec.snapshot())
	})
}

// TestAlternator_StartUsesProvidedConfig verifies Start captures durations and fills defaults.
func TestAlternator_StartUsesProvidedConfig(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		a, rec := newTestAlternator()

		require.NoError(t, a.Start(ctx, &domain.Config{BurstDuration: ms(100)}))

		time.Sleep(ms(50))
		a.Stop(ctx)
		require.NoError(t, a.Wait(ctx))

		require.Equal(t, ms(100), rec.snapshot()[1].at)
		require.Equal(t, domain.DefaultScanDuration, a.Status().Config.ScanDuration)
	})
}

// TestAlternator_RejectsInvalidConfig ensures a negative duration starts nothing.
func TestAlternator_RejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	a, _ := newTestAlternator()

	err := a.Start(context.Background(), &domain.Config{ScanDuration: -time.Second})
	require.ErrorIs(t, err, domain.ErrInvalidDuration)
	require.False(t, a.IsRunning())
	require.Equal(t, domain.PhaseIdle, a.Status().Phase)
	require.NoError(t, a.Wait(context.Background()))
}

// TestAlternator_StopWithoutWorker verifies stop and toggle are harmless when idle.
func TestAlternator_StopWithoutWorker(t *testing.T) {
	t.Parallel()

	a := New(nil, nil)
	ctx := context.Background()

	a.Stop(ctx)
	require.True(t, a.TogglePause(ctx))
	require.False(t, a.IsRunning())

	status := a.Status()
	require.True(t, status.StopRequested)
	require.Empty(t, status.RunID)
}

// TestSafeCall_RecoversPanics checks panics become errSubsystemPanic.
func TestSafeCall_RecoversPanics(t *testing.T) {
	t.Parallel()

	err := safeCall(context.Background(), func(context.Context) error { panic("boom") })
	require.ErrorIs(t, err, errSubsystemPanic)

	err = safeCall(context.Background(), func(context.Context) error { return errTestBegin })
	require.ErrorIs(t, err, errTestBegin)
}
