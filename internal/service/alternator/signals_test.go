package alternator

import (
	"context"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/require"
)

// TestSignals_SetClearToggle verifies the bits are independent of each other.
func TestSignals_SetClearToggle(t *testing.T) {
	t.Parallel()

	s := NewSignals()
	require.Equal(t, Signal(0), s.Load())

	require.Equal(t, SignalStop|SignalRunning, s.Set(SignalStop|SignalRunning))
	require.True(t, s.Toggle(SignalPause).Has(SignalPause))
	require.False(t, s.Toggle(SignalPause).Has(SignalPause))

	bits := s.Clear(SignalStop)
	require.False(t, bits.Has(SignalStop))
	require.True(t, bits.Has(SignalRunning))
	require.False(t, bits.Has(SignalStop|SignalRunning))
}

// TestSignals_WaitReturnsImmediatelyOnMatch checks that a satisfied predicate never blocks.
func TestSignals_WaitReturnsImmediatelyOnMatch(t *testing.T) {
	t.Parallel()

	s := NewSignals()
	s.Set(SignalStop)

	bits, err := s.Wait(context.Background(), func(bits Signal) bool { return bits.Has(SignalStop) })
	require.NoError(t, err)
	require.True(t, bits.Has(SignalStop))
}

// TestSignals_WaitWakesOnChange ensures a blocked waiter wakes as soon as the bit it needs changes.
func TestSignals_WaitWakesOnChange(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		s := NewSignals()
		s.Set(SignalPause)

		woke := make(chan Signal, 1)

		go func() {
			bits, _ := s.Wait(context.Background(), func(bits Signal) bool {
				return bits.Has(SignalStop) || !bits.Has(SignalPause)
			})
			woke <- bits
		}()

		// Unrelated changes leave the waiter asleep.
		s.Set(SignalRunning)
		synctest.Wait()
		require.Empty(t, woke)

		s.Clear(SignalPause)
		synctest.Wait()

		bits := <-woke
		require.False(t, bits.Has(SignalPause))
		require.True(t, bits.Has(SignalRunning))
	})
}

// TestSignals_WaitHonoursContext verifies that cancellation releases a waiter with ctx.Err().
func TestSignals_WaitHonoursContext(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		s := NewSignals()
		ctx, cancel := context.WithCancel(context.Background())

		errs := make(chan error, 1)

		go func() {
			_, err := s.Wait(ctx, func(bits Signal) bool { return bits.Has(SignalStop) })
			errs <- err
		}()

		synctest.Wait()
		cancel()

		require.ErrorIs(t, <-errs, context.Canceled)
	})
}
