// Package alternator contains core domain types for the duty-cycle scheduler.
//
// It defines Config (how long each phase lasts), Phase (where the worker is in
// its state machine) and Status (a point-in-time snapshot handed to callers)
// with Clone helpers to avoid leaking internal references.
package alternator
