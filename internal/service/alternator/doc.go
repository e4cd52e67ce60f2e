// Package alternator implements the duty-cycle scheduler that time-shares one
// radio between a burst subsystem and a scan subsystem.
//
// An Alternator owns a Signals set and at most one background worker. The
// worker runs begin, timed wait and end for each phase, alternating burst and
// scan, and samples the stop and pause signals only between those triples.
// Subsystem failures are logged and counted, never propagated.
package alternator
