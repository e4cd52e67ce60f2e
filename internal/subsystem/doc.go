// Package subsystem provides Begin/End adapters for the alternator.
//
// Command runs configured external programs, Log only reports the calls, and
// TerminateStale kills leftovers of earlier runs so the radio starts free.
package subsystem
