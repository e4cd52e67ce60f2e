// Package client drives a remote alternator over gRPC.
//
// It provides a connection wrapper with per-call timeouts that tags every
// call with the local user and host, and Run, which executes one control
// command (start, stop, pause or status) and logs the resulting status.
package client
