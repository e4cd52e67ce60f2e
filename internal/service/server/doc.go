// Package server runs the alternator control server.
//
// Run wires settings, subsystem adapters, the metrics recorder and the
// Alternator behind the gRPC AlternatorService, optionally exposes /metrics,
// and drains the worker before the listeners close on shutdown.
package server
