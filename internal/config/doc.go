// Package config defines the settings used by the alternator binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Settings cover the gRPC control address, the optional metrics listener,
// the initial phase durations and the external commands behind each subsystem.
package config
