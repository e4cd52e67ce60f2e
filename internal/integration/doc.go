// Package integration holds end-to-end tests that run the alternator server
// on a real TCP port and drive it through the control client.
package integration
