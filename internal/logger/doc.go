// Package logger wraps zap for the alternator binaries.
//
// A global sugared console logger backs every context that does not carry
// its own; WithName and WithKV decorate the context logger, and the
// DebugKV/InfoKV/WarnKV/ErrorKV helpers write through it. SetLevelName
// applies the log_level setting to all loggers at once.
package logger
