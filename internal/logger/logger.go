package logger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// global backs every context without its own logger.
	//nolint:gochecknoglobals // Logger is used all over the project, so it's okay.
	global *zap.SugaredLogger
	// level is shared by global and every logger built by New without an explicit level.
	//nolint:gochecknoglobals // Changing it through SetLevelName affects all of them at once.
	level = zap.NewAtomicLevelAt(zap.InfoLevel)
)

// errUnknownLevel is returned when a log level name cannot be parsed.
var errUnknownLevel = errors.New("unknown log level")

func init() { //nolint:gochecknoinits // Packages log before main gets to configure anything.
	global = New(nil)
}

// New builds a console logger writing to stdout.
// A nil enabler selects the shared level controlled by SetLevelName.
func New(enabler zapcore.LevelEnabler, options ...zap.Option) *zap.SugaredLogger {
	if enabler == nil {
		enabler = level
	}

	//nolint:exhaustruct // Remaining encoder fields keep their zero values.
	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		MessageKey:       "message",
		LevelKey:         "level",
		NameKey:          "logger",
		CallerKey:        "caller",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalColorLevelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: ", ",
	})

	return zap.New(zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), enabler), options...).Sugar()
}

// ParseLogLevel converts a case-insensitive level name such as "warn" into a zap level.
func ParseLogLevel(name string) (zapcore.Level, bool) {
	parsed, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return zapcore.InfoLevel, false
	}

	return parsed, true
}

// SetLevelName applies a level name from config or flags to the shared level.
// An empty name leaves the current level untouched.
func SetLevelName(name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}

	parsed, ok := ParseLogLevel(name)
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownLevel, name)
	}

	level.SetLevel(parsed)

	return nil
}

// Info writes an information level message using the logger from the context.
func Info(ctx context.Context, args ...any) {
	FromContext(ctx).Info(args...)
}

// DebugKV writes a message and key-value pairs
// at the debug level using the logger from the context.
func DebugKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Debugw(message, kvs...)
}

// InfoKV writes a message and key-value pairs
// at the information level using the logger from the context.
func InfoKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Infow(message, kvs...)
}

// WarnKV writes a message and key-value pairs
// at the warning level using the logger from the context.
func WarnKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Warnw(message, kvs...)
}

// ErrorKV writes a message and key-value pairs
// at the error level using the logger from the context.
func ErrorKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Errorw(message, kvs...)
}
