package subsystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/oshokin/radio-alternator/internal/config"
	"github.com/oshokin/radio-alternator/internal/logger"
	"github.com/oshokin/radio-alternator/internal/service/alternator"
)

// errBeginRequired is returned when a command subsystem has no begin argv.
var errBeginRequired = errors.New("begin command is required")

// Command drives a subsystem through external programs.
// Begin starts the begin argv without waiting for it; End starts the end argv,
// or kills the process started by Begin when no end argv is configured.
type Command struct {
	// name labels log entries.
	name string
	// begin is the argv started by Begin.
	begin []string
	// end is the optional argv started by End.
	end []string
	// process is the running begin process, nil once it exited or was killed.
	process *os.Process
	// mu protects process.
	mu sync.Mutex
}

// NewCommand creates a command-backed subsystem.
func NewCommand(name string, cfg config.Command) (*Command, error) {
	if len(cfg.Begin) == 0 {
		return nil, fmt.Errorf("%s: %w", name, errBeginRequired)
	}

	return &Command{
		name:  name,
		begin: cfg.Begin,
		end:   cfg.End,
	}, nil
}

// FromConfig returns a Command for a configured role, or a Log when the role has no commands.
//
//nolint:ireturn // The alternator consumes subsystems through its interface.
func FromConfig(name string, cfg config.Command) (alternator.Subsystem, error) {
	if cfg.IsZero() {
		return NewLog(name), nil
	}

	command, err := NewCommand(name, cfg)
	if err != nil {
		return nil, err
	}

	return command, nil
}

// Begin starts the begin program and returns immediately.
func (c *Command) Begin(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, c.begin[0], c.begin[1:]...) //nolint:gosec // Commands come from the operator's settings file.
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s begin command: %w", c.name, err)
	}

	c.mu.Lock()
	c.process = cmd.Process
	c.mu.Unlock()

	logger.DebugKV(ctx, "Subsystem begun", "subsystem", c.name, "pid", cmd.Process.Pid)

	go c.reap(ctx, cmd, true)

	return nil
}

// End starts the end program, or kills the begin process when there is none.
func (c *Command) End(ctx context.Context) error {
	if len(c.end) > 0 {
		cmd := exec.CommandContext(ctx, c.end[0], c.end[1:]...) //nolint:gosec // Commands come from the operator's settings file.
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("start %s end command: %w", c.name, err)
		}

		go c.reap(ctx, cmd, false)

		return nil
	}

	c.mu.Lock()
	process := c.process
	c.process = nil
	c.mu.Unlock()

	if process == nil {
		return nil
	}

	if err := process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill %s process %d: %w", c.name, process.Pid, err)
	}

	return nil
}

// Active reports whether the process started by Begin is still tracked.
func (c *Command) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.process != nil
}

// reap waits for cmd so it does not linger as a zombie and forgets the begin process once it exits.
func (c *Command) reap(ctx context.Context, cmd *exec.Cmd, isBegin bool) {
	err := cmd.Wait()

	if isBegin {
		c.mu.Lock()
		if c.process == cmd.Process {
			c.process = nil
		}
		c.mu.Unlock()
	}

	logger.DebugKV(ctx, "Subsystem process exited", "subsystem", c.name, "pid", cmd.Process.Pid, "error", err)
}

// Log is a subsystem without an implementation: it only reports the calls.
type Log struct {
	// name labels log entries.
	name string
}

// NewLog creates a log-only subsystem.
func NewLog(name string) *Log {
	return &Log{name: name}
}

// Begin logs the call.
func (l *Log) Begin(ctx context.Context) error {
	logger.DebugKV(ctx, "Subsystem begin has no command configured", "subsystem", l.name)

	return nil
}

// End logs the call.
func (l *Log) End(ctx context.Context) error {
	logger.DebugKV(ctx, "Subsystem end has no command configured", "subsystem", l.name)

	return nil
}
