package subsystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/radio-alternator/internal/config"
	"github.com/oshokin/radio-alternator/internal/logger"
)

// ExecutableNames returns the base names of every configured subsystem program.
func ExecutableNames(commands ...config.Command) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0, len(commands)*2)

	for _, command := range commands {
		for _, argv := range [][]string{command.Begin, command.End} {
			if len(argv) == 0 {
				continue
			}

			name := filepath.Base(argv[0])
			if _, found := seen[name]; found {
				continue
			}

			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	return names
}

// commNameLength is how much of an executable name Linux keeps as the process name.
const commNameLength = 15

// initProcessID adopts processes whose parent has exited.
const initProcessID = 1

// TerminateStale kills orphaned processes whose executable matches one of names,
// skipping the current process. Only processes left behind by a previous server
// are touched, so a shared interpreter such as sh keeps its other users.
// It returns how many processes were killed.
func TerminateStale(ctx context.Context, names []string) (int, error) {
	return terminateStale(ctx, names, isOrphan)
}

// isOrphan reports whether the process has been reparented to init.
func isOrphan(process ps.Process) bool {
	return process.PPid() == initProcessID
}

// processName returns name as the process table reports it.
func processName(name string) string {
	if runtime.GOOS == "linux" && len(name) > commNameLength {
		return name[:commNameLength]
	}

	return name
}

// terminateStale kills matching processes accepted by eligible.
func terminateStale(ctx context.Context, names []string, eligible func(ps.Process) bool) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}

	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[processName(name)] = struct{}{}
	}

	processList, err := ps.Processes()
	if err != nil {
		return 0, fmt.Errorf("list processes: %w", err)
	}

	var (
		thisProcessID = os.Getpid()
		killed        int
	)

	for _, process := range processList {
		processID := process.Pid()
		if processID == thisProcessID {
			continue
		}

		if _, found := wanted[process.Executable()]; !found || !eligible(process) {
			continue
		}

		runningProcess, err := os.FindProcess(processID)
		if err != nil {
			return killed, fmt.Errorf("find process %d: %w", processID, err)
		}

		if err = runningProcess.Kill(); err != nil {
			logger.WarnKV(ctx, "Unable to kill stale subsystem process", "pid", processID, "error", err)

			continue
		}

		logger.InfoKV(ctx, "Killed stale subsystem process", "pid", processID, "executable", process.Executable())

		killed++
	}

	return killed, nil
}
