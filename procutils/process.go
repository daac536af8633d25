// Package procutils checks for local processes by name.
package procutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shirou/gopsutil/process"
)

// Checker reports whether a named process is running on the local host.
type Checker struct {
	log *slog.Logger
}

// NewChecker creates a process checker.
func NewChecker(log *slog.Logger) *Checker {
	return &Checker{log: log}
}

// Running reports whether any local process matches the given name.
// Matching is by executable name, not full command line.
func (c *Checker) Running(ctx context.Context, name string) (bool, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list processes: %w", err)
	}

	for _, p := range procs {
		pname, err := p.NameWithContext(ctx)
		if err != nil {
			// Processes can exit between listing and inspection.
			continue
		}
		if pname == name {
			c.log.Debug("Server process found",
				slog.String("process", name),
				slog.Int("pid", int(p.Pid)))
			return true, nil
		}
	}

	return false, nil
}
