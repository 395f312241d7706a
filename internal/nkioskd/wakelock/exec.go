package wakelock

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync/atomic"
)

// Exec holds the wake lock by keeping an inhibitor process alive, e.g.
// "systemd-inhibit --what=idle:sleep --who=netboard-kiosk cat". The lock
// is held while the process runs; killing it releases the lock, and the
// process exiting on its own means the platform revoked the grant.
type Exec struct {
	argv   []string
	logger *slog.Logger
}

// NewExec creates a locker that spawns the given command line
func NewExec(command string, logger *slog.Logger) *Exec {
	return &Exec{
		argv:   strings.Fields(command),
		logger: logger,
	}
}

// Acquire starts the inhibitor process
func (e *Exec) Acquire(ctx context.Context) (Handle, error) {
	if len(e.argv) == 0 {
		return nil, ErrUnsupported
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The lock must outlive the acquiring call, so the process is not
	// bound to ctx.
	cmd := exec.Command(e.argv[0], e.argv[1:]...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting inhibitor: %w", err)
	}

	h := &execHandle{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go h.wait(e.logger)
	return h, nil
}

type execHandle struct {
	cmd      *exec.Cmd
	done     chan struct{}
	released atomic.Bool
}

func (h *execHandle) wait(logger *slog.Logger) {
	err := h.cmd.Wait()
	if !h.released.Load() {
		logger.Warn("wake lock inhibitor exited", "error", err)
	}
	close(h.done)
}

// Release kills the inhibitor process
func (h *execHandle) Release() error {
	if h.released.Swap(true) {
		return nil
	}
	// The process may already be gone; the grant is over either way
	_ = h.cmd.Process.Kill()
	return nil
}

// Done is closed once the inhibitor process is reaped
func (h *execHandle) Done() <-chan struct{} {
	return h.done
}
