package supervisor

import (
	"time"

	"github.com/dockside/supervisor/internal/process"
)

// ReapIfCrashed performs a non-blocking check of name's child: if it has
// exited, the handle's state is updated to Crashed (or Stopped, if a stop
// was requested) and true is returned. No restart decision is made here;
// that is internal/health's job, driven by AttemptRestart below. There is
// no background monitor goroutine in this design — crash detection is
// pull-based, via the same non-blocking reap poll process.Handle uses.
func (s *Supervisor) ReapIfCrashed(name string) bool {
	h, err := s.lookup(name)
	if err != nil {
		return false
	}
	if h.Snapshot().State.Kind != process.Running {
		return false
	}
	return h.PollExited()
}

// CrashedInfo returns the current snapshot plus the handle's stored
// configuration for a crashed (or any) process, so a caller can decide
// whether and how to restart it.
func (s *Supervisor) CrashedInfo(name string) (process.Info, process.Config, error) {
	h, err := s.lookup(name)
	if err != nil {
		return process.Info{}, process.Config{}, err
	}
	return h.Snapshot(), h.Config(), nil
}

// AttemptRestart computes the saturating backoff delay from the handle's
// current restart count, sleeps, then attempts a fresh Start with the
// handle's stored configuration. On success restart_count increments and
// the new start time is recorded by the Start path itself.
func (s *Supervisor) AttemptRestart(name string) (process.Info, error) {
	h, err := s.lookup(name)
	if err != nil {
		return process.Info{}, err
	}
	cfg := h.Config()
	delay := backoffDelay(cfg.RestartDelay, h.Restarts())
	if delay > 0 {
		time.Sleep(delay)
	}
	info, err := s.spawn(h, cfg)
	if err == nil {
		h.IncRestarts()
	}
	return info, err
}
