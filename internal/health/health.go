// Package health implements the single-operation health checker (component
// E): poll every managed child for a spontaneous exit and, per policy,
// restart it with a saturating exponential backoff. It does not run its own
// background loop; CheckHealth is invoked periodically or explicitly by a
// caller (e.g. a façade ticker, or a test), matching the "pull" shape of
// crash detection this design uses throughout.
package health

import (
	"log/slog"

	"github.com/dockside/supervisor/internal/logging"
	"github.com/dockside/supervisor/internal/process"
)

// Sup is the subset of *supervisor.Supervisor the health checker needs.
// Defined here, implemented there, to avoid an import cycle.
type Sup interface {
	Names() []string
	ReapIfCrashed(name string) bool
	CrashedInfo(name string) (process.Info, process.Config, error)
	AttemptRestart(name string) (process.Info, error)
}

// Checker drives crash detection and bounded auto-restart across every
// process known to its Supervisor.
type Checker struct {
	sup    Sup
	logger *slog.Logger
}

// New returns a Checker for sup. A nil logger uses logging.Default().
func New(sup Sup, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Checker{sup: sup, logger: logger}
}

// CheckHealth polls every managed process once and returns the names that
// were restarted as a result of this sweep.
func (c *Checker) CheckHealth() []string {
	var restarted []string
	for _, name := range c.sup.Names() {
		if !c.sup.ReapIfCrashed(name) {
			continue
		}
		info, cfg, err := c.sup.CrashedInfo(name)
		if err != nil {
			continue
		}
		if info.State.Kind != process.Crashed {
			continue
		}
		if !cfg.AutoRestart {
			continue
		}
		if cfg.RestartLimit > 0 && info.Restarts >= cfg.RestartLimit {
			c.logger.Warn("restart limit exceeded", "process", name, "restarts", info.Restarts, "limit", cfg.RestartLimit)
			continue
		}
		if _, err := c.sup.AttemptRestart(name); err != nil {
			c.logger.Warn("auto-restart failed", "process", name, "err", err)
			continue
		}
		restarted = append(restarted, name)
	}
	return restarted
}
