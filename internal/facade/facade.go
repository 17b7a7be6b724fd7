// Package facade exposes the narrow, language-neutral surface a command-line
// binary or a desktop-app bridge can invoke: start/stop/restart/list/logs
// against the supervisor, system/process stats against the sampler, a
// health sweep, and the PTY operations. It does not own supervisory state;
// it only holds references to the supervisor, PTY supervisor, sampler, and
// health checker, translating between them and a single flat operation set.
package facade

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dockside/supervisor/internal/errs"
	"github.com/dockside/supervisor/internal/logging"
	"github.com/dockside/supervisor/internal/metrics"
	"github.com/dockside/supervisor/internal/process"
	"github.com/dockside/supervisor/internal/pty"
	"github.com/dockside/supervisor/internal/ring"
	"github.com/dockside/supervisor/internal/sampler"
)

// Sup is the subset of *supervisor.Supervisor the façade needs.
type Sup interface {
	Start(cfg process.Config) (process.Info, error)
	Stop(name string) error
	Restart(name string) (process.Info, error)
	StopAll() map[string]error
	List() []process.Info
	Get(name string) (process.Info, error)
	RecentLogs(name string, n int) ([]ring.Line, error)
	SearchLogs(name, query string) ([]ring.Line, error)
}

// PTY is the subset of *pty.Supervisor the façade needs.
type PTY interface {
	Spawn(cfg pty.SpawnConfig) (int, error)
	Kill(id string) error
	List() []string
	Restart(id string) (int, error)
}

// Sampler is the subset of *sampler.Sampler the façade needs.
type Sampler interface {
	Refresh(ctx context.Context) error
	Stats() sampler.Snapshot
	ProcessMetrics(pid int32) (sampler.ProcessMetrics, bool)
}

// Health is the subset of *health.Checker the façade needs.
type Health interface {
	CheckHealth() []string
}

// Facade ties the supervisor, PTY supervisor, sampler, and health checker
// together behind the operation set a CLI or UI bridge calls directly.
type Facade struct {
	sup     Sup
	ptySup  PTY
	sampler Sampler
	health  Health
	metrics *metrics.Collectors
	logger  *slog.Logger
}

// New returns a Facade wiring together the four components. health may be
// nil if the caller drives health sweeps some other way; CheckHealth then
// returns an empty slice. m may be nil to run without Prometheus
// instrumentation.
func New(sup Sup, ptySup PTY, smp Sampler, h Health, m *metrics.Collectors, logger *slog.Logger) *Facade {
	if logger == nil {
		logger = logging.Default()
	}
	return &Facade{sup: sup, ptySup: ptySup, sampler: smp, health: h, metrics: m, logger: logger}
}

// MetricsHandler exposes the registered Prometheus collectors as an
// http.Handler for an operator's own scraper to serve; this façade never
// calls ListenAndServe itself. Returns nil if no Collectors were configured.
func (f *Facade) MetricsHandler() http.Handler {
	if f.metrics == nil {
		return nil
	}
	return f.metrics.Handler()
}

// StartOne starts cfg.Name.
func (f *Facade) StartOne(cfg process.Config) (process.Info, error) {
	info, err := f.sup.Start(cfg)
	if err == nil && f.metrics != nil {
		f.metrics.ObserveStart(cfg.Name)
	}
	return info, err
}

// StopOne stops name.
func (f *Facade) StopOne(name string) error {
	err := f.sup.Stop(name)
	if err == nil && f.metrics != nil {
		f.metrics.ObserveStop(name)
	}
	return err
}

// RestartOne restarts name.
func (f *Facade) RestartOne(name string) (process.Info, error) {
	info, err := f.sup.Restart(name)
	if err == nil && f.metrics != nil {
		f.metrics.ObserveRestart(name)
		f.metrics.ObserveStart(name)
	}
	return info, err
}

// StopAll stops every managed process, collecting per-name errors.
func (f *Facade) StopAll() map[string]error {
	failures := f.sup.StopAll()
	if f.metrics != nil {
		for _, info := range f.sup.List() {
			if _, failed := failures[info.Name]; !failed {
				f.metrics.ObserveStop(info.Name)
			}
		}
	}
	return failures
}

// List returns Info for every managed process, with CPU/memory taken from the
// sampler's last refresh, and records each reading into the Prometheus
// gauges as a side effect.
func (f *Facade) List() []process.Info {
	infos := f.sup.List()
	if f.sampler != nil {
		for i := range infos {
			if infos[i].PID <= 0 {
				continue
			}
			if pm, ok := f.sampler.ProcessMetrics(int32(infos[i].PID)); ok {
				infos[i].CPUPercent = pm.CPUPercent
				infos[i].MemBytes = pm.MemBytes
			}
		}
	}
	if f.metrics != nil {
		for _, info := range infos {
			f.metrics.ObserveResourceSample(info.Name, info.CPUPercent, info.MemBytes)
		}
	}
	return infos
}

// GetByName returns Info for a single managed process.
func (f *Facade) GetByName(name string) (process.Info, error) {
	return f.sup.Get(name)
}

// TailLogs returns the n most recent retained log lines for name.
func (f *Facade) TailLogs(name string, n int) ([]ring.Line, error) {
	return f.sup.RecentLogs(name, n)
}

// SearchLogs returns name's retained log lines containing query.
func (f *Facade) SearchLogs(name, query string) ([]ring.Line, error) {
	return f.sup.SearchLogs(name, query)
}

// GetSystemStats refreshes and returns a system-wide resource snapshot.
func (f *Facade) GetSystemStats(ctx context.Context) (sampler.Snapshot, error) {
	if f.sampler == nil {
		return sampler.Snapshot{}, errs.Other("facade: no sampler configured")
	}
	if err := f.sampler.Refresh(ctx); err != nil {
		return sampler.Snapshot{}, errs.IO("failed to refresh system stats", err)
	}
	return f.sampler.Stats(), nil
}

// GetProcessStats returns the last-sampled metrics for pid.
func (f *Facade) GetProcessStats(pid int32) (sampler.ProcessMetrics, error) {
	if f.sampler == nil {
		return sampler.ProcessMetrics{}, errs.Other("facade: no sampler configured")
	}
	pm, ok := f.sampler.ProcessMetrics(pid)
	if !ok {
		return sampler.ProcessMetrics{}, errs.NotFound("pid")
	}
	return pm, nil
}

// CheckHealth runs one health sweep and returns the names restarted.
func (f *Facade) CheckHealth() []string {
	if f.health == nil {
		return nil
	}
	return f.health.CheckHealth()
}

// PTYSpawn starts a PTY-attached child, returning its OS pid.
func (f *Facade) PTYSpawn(cfg pty.SpawnConfig) (int, error) {
	if f.ptySup == nil {
		return 0, errs.Other("facade: no PTY supervisor configured")
	}
	return f.ptySup.Spawn(cfg)
}

// PTYKill terminates a PTY-attached child by id.
func (f *Facade) PTYKill(id string) error {
	if f.ptySup == nil {
		return errs.Other("facade: no PTY supervisor configured")
	}
	return f.ptySup.Kill(id)
}

// PTYList returns every known PTY process id.
func (f *Facade) PTYList() []string {
	if f.ptySup == nil {
		return nil
	}
	return f.ptySup.List()
}

// PTYRestart kills (if alive) and respawns id with its retained config.
func (f *Facade) PTYRestart(id string) (int, error) {
	if f.ptySup == nil {
		return 0, errs.Other("facade: no PTY supervisor configured")
	}
	return f.ptySup.Restart(id)
}
