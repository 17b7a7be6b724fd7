// Package supervisor implements the central process supervisor: start,
// stop, restart, dependency-ordered batch start, and the read-only views
// over managed children.
package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dockside/supervisor/internal/depgraph"
	"github.com/dockside/supervisor/internal/env"
	"github.com/dockside/supervisor/internal/errs"
	"github.com/dockside/supervisor/internal/logging"
	"github.com/dockside/supervisor/internal/process"
	"github.com/dockside/supervisor/internal/ring"
)

// GracefulTimeout is the window Stop waits for a clean exit before forcing.
const GracefulTimeout = 10 * time.Second

// StrictTimeout is StopGracefully's shorter, unconditionally-enforced window.
const StrictTimeout = 5 * time.Second

// MaxBackoff caps the exponential restart delay so a very large restart
// count degrades to "restart rarely" instead of overflowing time.Duration.
const MaxBackoff = time.Hour

// Supervisor owns the set of managed children. It is the sole mutator of
// that set; log buffers inside each child are separately synchronized and
// may be read concurrently by any caller.
type Supervisor struct {
	mu       sync.Mutex
	handles  map[string]*process.Handle
	order    []string // declaration order, for deterministic List()
	globalEnv *env.Env
	logger   *slog.Logger
}

// New returns an empty Supervisor using globalEnv as the shared environment
// overlay beneath every process's own Env.
func New(globalEnv *env.Env, logger *slog.Logger) *Supervisor {
	if globalEnv == nil {
		globalEnv = env.New()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Supervisor{
		handles:   make(map[string]*process.Handle),
		globalEnv: globalEnv,
		logger:    logger,
	}
}

// Start spawns cfg.Name if it is not already Running. Refuses with
// AlreadyRunning if a handle already exists and is Running.
func (s *Supervisor) Start(cfg process.Config) (process.Info, error) {
	if cfg.Name == "" || (cfg.Command == "" && len(cfg.Argv) == 0) {
		return process.Info{}, errs.InvalidConfig("process name and command/argv must be non-empty")
	}

	s.mu.Lock()
	h, exists := s.handles[cfg.Name]
	if exists {
		info := h.Snapshot()
		if info.State.Kind == process.Running {
			s.mu.Unlock()
			return process.Info{}, errs.AlreadyRunning(cfg.Name, info.PID)
		}
	} else {
		h = process.New(cfg, s.logger)
		s.handles[cfg.Name] = h
		s.order = append(s.order, cfg.Name)
	}
	s.mu.Unlock()

	return s.spawn(h, cfg)
}

func (s *Supervisor) spawn(h *process.Handle, cfg process.Config) (process.Info, error) {
	merged := s.globalEnv.Merge(cfg.Env)
	cmd, err := h.ConfigureCmd(merged)
	if err != nil {
		h.MarkFailed(err.Error())
		return process.Info{}, errs.SpawnFailed(cfg.Name, err)
	}
	if err := h.TryStart(cmd); err != nil {
		h.MarkFailed(err.Error())
		return process.Info{}, errs.SpawnFailed(cfg.Name, err)
	}
	return h.Snapshot(), nil
}

// Get returns a handle's current Info.
func (s *Supervisor) Get(name string) (process.Info, error) {
	h, err := s.lookup(name)
	if err != nil {
		return process.Info{}, err
	}
	return h.Snapshot(), nil
}

// List returns Info for every managed handle, in declaration order.
func (s *Supervisor) List() []process.Info {
	s.mu.Lock()
	names := append([]string{}, s.order...)
	handles := make([]*process.Handle, len(names))
	for i, n := range names {
		handles[i] = s.handles[n]
	}
	s.mu.Unlock()

	out := make([]process.Info, 0, len(handles))
	for _, h := range handles {
		if h != nil {
			out = append(out, h.Snapshot())
		}
	}
	return out
}

// Names returns every managed name in declaration order.
func (s *Supervisor) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.order...)
}

// IsRunning reports whether name is currently Running.
func (s *Supervisor) IsRunning(name string) bool {
	h, err := s.lookup(name)
	if err != nil {
		return false
	}
	return h.Snapshot().State.Kind == process.Running
}

func (s *Supervisor) lookup(name string) (*process.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[name]
	if !ok {
		return nil, errs.NotFound(name)
	}
	return h, nil
}

// Stop transitions name to Stopping, signals SIGTERM to the child's process
// group, waits up to GracefulTimeout, then force-kills. Idempotent if the
// process is already not Running.
func (s *Supervisor) Stop(name string) error {
	h, err := s.lookup(name)
	if err != nil {
		return err
	}
	if h.Snapshot().State.Kind != process.Running {
		return nil
	}
	return h.Stop(GracefulTimeout)
}

// StopGracefully enforces a strict 5s window before an unconditional
// force-kill, guaranteeing the process is reaped before returning.
func (s *Supervisor) StopGracefully(name string) error {
	h, err := s.lookup(name)
	if err != nil {
		return err
	}
	if h.Snapshot().State.Kind != process.Running {
		return nil
	}
	_ = h.Stop(StrictTimeout)
	if alive, _ := h.DetectAlive(); alive {
		return h.Kill()
	}
	return nil
}

// Restart stops (errors ignored), sleeps RestartDelay, then starts again
// with the handle's stored configuration. A fresh pid is guaranteed.
func (s *Supervisor) Restart(name string) (process.Info, error) {
	h, err := s.lookup(name)
	if err != nil {
		return process.Info{}, err
	}
	cfg := h.Config()
	_ = s.Stop(name)
	if cfg.RestartDelay > 0 {
		time.Sleep(cfg.RestartDelay)
	}
	return s.spawn(h, cfg)
}

// StopAll attempts Stop on every managed handle. Per-process errors are
// collected but do not abort the sweep.
func (s *Supervisor) StopAll() map[string]error {
	names := s.Names()
	errsByName := make(map[string]error)
	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if err := s.Stop(name); err != nil {
				mu.Lock()
				errsByName[name] = err
				mu.Unlock()
			}
		}(name)
	}
	wg.Wait()
	return errsByName
}

// Shutdown performs StopAll honoring ctx's deadline, so a caller can bound
// the overall time spent tearing down every managed process.
func (s *Supervisor) Shutdown(ctx context.Context) map[string]error {
	done := make(chan map[string]error, 1)
	go func() { done <- s.StopAll() }()
	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		return map[string]error{"*": ctx.Err()}
	}
}

// Remove drops a non-Running handle from management.
func (s *Supervisor) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[name]
	if !ok {
		return errs.NotFound(name)
	}
	if h.Snapshot().State.Kind == process.Running {
		return errs.Other("cannot remove a running process: " + name)
	}
	delete(s.handles, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Logs returns every retained log line for name.
func (s *Supervisor) Logs(name string) ([]ring.Line, error) {
	h, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return h.Buffer().All(), nil
}

// RecentLogs returns the n most recent log lines for name.
func (s *Supervisor) RecentLogs(name string, n int) ([]ring.Line, error) {
	h, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return h.Buffer().LastN(n), nil
}

// SearchLogs returns log lines for name containing query (case-insensitive).
func (s *Supervisor) SearchLogs(name, query string) ([]ring.Line, error) {
	h, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return h.Buffer().Search(query), nil
}

// ClearLogs discards name's retained log lines.
func (s *Supervisor) ClearLogs(name string) error {
	h, err := s.lookup(name)
	if err != nil {
		return err
	}
	h.Buffer().Clear()
	return nil
}

// StartOrdered starts every config in cfgs in dependency order, stopping at
// the first spawn failure. It returns the Info for every process started
// before the failure, plus the error.
func (s *Supervisor) StartOrdered(cfgs []process.Config) ([]process.Info, error) {
	nodes := make([]depgraph.Node, len(cfgs))
	byName := make(map[string]process.Config, len(cfgs))
	for i, c := range cfgs {
		nodes[i] = depgraph.Node{Name: c.Name, DependsOn: c.DependsOn}
		byName[c.Name] = c
	}
	order, err := depgraph.Order(nodes)
	if err != nil {
		return nil, toErrsError(err)
	}

	started := make([]process.Info, 0, len(order))
	for _, name := range order {
		info, err := s.Start(byName[name])
		if err != nil {
			return started, err
		}
		started = append(started, info)
	}
	return started, nil
}

func toErrsError(err error) error {
	var cycleErr *depgraph.CycleError
	if errors.As(err, &cycleErr) {
		return errs.DependencyCycle(cycleErr.Path)
	}
	var missing *depgraph.UnknownDependencyError
	if errors.As(err, &missing) {
		return errs.UnknownDependency(missing.Name, missing.Missing)
	}
	return errs.Other(err.Error())
}
