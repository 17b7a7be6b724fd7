// Package pty implements the parallel PTY spawning path (component F): a
// child attached to a pseudo-terminal so interactive/TTY-sensitive programs
// render correctly, streamed out as typed events instead of line-buffered
// into a LogBuffer. Built directly on github.com/creack/pty and keyed by
// caller-chosen ids (a github.com/google/uuid value when none is given),
// following the same mutex-
// serializes-mutations, lock-released-before-blocking-read shape the rest
// of this module uses.
package pty

import (
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/google/uuid"

	"github.com/dockside/supervisor/internal/logging"
)

// EventKind tags the two event shapes this subsystem emits.
type EventKind string

const (
	EventOutput EventKind = "process-output"
	EventExit   EventKind = "process-exit"
)

// Event is the sole output surface of the PTY subsystem.
type Event struct {
	Kind      EventKind
	ProcessID string
	Output    string
	Stream    string // always "stdout": PTYs merge stdout/stderr into one stream
	ExitCode  *int
	Timestamp time.Time
}

// Sink receives Events as they occur. Implementations must not block for
// long; the master reader goroutine delivers events synchronously.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// SpawnConfig describes one PTY-attached child, retained so Restart can
// respawn with the same program, argv, cwd, and environment.
type SpawnConfig struct {
	ID      string
	Program string
	Argv    []string
	WorkDir string
	Env     []string
}

type child struct {
	cfg    SpawnConfig
	cmd    *exec.Cmd
	master *os.File
	done   chan struct{}
	mu     sync.Mutex
	alive  bool
	pid    int
}

// Supervisor manages PTY-attached children keyed by opaque process id.
type Supervisor struct {
	mu       sync.Mutex
	children map[string]*child
	sink     Sink
	logger   *slog.Logger
}

// New returns a Supervisor that delivers events to sink.
func New(sink Sink, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = logging.Default()
	}
	return &Supervisor{children: make(map[string]*child), sink: sink, logger: logger}
}

// Spawn starts program under a 24x80 PTY. If cfg.ID is empty, a UUID is
// generated. Returns the OS pid.
func (s *Supervisor) Spawn(cfg SpawnConfig) (int, error) {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}

	s.mu.Lock()
	if existing, exists := s.children[cfg.ID]; exists {
		if existing.isAlive() {
			s.mu.Unlock()
			return 0, errors.New("pty: process id already in use: " + cfg.ID)
		}
		delete(s.children, cfg.ID)
	}
	s.mu.Unlock()

	cmd := exec.Command(cfg.Program, cfg.Argv...)
	if cfg.WorkDir != "" {
		cmd.Dir = cfg.WorkDir
	}
	if len(cfg.Env) > 0 {
		cmd.Env = cfg.Env
	}

	master, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: 24, Cols: 80})
	if err != nil {
		return 0, err
	}

	c := &child{cfg: cfg, cmd: cmd, master: master, done: make(chan struct{}), alive: true, pid: cmd.Process.Pid}
	s.mu.Lock()
	s.children[cfg.ID] = c
	s.mu.Unlock()

	go s.pump(c)
	go s.awaitExit(c)

	return c.pid, nil
}

func (s *Supervisor) pump(c *child) {
	buf := make([]byte, 4096)
	for {
		n, err := c.master.Read(buf)
		if n > 0 {
			s.sink.Emit(Event{
				Kind:      EventOutput,
				ProcessID: c.cfg.ID,
				Output:    string(buf[:n]),
				Stream:    "stdout",
				Timestamp: time.Now(),
			})
		}
		if err != nil {
			return
		}
	}
}

func (s *Supervisor) awaitExit(c *child) {
	err := c.cmd.Wait()
	c.mu.Lock()
	c.alive = false
	c.mu.Unlock()
	_ = c.master.Close()
	close(c.done)

	code := exitCodeOf(err)
	s.sink.Emit(Event{
		Kind:      EventExit,
		ProcessID: c.cfg.ID,
		ExitCode:  &code,
		Timestamp: time.Now(),
	})
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

// Kill sends SIGTERM, falling back to SIGKILL on platforms/processes that
// don't respond within 3 seconds, then waits until the child has been
// reaped. The process-exit event is emitted right after that point and may
// reach the sink after Kill returns.
func (s *Supervisor) Kill(id string) error {
	c, ok := s.get(id)
	if !ok {
		return errors.New("pty: unknown process id: " + id)
	}
	if !c.isAlive() {
		return nil
	}
	_ = terminate(c.cmd.Process)
	select {
	case <-c.done:
	case <-time.After(3 * time.Second):
		_ = c.cmd.Process.Kill()
		<-c.done
	}
	return nil
}

// List returns every known process id.
func (s *Supervisor) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.children))
	for id := range s.children {
		ids = append(ids, id)
	}
	return ids
}

// IsRunning reports whether id is currently alive.
func (s *Supervisor) IsRunning(id string) bool {
	c, ok := s.get(id)
	return ok && c.isAlive()
}

// Restart kills (if alive) and respawns id with its retained SpawnConfig.
func (s *Supervisor) Restart(id string) (int, error) {
	c, ok := s.get(id)
	if !ok {
		return 0, errors.New("pty: unknown process id: " + id)
	}
	cfg := c.cfg
	if c.isAlive() {
		_ = s.Kill(id)
	}
	s.mu.Lock()
	delete(s.children, id)
	s.mu.Unlock()
	return s.Spawn(cfg)
}

// AllConfigs returns the retained SpawnConfig for every known process.
func (s *Supervisor) AllConfigs() []SpawnConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SpawnConfig, 0, len(s.children))
	for _, c := range s.children {
		out = append(out, c.cfg)
	}
	return out
}

// SaveConfig retains cfg for later Restart without spawning anything.
func (s *Supervisor) SaveConfig(cfg SpawnConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.children[cfg.ID]; !exists {
		s.children[cfg.ID] = &child{cfg: cfg, done: make(chan struct{})}
	}
}

// RemoveConfig drops a non-alive id from management entirely.
func (s *Supervisor) RemoveConfig(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.children[id]
	if !ok {
		return errors.New("pty: unknown process id: " + id)
	}
	if c.isAlive() {
		return errors.New("pty: cannot remove a running process: " + id)
	}
	delete(s.children, id)
	return nil
}

func (s *Supervisor) get(id string) (*child, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.children[id]
	return c, ok
}

func (c *child) isAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}
