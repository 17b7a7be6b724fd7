package process

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/dockside/supervisor/internal/detector"
	"github.com/dockside/supervisor/internal/logcapture"
	"github.com/dockside/supervisor/internal/logging"
	"github.com/dockside/supervisor/internal/ring"
)

// Handle is the supervisor's exclusive handle on one live (or once-live)
// child: the OS process, the configuration used to spawn it, its log
// buffer, and restart bookkeeping. The supervisor is the only writer;
// readers (façade calls) only ever call the read-only accessors below.
type Handle struct {
	cfg Config

	mu       sync.Mutex
	cmd      *exec.Cmd
	state    State
	pid      int
	startAt  time.Time
	stopAt   time.Time
	stopping bool
	restarts int
	lastRestart time.Time

	outCloser io.WriteCloser
	errCloser io.WriteCloser
	waitDone  chan struct{}
	monitoring bool

	buf     *ring.Buffer
	readers logcapture.Pair

	logger *slog.Logger
}

// New returns a Handle in the Stopped state, with its log buffer allocated.
func New(cfg Config, logger *slog.Logger) *Handle {
	cap := cfg.BufferCapacity
	if cap <= 0 {
		cap = DefaultBufferCapacity
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handle{
		cfg:    cfg,
		state:  State{Kind: Stopped},
		buf:    ring.NewBuffer(cap),
		logger: logger,
	}
}

// Config returns a copy of the spawn configuration.
func (h *Handle) Config() Config {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg
}

// Buffer returns the handle's shared log buffer.
func (h *Handle) Buffer() *ring.Buffer { return h.buf }

// ConfigureCmd builds an *exec.Cmd for this handle's config using the
// already-merged environment, wiring stdout/stderr to pipes captured by the
// log readers and stdin to /dev/null.
func (h *Handle) ConfigureCmd(mergedEnv []string) (*exec.Cmd, error) {
	h.mu.Lock()
	cfg := h.cfg
	h.mu.Unlock()

	cmd := cfg.BuildCommand()
	if cfg.WorkDir != "" {
		cmd.Dir = cfg.WorkDir
	}
	if len(mergedEnv) > 0 {
		cmd.Env = mergedEnv
	}
	cmd.SysProcAttr = processGroupAttr()

	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	cmd.Stdin = devnull

	var fileOut, fileErr io.WriteCloser
	if cfg.Log.Enabled() {
		if cfg.Log.Dir != "" {
			_ = os.MkdirAll(cfg.Log.Dir, 0o750)
		}
		fileOut, fileErr, _ = cfg.Log.Writers(cfg.Name)
		h.mu.Lock()
		h.outCloser, h.errCloser = fileOut, fileErr
		h.mu.Unlock()
	}

	// StdoutPipe/StderrPipe's read ends see EOF as soon as the child's
	// write-end fds close at process exit, independent of whether cmd.Wait
	// is ever called — which it is not, here: exit detection goes through
	// PollExited's non-blocking wait4 instead.
	outR, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	errR, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	var outSrc, errSrc io.Reader = outR, errR
	if fileOut != nil {
		outSrc = io.TeeReader(outR, fileOut)
	}
	if fileErr != nil {
		errSrc = io.TeeReader(errR, fileErr)
	}

	h.readers.Start(cfg.Name, outSrc, errSrc, h.buf, h.logger)
	return cmd, nil
}

// SetStarted records a successfully started *exec.Cmd.
func (h *Handle) SetStarted(cmd *exec.Cmd) {
	h.mu.Lock()
	h.cmd = cmd
	h.waitDone = make(chan struct{})
	h.pid = cmd.Process.Pid
	h.state = State{Kind: Running}
	h.startAt = time.Now()
	h.stopping = false
	h.mu.Unlock()
}

// TryStart starts cmd, records state, and writes the pid file if configured.
func (h *Handle) TryStart(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	h.SetStarted(cmd)
	h.WritePIDFile(h.Config().PIDFile)
	return nil
}

func (h *Handle) CloseWaitDone() {
	h.mu.Lock()
	if h.waitDone != nil {
		close(h.waitDone)
		h.waitDone = nil
	}
	h.mu.Unlock()
}

func (h *Handle) WaitDoneChan() chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.waitDone
}

// MarkExited transitions the handle to Crashed (or Stopped if stop was
// requested) with the given exit code.
func (h *Handle) MarkExited(exitCode int) {
	h.mu.Lock()
	h.stopAt = time.Now()
	h.pid = 0
	if h.stopping {
		h.state = State{Kind: Stopped}
	} else {
		h.state = State{Kind: Crashed, ExitCode: exitCode}
	}
	h.mu.Unlock()
}

// MarkFailed transitions the handle to Failed with the given reason.
func (h *Handle) MarkFailed(reason string) {
	h.mu.Lock()
	h.state = State{Kind: Failed, Reason: reason}
	h.pid = 0
	h.mu.Unlock()
}

func (h *Handle) SetStopRequested(v bool) {
	h.mu.Lock()
	h.stopping = v
	if v {
		h.state = State{Kind: Stopping}
	}
	h.mu.Unlock()
}

func (h *Handle) StopRequested() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopping
}

func (h *Handle) IncRestarts() int {
	h.mu.Lock()
	h.restarts++
	h.lastRestart = time.Now()
	v := h.restarts
	h.mu.Unlock()
	return v
}

func (h *Handle) Restarts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.restarts
}

func (h *Handle) MonitoringStartIfNeeded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.monitoring {
		return false
	}
	h.monitoring = true
	return true
}

func (h *Handle) MonitoringStop() {
	h.mu.Lock()
	h.monitoring = false
	h.mu.Unlock()
}

func (h *Handle) IsMonitoring() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.monitoring
}

func (h *Handle) cmdCopy() *exec.Cmd {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cmd
}

// CloseWriters closes any open file-mirror writers.
func (h *Handle) CloseWriters() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.outCloser != nil {
		_ = h.outCloser.Close()
		h.outCloser = nil
	}
	if h.errCloser != nil {
		_ = h.errCloser.Close()
		h.errCloser = nil
	}
}

// WritePIDFile writes the current pid to the configured PIDFile path, if any.
func (h *Handle) WritePIDFile(path string) {
	h.mu.Lock()
	pid := h.pid
	h.mu.Unlock()
	if path == "" || pid == 0 {
		return
	}
	_ = os.MkdirAll(filepath.Dir(path), 0o750)
	_ = os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o600)
}

// RemovePIDFile best-effort removes the pid file.
func (h *Handle) RemovePIDFile(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}

// Snapshot returns a read-model Info for this handle.
func (h *Handle) Snapshot() Info {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Info{
		Name:      h.cfg.Name,
		State:     h.state,
		PID:       h.pid,
		Command:   h.cfg.Command,
		WorkDir:   h.cfg.WorkDir,
		Restarts:  h.restarts,
		StartedAt: h.startAt,
		StoppedAt: h.stopAt,
	}
}

// DetectAlive probes liveness via the OS pid first, then any configured
// detectors. Returns (alive, description-of-method).
func (h *Handle) DetectAlive() (bool, string) {
	cmd := h.cmdCopy()
	if cmd != nil && cmd.Process != nil {
		pid := cmd.Process.Pid
		if runtime.GOOS == "linux" {
			if isZombieLinux(pid) {
				return false, ""
			}
			if syscall.Kill(pid, 0) == nil {
				return true, "exec:pid"
			}
		} else if syscall.Kill(-pid, 0) == nil {
			return true, "exec:pid"
		}
	}
	for _, d := range h.detectors() {
		if ok, _ := d.Alive(); ok {
			return true, d.Describe()
		}
	}
	return false, ""
}

func (h *Handle) detectors() []detector.Detector {
	h.mu.Lock()
	cfg := h.cfg
	h.mu.Unlock()

	dets := make([]detector.Detector, 0, len(cfg.Detectors)+1)
	if cfg.PIDFile != "" {
		dets = append(dets, detector.PIDFileDetector{PIDFile: cfg.PIDFile})
	}
	dets = append(dets, cfg.Detectors...)
	return dets
}

func isZombieLinux(pid int) bool {
	path := "/proc/" + strconv.Itoa(pid) + "/status"
	b, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return bytes.Contains(b, []byte("State:\tZ"))
}

// PollExited performs a non-blocking wait on the child. Returns true if the
// child has exited and the handle's state was updated accordingly. Used by
// the supervisor's crash-detection poll instead of a background monitor
// goroutine.
func (h *Handle) PollExited() bool {
	cmd := h.cmdCopy()
	if cmd == nil || cmd.Process == nil {
		return false
	}
	exited, code := waitNoHang(cmd.Process.Pid)
	if !exited {
		return false
	}
	h.readers.Wait()
	h.CloseWaitDone()
	h.CloseWriters()
	h.MarkExited(code)
	h.RemovePIDFile(h.Config().PIDFile)
	return true
}

// EnforceStartDuration blocks until d has elapsed, failing fast if the
// process exits before then. A zero or negative d is a no-op.
func (h *Handle) EnforceStartDuration(d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if h.cmdCopy() == nil {
		return errBeforeStart(d)
	}
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if alive, _ := h.DetectAlive(); !alive {
			return errBeforeStart(d)
		}
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

// Stop requests graceful termination (SIGTERM to the process group) and
// waits up to `wait` before force-killing. It is safe to call whether or
// not a monitor goroutine is concurrently waiting on the child; since this
// package's design has no such monitor (crash detection is pull-based via
// PollExited), Stop always owns the wait itself.
func (h *Handle) Stop(wait time.Duration) error {
	alive, _ := h.DetectAlive()
	if !alive {
		return nil
	}
	h.SetStopRequested(true)
	cmd := h.cmdCopy()
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	pid := cmd.Process.Pid
	_ = signalGroup(pid, sigterm())

	exited := h.waitUntilExited(wait)
	if !exited {
		_ = signalGroup(pid, sigkill())
		h.waitUntilExited(200 * time.Millisecond)
	}
	return nil
}

// Kill sends an immediate force signal to the process group and reaps it.
func (h *Handle) Kill() error {
	cmd := h.cmdCopy()
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	pid := cmd.Process.Pid
	_ = signalGroup(pid, sigkill())
	h.waitUntilExited(200 * time.Millisecond)
	return nil
}

// waitUntilExited polls PollExited until it reports the child gone or the
// deadline elapses. Returns true if the child was observed to exit.
func (h *Handle) waitUntilExited(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if h.PollExited() {
			return true
		}
		if alive, _ := h.DetectAlive(); !alive {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(10 * time.Millisecond)
	}
}
