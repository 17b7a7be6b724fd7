// Package errs defines the taxonomy of stable error kinds surfaced at the
// supervisor/façade boundary. Every operation either returns its success
// value or one of these, never a bare string or a panic.
package errs

import "fmt"

// Kind is a stable, comparable error classification. Callers should switch
// on Kind, not on error message text.
type Kind string

const (
	KindProcessNotFound      Kind = "ProcessNotFound"
	KindAlreadyRunning       Kind = "AlreadyRunning"
	KindSpawnFailed          Kind = "SpawnFailed"
	KindStopTimeout          Kind = "StopTimeout"
	KindInvalidConfig        Kind = "InvalidConfig"
	KindDependencyCycle      Kind = "DependencyCycle"
	KindUnknownDependency    Kind = "UnknownDependency"
	KindRestartLimitExceeded Kind = "RestartLimitExceeded"
	KindIO                   Kind = "Io"
	KindOther                Kind = "Other"
)

// Error is the concrete error type carrying a Kind plus a human-readable
// message and optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindOther if err is not one of ours.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if asErr, ok := err.(*Error); ok {
		return asErr.Kind
	}
	return KindOther
}

func NotFound(name string) error {
	return &Error{Kind: KindProcessNotFound, Msg: fmt.Sprintf("unknown process: %s", name)}
}

func AlreadyRunning(name string, pid int) error {
	return &Error{Kind: KindAlreadyRunning, Msg: fmt.Sprintf("process %s already running (pid %d)", name, pid)}
}

func SpawnFailed(name string, cause error) error {
	return &Error{Kind: KindSpawnFailed, Msg: fmt.Sprintf("failed to spawn %s", name), Err: cause}
}

func StopTimeout(name string) error {
	return &Error{Kind: KindStopTimeout, Msg: fmt.Sprintf("graceful stop of %s timed out", name)}
}

func InvalidConfig(msg string) error {
	return &Error{Kind: KindInvalidConfig, Msg: msg}
}

func DependencyCycle(path []string) error {
	return &Error{Kind: KindDependencyCycle, Msg: fmt.Sprintf("dependency cycle: %v", path)}
}

func UnknownDependency(name, missing string) error {
	return &Error{Kind: KindUnknownDependency, Msg: fmt.Sprintf("%s depends on unknown process %s", name, missing)}
}

func RestartLimitExceeded(name string) error {
	return &Error{Kind: KindRestartLimitExceeded, Msg: fmt.Sprintf("restart limit exceeded for %s", name)}
}

func IO(msg string, cause error) error {
	return &Error{Kind: KindIO, Msg: msg, Err: cause}
}

func Other(msg string) error {
	return &Error{Kind: KindOther, Msg: msg}
}
