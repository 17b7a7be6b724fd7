//go:build windows

package process

import (
	"os"
	"syscall"

	"golang.org/x/sys/windows"
)

// processGroupAttr on Windows creates a new process group so CTRL_BREAK can
// be targeted at the child without affecting the supervisor itself.
func processGroupAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: windows.CREATE_NEW_PROCESS_GROUP}
}

// There is no POSIX signal numbering on Windows; these values are only used
// to select between the two code paths in signalGroup below.
func sigterm() syscall.Signal { return syscall.Signal(1) }
func sigkill() syscall.Signal { return syscall.Signal(9) }

// signalGroup attempts a cooperative terminate (CTRL_BREAK to the process
// group) for "sigterm", and an unconditional TerminateProcess for "sigkill".
// CTRL_BREAK delivery is best-effort: most non-console or GUI subsystem
// children ignore it, in which case the caller's timeout falls through to
// the force path exactly as it does on POSIX.
func signalGroup(pid int, sig syscall.Signal) error {
	if sig == sigkill() {
		proc, err := os.FindProcess(pid)
		if err != nil {
			return err
		}
		return proc.Kill()
	}
	return windows.GenerateConsoleCtrlEvent(windows.CTRL_BREAK_EVENT, uint32(pid))
}

// waitNoHang reports whether pid has exited, without blocking, using
// OpenProcess/GetExitCodeProcess rather than a POSIX wait4 equivalent.
func waitNoHang(pid int) (bool, int) {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		// Process object is gone; treat as exited with unknown code.
		return true, -1
	}
	defer func() { _ = windows.CloseHandle(h) }()
	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return true, -1
	}
	const stillActive = 259
	if code == stillActive {
		return false, 0
	}
	return true, int(code)
}
