//go:build !windows

package process

import "syscall"

// processGroupAttr places the child in its own process group so that its
// own forked grandchildren are reaped together with it on stop/kill.
func processGroupAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func sigterm() syscall.Signal { return syscall.SIGTERM }
func sigkill() syscall.Signal { return syscall.SIGKILL }

// signalGroup signals the whole process group of pid.
func signalGroup(pid int, sig syscall.Signal) error {
	return syscall.Kill(-pid, sig)
}

// waitNoHang performs a non-blocking wait4 on pid. Returns (true, exitCode)
// if the child has exited and been reaped, (false, 0) if it is still
// running or the wait call itself failed.
func waitNoHang(pid int) (bool, int) {
	var ws syscall.WaitStatus
	got, err := syscall.Wait4(pid, &ws, syscall.WNOHANG, nil)
	if err != nil || got == 0 {
		return false, 0
	}
	if ws.Exited() {
		return true, ws.ExitStatus()
	}
	if ws.Signaled() {
		return true, 128 + int(ws.Signal())
	}
	return true, -1
}
