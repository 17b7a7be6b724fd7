//go:build windows

package pty

import "os"

// Windows offers no cooperative terminate for console subprocesses attached
// via ConPTY without extra plumbing; Kill falls through to the unconditional
// force path after the graceful window elapses regardless.
func terminate(p *os.Process) error {
	return p.Kill()
}
