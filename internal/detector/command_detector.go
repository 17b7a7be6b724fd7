package detector

import (
	"errors"
	"os/exec"
	"strings"
)

// CommandDetector runs a command that is expected to exit 0 if the process
// it is watching is alive. This is the Go shape of the health-check
// "command, args, interval, timeout, retries" block described in the data
// model: the core stores it and can run it on behalf of a caller, but does
// not schedule it itself.
type CommandDetector struct {
	Command string
	Args    []string
}

func (d CommandDetector) Alive() (bool, error) {
	// #nosec G204 -- command/args come from a trusted, pre-validated config.
	cmd := exec.Command(d.Command, d.Args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return false, nil
	}
	return false, err
}

func (d CommandDetector) Describe() string {
	return "cmd:" + strings.TrimSpace(d.Command+" "+strings.Join(d.Args, " "))
}
