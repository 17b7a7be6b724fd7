package process

import (
	"errors"
	"strings"
	"time"
)

func errBeforeStart(d time.Duration) error {
	return errors.New("process exited before start duration " + d.String())
}

// IsBeforeStartErr reports whether err indicates the process exited before
// its configured start duration elapsed.
func IsBeforeStartErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "exited before start duration")
}
