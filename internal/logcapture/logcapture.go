// Package logcapture wires a child process's stdout/stderr pipes into
// ring.Buffer, one reader goroutine per stream (component B). bufio.Scanner's
// default ScanLines split function already gives us the line semantics the
// supervisor wants: a trailing newline is stripped, a lone interior
// carriage-return is preserved as part of the line text.
package logcapture

import (
	"bufio"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dockside/supervisor/internal/ring"
)

// Capture reads lines from r, tags them with stream, and pushes them into
// buf until r returns EOF or an error. The reading runs in a goroutine that
// Capture starts itself; the returned done channel is closed when it exits.
//
// A non-EOF read error is logged and ends the goroutine; it does not panic
// or propagate, since losing the log tail of a dying child is not fatal to
// the supervisor.
func Capture(name string, r io.Reader, stream ring.Stream, buf *ring.Buffer, logger *slog.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			buf.Push(ring.Line{
				Time:   time.Now().UTC(),
				Stream: stream,
				Text:   scanner.Text(),
			})
		}
		if err := scanner.Err(); err != nil && logger != nil {
			logger.Warn("log capture ended with error", "process", name, "stream", string(stream), "err", err)
		}
	}()
	return done
}

// Pair starts one Capture goroutine each for stdout and stderr and returns a
// WaitGroup-backed handle that blocks until both have finished, which
// happens once the child's pipes are closed (normally right after it exits).
type Pair struct {
	wg sync.WaitGroup
}

// Start launches capture goroutines for both streams.
func (p *Pair) Start(name string, stdout, stderr io.Reader, buf *ring.Buffer, logger *slog.Logger) {
	p.wg.Add(2)
	go func() {
		defer p.wg.Done()
		<-Capture(name, stdout, ring.Stdout, buf, logger)
	}()
	go func() {
		defer p.wg.Done()
		<-Capture(name, stderr, ring.Stderr, buf, logger)
	}()
}

// Wait blocks until both capture goroutines have observed EOF.
func (p *Pair) Wait() {
	p.wg.Wait()
}
