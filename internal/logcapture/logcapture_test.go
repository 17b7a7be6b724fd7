package logcapture

import (
	"strings"
	"testing"
	"time"

	"github.com/dockside/supervisor/internal/ring"
)

func TestCaptureSplitsLines(t *testing.T) {
	buf := ring.NewBuffer(10)
	r := strings.NewReader("line one\nline two\nline three")
	done := Capture("proc", r, ring.Stdout, buf, nil)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("capture did not complete in time")
	}

	lines := buf.All()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %+v", len(lines), lines)
	}
	want := []string{"line one", "line two", "line three"}
	for i, l := range lines {
		if l.Text != want[i] {
			t.Fatalf("line %d: want %q got %q", i, want[i], l.Text)
		}
		if l.Stream != ring.Stdout {
			t.Fatalf("line %d: expected stdout stream tag", i)
		}
	}
}

func TestCapturePreservesInteriorCR(t *testing.T) {
	buf := ring.NewBuffer(10)
	r := strings.NewReader("progress: 10%\rprogress: 100%\n")
	done := Capture("proc", r, ring.Stderr, buf, nil)
	<-done

	lines := buf.All()
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %+v", len(lines), lines)
	}
	if !strings.Contains(lines[0].Text, "\r") {
		t.Fatalf("expected interior carriage return preserved, got %q", lines[0].Text)
	}
}

func TestPairWaitsForBothStreams(t *testing.T) {
	buf := ring.NewBuffer(10)
	var p Pair
	p.Start("proc", strings.NewReader("out\n"), strings.NewReader("err\n"), buf, nil)
	p.Wait()

	if got := buf.FilterStream(ring.Stdout); len(got) != 1 {
		t.Fatalf("expected 1 stdout line, got %d", len(got))
	}
	if got := buf.FilterStream(ring.Stderr); len(got) != 1 {
		t.Fatalf("expected 1 stderr line, got %d", len(got))
	}
}
