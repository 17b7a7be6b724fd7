package env

import (
	"strings"
	"testing"
)

func TestMergeOrderLaterWins(t *testing.T) {
	e := New().WithSet("FOO", "global").WithSet("BAR", "global-only")
	out := e.Merge([]string{"FOO=perproc"})

	got := map[string]string{}
	for _, kv := range out {
		i := strings.IndexByte(kv, '=')
		got[kv[:i]] = kv[i+1:]
	}
	if got["FOO"] != "perproc" {
		t.Fatalf("expected per-process override to win, got %q", got["FOO"])
	}
	if got["BAR"] != "global-only" {
		t.Fatalf("expected global var to pass through, got %q", got["BAR"])
	}
}

func TestWithUnset(t *testing.T) {
	e := New().WithSet("FOO", "1").WithUnset("FOO")
	out := e.Merge(nil)
	for _, kv := range out {
		if strings.HasPrefix(kv, "FOO=") {
			t.Fatalf("expected FOO to be unset, found %q", kv)
		}
	}
}

func TestMergeDoesNotInterpolate(t *testing.T) {
	e := New().WithSet("A", "1")
	out := e.Merge([]string{"B=${A}"})
	for _, kv := range out {
		if kv == "B=${A}" {
			return
		}
	}
	t.Fatalf("expected literal ${A} to pass through unexpanded, got %v", out)
}

// FuzzMerge fuzzes Merge with random per-process pairs to ensure the output
// is always well-formed key=value pairs with no empty keys, regardless of
// malformed input.
func FuzzMerge(f *testing.F) {
	f.Add([]byte("A=1\nB=2"))
	f.Add([]byte("NOEQUALS"))
	f.Add([]byte("=leadingeq"))

	f.Fuzz(func(t *testing.T, raw []byte) {
		var per []string
		for _, ln := range strings.Split(string(raw), "\n") {
			if ln != "" {
				per = append(per, ln)
			}
		}
		e := New()
		out := e.Merge(per)
		for _, kv := range out {
			if !strings.Contains(kv, "=") {
				t.Fatalf("bad pair: %q", kv)
			}
			if strings.HasPrefix(kv, "=") {
				t.Fatalf("empty key: %q", kv)
			}
		}
	})
}
