package errs

import (
	"errors"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := NotFound("web")
	if KindOf(err) != KindProcessNotFound {
		t.Fatalf("expected KindProcessNotFound, got %v", KindOf(err))
	}
	if KindOf(errors.New("plain")) != KindOther {
		t.Fatalf("expected KindOther for a plain error")
	}
	if KindOf(nil) != "" {
		t.Fatalf("expected empty Kind for nil error")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := SpawnFailed("web", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find the wrapped cause")
	}
}

func TestErrorMessagesAreStable(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{AlreadyRunning("web", 123), KindAlreadyRunning},
		{StopTimeout("web"), KindStopTimeout},
		{InvalidConfig("empty name"), KindInvalidConfig},
		{DependencyCycle([]string{"a", "b", "a"}), KindDependencyCycle},
		{UnknownDependency("web", "db"), KindUnknownDependency},
		{RestartLimitExceeded("web"), KindRestartLimitExceeded},
		{IO("read failed", errors.New("eof")), KindIO},
		{Other("misc"), KindOther},
	}
	for _, c := range cases {
		if KindOf(c.err) != c.want {
			t.Fatalf("want %v got %v for %v", c.want, KindOf(c.err), c.err)
		}
		if c.err.Error() == "" {
			t.Fatalf("expected non-empty error message for %v", c.want)
		}
	}
}
