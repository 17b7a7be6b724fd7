package health

import (
	"testing"
	"time"

	"github.com/dockside/supervisor/internal/process"
	"github.com/dockside/supervisor/internal/supervisor"
)

func TestCheckHealthRestartsCrashedAutoRestartProcess(t *testing.T) {
	s := supervisor.New(nil, nil)
	cfg := process.Config{
		Name:         "flaky",
		Command:      "sh -c 'exit 1'",
		AutoRestart:  true,
		RestartLimit: 5,
		RestartDelay: 10 * time.Millisecond,
	}
	if _, err := s.Start(cfg); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.StopAll()

	time.Sleep(100 * time.Millisecond) // let the child exit

	checker := New(s, nil)
	var restarted []string
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		restarted = checker.CheckHealth()
		if len(restarted) > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if len(restarted) != 1 || restarted[0] != "flaky" {
		t.Fatalf("expected flaky to be restarted, got %v", restarted)
	}
}

func TestCheckHealthLeavesNonAutoRestartCrashed(t *testing.T) {
	s := supervisor.New(nil, nil)
	cfg := process.Config{Name: "onceonly", Command: "sh -c 'exit 1'", AutoRestart: false}
	if _, err := s.Start(cfg); err != nil {
		t.Fatalf("Start: %v", err)
	}

	time.Sleep(150 * time.Millisecond)
	checker := New(s, nil)
	restarted := checker.CheckHealth()
	if len(restarted) != 0 {
		t.Fatalf("expected no restarts for a non-auto-restart process, got %v", restarted)
	}
	info, err := s.Get("onceonly")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if info.State.Kind != process.Crashed {
		t.Fatalf("expected Crashed state, got %v", info.State.Kind)
	}
}

func TestCheckHealthRespectsRestartLimit(t *testing.T) {
	s := supervisor.New(nil, nil)
	cfg := process.Config{
		Name:         "budgeted",
		Command:      "sh -c 'exit 1'",
		AutoRestart:  true,
		RestartLimit: 1,
		RestartDelay: 10 * time.Millisecond,
	}
	if _, err := s.Start(cfg); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.StopAll()
	checker := New(s, nil)

	// Call check_health three times with spacing, matching the scenario
	// shape this component is grounded on: first restart succeeds, the
	// crash after the budget is exhausted does not trigger another.
	var totalRestarts int
	for i := 0; i < 3; i++ {
		time.Sleep(150 * time.Millisecond)
		totalRestarts += len(checker.CheckHealth())
	}
	if totalRestarts != 1 {
		t.Fatalf("expected exactly 1 restart within budget, got %d", totalRestarts)
	}
}
