package process

import (
	"strings"
	"testing"
)

func TestBuildCommandPlain(t *testing.T) {
	cfg := Config{Command: "echo hello"}
	cmd := cfg.BuildCommand()
	if !strings.HasSuffix(cmd.Path, "echo") {
		t.Fatalf("expected echo binary, got %s", cmd.Path)
	}
	if len(cmd.Args) != 2 || cmd.Args[1] != "hello" {
		t.Fatalf("unexpected args: %v", cmd.Args)
	}
}

func TestBuildCommandExplicitShellNotDoubleWrapped(t *testing.T) {
	cfg := Config{Command: `sh -c 'echo $HOME'`}
	cmd := cfg.BuildCommand()
	if !strings.HasSuffix(cmd.Path, "sh") {
		t.Fatalf("expected sh, got %s", cmd.Path)
	}
	if len(cmd.Args) != 3 || cmd.Args[1] != "-c" || cmd.Args[2] != "echo $HOME" {
		t.Fatalf("unexpected args: %v", cmd.Args)
	}
}

func TestBuildCommandMetacharactersUseShell(t *testing.T) {
	cfg := Config{Command: "echo a | grep a"}
	cmd := cfg.BuildCommand()
	if !strings.HasSuffix(cmd.Path, "sh") {
		t.Fatalf("expected sh wrapper for metacharacters, got %s", cmd.Path)
	}
}

func TestBuildCommandArgvTakesPrecedence(t *testing.T) {
	cfg := Config{Command: "ignored", Argv: []string{"true"}}
	cmd := cfg.BuildCommand()
	if !strings.HasSuffix(cmd.Path, "true") {
		t.Fatalf("expected argv to take precedence, got %s", cmd.Path)
	}
}

func TestBuildCommandEmpty(t *testing.T) {
	cfg := Config{}
	cmd := cfg.BuildCommand()
	if !strings.Contains(cmd.Path, "true") {
		t.Fatalf("expected fallback to /bin/true, got %s", cmd.Path)
	}
}
