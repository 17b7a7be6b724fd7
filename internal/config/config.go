// Package config defines the in-memory configuration schema the core
// consumes: a list of process configurations plus shared settings and a
// global environment overlay. File parsing (YAML/TOML/env-file loading) is
// an explicitly out-of-scope external collaborator; this package only
// describes the already-decoded value and does a best-effort internal
// sanity pass, mirroring provisr's own layered validation (detector
// conversion and group building both re-check names independently).
package config

import (
	"fmt"
	"time"

	"github.com/dockside/supervisor/internal/depgraph"
	"github.com/dockside/supervisor/internal/process"
)

// Settings holds process-independent options.
type Settings struct {
	LogLevel        string
	LogDir          string
	LogMaxSizeMB    int
	LogMaxBackups   int
	GracefulTimeout time.Duration
}

// Config is the in-memory value the core accepts, already validated by an
// upstream loader in the common case; Validate is a defensive re-check.
type Config struct {
	Processes []process.Config
	Settings  Settings
	GlobalEnv []string
}

// Default process-level policy values applied by callers that build a
// process.Config by hand rather than through a full external loader.
const (
	DefaultAutoRestart  = true
	DefaultRestartLimit = 5
	DefaultRestartDelay = time.Second
)

// Validate re-checks invariants the external loader is expected to have
// already enforced: non-empty unique names, non-empty command/argv, no
// unknown dependencies, and an acyclic dependency graph.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Processes))
	nodes := make([]depgraph.Node, 0, len(c.Processes))

	for _, p := range c.Processes {
		if p.Name == "" {
			return fmt.Errorf("config: process entry has empty name")
		}
		if seen[p.Name] {
			return fmt.Errorf("config: duplicate process name %q", p.Name)
		}
		seen[p.Name] = true
		if p.Command == "" && len(p.Argv) == 0 {
			return fmt.Errorf("config: process %q requires a command or argv", p.Name)
		}
		nodes = append(nodes, depgraph.Node{Name: p.Name, DependsOn: p.DependsOn})
	}

	if _, err := depgraph.Order(nodes); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
