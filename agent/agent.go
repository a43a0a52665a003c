// Package agent defines the catalog of runnable coding agents.
//
// A built-in set covers the common CLI agents; users can replace it with
// their own catalog via an agents.yaml file in the config directory.
package agent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zhubert/parallel-core/logger"
	"github.com/zhubert/parallel-core/paths"
)

// Def describes one runnable agent: the command to spawn in a pty session
// and how to present it.
type Def struct {
	ID      string   `yaml:"id" json:"id"`
	Name    string   `yaml:"name" json:"name"`
	Command string   `yaml:"command" json:"command"`
	Args    []string `yaml:"args,omitempty" json:"args,omitempty"`
}

// Defaults returns the built-in agent catalog. The shell entry carries an
// empty command, which spawns the platform default shell.
func Defaults() []Def {
	return []Def{
		{ID: "claude", Name: "Claude Code", Command: "claude"},
		{ID: "codex", Name: "Codex", Command: "codex"},
		{ID: "gemini", Name: "Gemini", Command: "gemini"},
		{ID: "shell", Name: "Shell", Command: ""},
	}
}

// Load returns the agent catalog: the agents.yaml override when present,
// otherwise the built-in defaults. A missing file is not an error; an
// unreadable or invalid file is.
func Load() ([]Def, error) {
	path, err := paths.AgentsFilePath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve agents file path: %w", err)
	}
	return LoadFrom(path)
}

// LoadFrom loads the catalog from a specific file, falling back to Defaults
// if the file does not exist.
func LoadFrom(path string) ([]Def, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return nil, fmt.Errorf("failed to read agents file %s: %w", path, err)
	}

	var defs []Def
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse agents file %s: %w", path, err)
	}
	if err := validate(defs); err != nil {
		return nil, fmt.Errorf("invalid agents file %s: %w", path, err)
	}

	logger.WithComponent("agent").Info("loaded agent catalog", "path", path, "count", len(defs))
	return defs, nil
}

func validate(defs []Def) error {
	if len(defs) == 0 {
		return fmt.Errorf("catalog is empty")
	}
	seen := make(map[string]bool)
	for i, def := range defs {
		if def.ID == "" {
			return fmt.Errorf("entry %d has no id", i)
		}
		if seen[def.ID] {
			return fmt.Errorf("duplicate agent id %q", def.ID)
		}
		seen[def.ID] = true
	}
	return nil
}

// Find returns the agent with the given ID from defs, or false if absent.
func Find(defs []Def, id string) (Def, bool) {
	for _, def := range defs {
		if def.ID == id {
			return def, true
		}
	}
	return Def{}, false
}
