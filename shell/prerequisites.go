package shell

import (
	"fmt"
	"os/exec"
	"strings"
)

// Prerequisite represents a required CLI tool
type Prerequisite struct {
	Name        string // Command name (e.g., "git")
	Required    bool   // Whether the tool is required to run the engine
	Description string // Human-readable description
	InstallURL  string // URL for installation instructions
}

// DefaultPrerequisites returns the list of CLI tools needed by the engine
func DefaultPrerequisites() []Prerequisite {
	return []Prerequisite{
		{
			Name:        "git",
			Required:    true,
			Description: "Git version control",
			InstallURL:  "https://git-scm.com/downloads",
		},
		{
			Name:        "claude",
			Required:    false, // Only needed when the Claude agent is used
			Description: "Claude Code CLI (optional, default coding agent)",
			InstallURL:  "https://claude.ai/code",
		},
	}
}

// CheckResult contains the result of checking a prerequisite
type CheckResult struct {
	Prerequisite Prerequisite
	Found        bool
	Path         string // Path to the executable if found
	Error        error
}

// Check verifies that a CLI tool is available, consulting the login-shell
// PATH through the resolver in addition to the process PATH.
func Check(r Resolver, prereq Prerequisite) CheckResult {
	result := CheckResult{Prerequisite: prereq}

	path := prereq.Name
	if r != nil {
		path = r.ResolveCommand(prereq.Name)
	}
	if path == prereq.Name {
		if looked, err := exec.LookPath(prereq.Name); err == nil {
			path = looked
		} else {
			result.Error = fmt.Errorf("%s not found in PATH", prereq.Name)
			return result
		}
	}

	result.Found = true
	result.Path = path
	return result
}

// ValidateRequired checks that all required prerequisites are met.
// Returns nil if all required tools are found, otherwise returns an error
// describing what's missing.
func ValidateRequired(r Resolver, prereqs []Prerequisite) error {
	var missing []string

	for _, prereq := range prereqs {
		if !prereq.Required {
			continue
		}
		result := Check(r, prereq)
		if !result.Found {
			missing = append(missing, fmt.Sprintf("  - %s (%s)\n    Install: %s",
				prereq.Name, prereq.Description, prereq.InstallURL))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required CLI tools:\n%s", strings.Join(missing, "\n"))
	}

	return nil
}
