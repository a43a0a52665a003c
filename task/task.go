// Package task manages parallel coding tasks, each isolated in its own git
// worktree and branch. A task groups the agent sessions working on it.
package task

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Task is one unit of parallel work: a branch, its isolated worktree, and
// the agents attached to it.
type Task struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Branch       string    `json:"branch"`
	WorktreePath string    `json:"worktree_path"`
	RepoRoot     string    `json:"repo_root"`
	AgentIDs     []string  `json:"agent_ids"`
	CreatedAt    time.Time `json:"created_at"`
}

// MaxBranchNameLength bounds branch names derived from task names.
const MaxBranchNameLength = 80

// validBranchNameRegex matches valid git branch name characters.
// Git branch names cannot contain: space, ~, ^, :, ?, *, [, \, or control
// characters. They also cannot start with - or end with .lock.
var validBranchNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9/_.-]*$`)

// ValidateBranchName checks if a branch name is valid for git.
func ValidateBranchName(branch string) error {
	if branch == "" {
		return fmt.Errorf("branch name is empty")
	}
	if len(branch) > MaxBranchNameLength {
		return fmt.Errorf("branch name too long (max %d characters)", MaxBranchNameLength)
	}
	if strings.HasPrefix(branch, "-") {
		return fmt.Errorf("branch name cannot start with '-'")
	}
	if strings.HasSuffix(branch, ".lock") {
		return fmt.Errorf("branch name cannot end with '.lock'")
	}
	if strings.Contains(branch, "..") {
		return fmt.Errorf("branch name cannot contain '..'")
	}
	if !validBranchNameRegex.MatchString(branch) {
		return fmt.Errorf("branch name contains invalid characters (use letters, numbers, /, _, ., -)")
	}
	return nil
}

var invalidBranchChars = regexp.MustCompile(`[^a-zA-Z0-9/_.-]+`)

// BranchNameFromTask derives a usable branch name from a free-form task
// name: invalid characters collapse to single dashes and the result is
// lowercased and length-capped.
func BranchNameFromTask(name string) string {
	branch := invalidBranchChars.ReplaceAllString(strings.TrimSpace(name), "-")
	branch = strings.Trim(branch, "-.")
	branch = strings.ToLower(branch)
	if len(branch) > MaxBranchNameLength {
		branch = branch[:MaxBranchNameLength]
		branch = strings.Trim(branch, "-.")
	}
	return branch
}
