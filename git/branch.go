package git

import (
	"context"
	"fmt"
	"strings"
)

// GetCurrentBranch returns the name of the currently checked out branch in
// the given repo/worktree. Returns an error if HEAD is detached.
func (s *GitService) GetCurrentBranch(ctx context.Context, repoPath string) (string, error) {
	output, err := s.executor.Output(ctx, repoPath, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", &ToolError{Op: "rev-parse --abbrev-ref HEAD", Output: string(output), Err: err}
	}

	branch := strings.TrimSpace(string(output))
	if branch == "HEAD" {
		return "", fmt.Errorf("HEAD is detached (not on a branch)")
	}

	return branch, nil
}

// GetMainBranch returns the repository's main branch name (main or master).
func (s *GitService) GetMainBranch(ctx context.Context, repoPath string) string {
	// Try to get the default branch from origin
	output, err := s.executor.Output(ctx, repoPath, "git", "symbolic-ref", "refs/remotes/origin/HEAD")
	if err == nil {
		// Output is like "refs/remotes/origin/main"
		ref := strings.TrimSpace(string(output))
		parts := strings.Split(ref, "/")
		if len(parts) > 0 {
			return parts[len(parts)-1]
		}
	}

	// Fallback: check if main exists, otherwise use master
	if s.BranchExists(ctx, repoPath, "main") {
		return "main"
	}

	return "master"
}

// BranchExists checks if a branch ref resolves in the repo.
func (s *GitService) BranchExists(ctx context.Context, repoPath, branch string) bool {
	_, _, err := s.executor.Run(ctx, repoPath, "git", "rev-parse", "--verify", branch)
	return err == nil
}

// GetBranchLog returns the one-line commit subjects a task branch carries on
// top of the base branch, newest first.
func (s *GitService) GetBranchLog(ctx context.Context, worktreePath, baseBranch string) ([]string, error) {
	output, err := s.executor.Output(ctx, worktreePath, "git", "log", "--oneline", fmt.Sprintf("%s..HEAD", baseBranch))
	if err != nil {
		return nil, &ToolError{Op: "log", Output: string(output), Err: err}
	}

	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" {
		return nil, nil
	}
	return strings.Split(trimmed, "\n"), nil
}
