package git

import (
	"context"
	"strings"

	"github.com/zhubert/parallel-core/logger"
)

// MergeBranch merges a task branch into the base branch in the main repo.
// This is a thin invocation: conflicts surface as a ToolError carrying git's
// output, and resolution is left entirely to the user.
func (s *GitService) MergeBranch(ctx context.Context, repoRoot, branch, baseBranch string) error {
	log := logger.WithComponent("git")

	output, err := s.executor.CombinedOutput(ctx, repoRoot, "git", "checkout", baseBranch)
	if err != nil {
		return &ToolError{Op: "checkout", Output: string(output), Err: err}
	}

	output, err = s.executor.CombinedOutput(ctx, repoRoot, "git", "merge", "--no-ff", branch)
	if err != nil {
		return &ToolError{Op: "merge", Output: string(output), Err: err}
	}

	log.Info("merged branch", "branch", branch, "base", baseBranch)
	return nil
}

// RebaseBranch rebases the worktree's branch onto the base branch. On
// failure the rebase is aborted so the worktree is never left mid-rebase.
func (s *GitService) RebaseBranch(ctx context.Context, worktreePath, baseBranch string) error {
	log := logger.WithComponent("git")

	output, err := s.executor.CombinedOutput(ctx, worktreePath, "git", "rebase", baseBranch)
	if err != nil {
		if abortOut, abortErr := s.executor.CombinedOutput(ctx, worktreePath, "git", "rebase", "--abort"); abortErr != nil {
			log.Warn("rebase abort failed", "output", strings.TrimSpace(string(abortOut)))
		}
		return &ToolError{Op: "rebase", Output: string(output), Err: err}
	}

	log.Info("rebased branch", "base", baseBranch, "worktree", worktreePath)
	return nil
}

// Push pushes the worktree's branch to origin, setting upstream tracking.
func (s *GitService) Push(ctx context.Context, worktreePath, branch string) error {
	output, err := s.executor.CombinedOutput(ctx, worktreePath, "git", "push", "-u", "origin", branch)
	if err != nil {
		return &ToolError{Op: "push", Output: string(output), Err: err}
	}

	logger.WithComponent("git").Info("pushed branch", "branch", branch)
	return nil
}

// CheckMergeStatus probes whether merging branch into baseBranch would apply
// cleanly, without touching the working tree. It uses the read-only
// merge-tree plumbing; conflict markers in the output mean a real merge
// would stop for resolution.
func (s *GitService) CheckMergeStatus(ctx context.Context, repoRoot, branch, baseBranch string) (bool, error) {
	baseOutput, err := s.executor.Output(ctx, repoRoot, "git", "merge-base", baseBranch, branch)
	if err != nil {
		return false, &ToolError{Op: "merge-base", Output: string(baseOutput), Err: err}
	}
	mergeBase := strings.TrimSpace(string(baseOutput))

	output, err := s.executor.Output(ctx, repoRoot, "git", "merge-tree", mergeBase, baseBranch, branch)
	if err != nil {
		return false, &ToolError{Op: "merge-tree", Output: string(output), Err: err}
	}

	clean := !strings.Contains(string(output), "<<<<<<<")
	return clean, nil
}
