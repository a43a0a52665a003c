package git

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/zhubert/parallel-core/logger"
)

// WorktreeInfo describes an isolated working directory created for a task.
type WorktreeInfo struct {
	Path   string `json:"path"`
	Branch string `json:"branch"`
}

// WorktreePath returns the fixed layout path for a task worktree:
// <repoRoot>/.worktrees/<branch>.
func WorktreePath(repoRoot, branch string) string {
	return filepath.Join(repoRoot, ".worktrees", branch)
}

// CreateWorktree creates branch (if needed) and an isolated working directory
// at <repoRoot>/.worktrees/<branch> checked out to it.
//
// The branch creation step ignores failure so the call is idempotent under
// retry — "branch already exists" must not abort worktree setup. The worktree
// add step is authoritative: its failure returns a ToolError with the
// captured git output.
func (s *GitService) CreateWorktree(ctx context.Context, repoRoot, branch string) (*WorktreeInfo, error) {
	log := logger.WithComponent("git")
	worktreePath := WorktreePath(repoRoot, branch)

	if output, err := s.executor.CombinedOutput(ctx, repoRoot, "git", "branch", branch); err != nil {
		// Expected when the branch already exists; retries land here.
		log.Debug("branch create skipped", "branch", branch, "output", strings.TrimSpace(string(output)))
	}

	output, err := s.executor.CombinedOutput(ctx, repoRoot, "git", "worktree", "add", worktreePath, branch)
	if err != nil {
		log.Error("failed to create worktree", "branch", branch, "path", worktreePath, "output", string(output))
		return nil, &ToolError{Op: "worktree add", Output: string(output), Err: err}
	}

	log.Info("worktree created", "branch", branch, "path", worktreePath)
	return &WorktreeInfo{Path: worktreePath, Branch: branch}, nil
}

// RemoveWorktree force-removes the task worktree and its registration.
// If deleteBranch is set, the branch is force-deleted afterwards; that
// deletion is best-effort — the worktree is already gone, so a branch that
// is checked out elsewhere or already deleted only logs a warning.
func (s *GitService) RemoveWorktree(ctx context.Context, repoRoot, branch string, deleteBranch bool) error {
	log := logger.WithComponent("git")
	worktreePath := WorktreePath(repoRoot, branch)

	output, err := s.executor.CombinedOutput(ctx, repoRoot, "git", "worktree", "remove", "--force", worktreePath)
	if err != nil {
		log.Error("failed to remove worktree", "branch", branch, "path", worktreePath, "output", string(output))
		return &ToolError{Op: "worktree remove", Output: string(output), Err: err}
	}
	log.Info("worktree removed", "branch", branch, "path", worktreePath)

	if deleteBranch {
		if output, err := s.executor.CombinedOutput(ctx, repoRoot, "git", "branch", "-D", branch); err != nil {
			log.Warn("failed to delete branch (may already be deleted)", "branch", branch, "output", strings.TrimSpace(string(output)))
		} else {
			log.Debug("branch deleted", "branch", branch)
		}
	}

	return nil
}
