// Package git provides Git operations for per-task worktree isolation and
// change inspection.
//
// The package is organized into focused modules:
//   - service.go: GitService struct and constructor
//   - errors.go: ToolError for failed git invocations
//   - worktree.go: Worktree create/remove under <repo>/.worktrees/
//   - changes.go: Change-set computation (porcelain status + numstat join)
//   - branch.go: Branch inspection (current, main, log)
//   - merge.go: Thin merge/rebase/push invocations
package git
