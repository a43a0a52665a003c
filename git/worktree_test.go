package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	pexec "github.com/zhubert/parallel-core/exec"
)

func TestWorktreePath(t *testing.T) {
	got := WorktreePath("/repo", "feature-x")
	want := filepath.Join("/repo", ".worktrees", "feature-x")
	if got != want {
		t.Errorf("WorktreePath = %q, want %q", got, want)
	}
}

func TestCreateWorktree(t *testing.T) {
	mock := pexec.NewMockExecutor(nil)
	s := NewGitServiceWithExecutor(mock)

	info, err := s.CreateWorktree(ctx, "/repo", "feature-x")
	if err != nil {
		t.Fatalf("CreateWorktree failed: %v", err)
	}
	if info.Branch != "feature-x" {
		t.Errorf("branch = %q, want feature-x", info.Branch)
	}
	if info.Path != WorktreePath("/repo", "feature-x") {
		t.Errorf("path = %q, want %q", info.Path, WorktreePath("/repo", "feature-x"))
	}

	calls := mock.GetCalls()
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2 (branch + worktree add)", len(calls))
	}
	if calls[0].Args[0] != "branch" {
		t.Errorf("first call = %v, want branch create", calls[0].Args)
	}
	if calls[1].Args[0] != "worktree" || calls[1].Args[1] != "add" {
		t.Errorf("second call = %v, want worktree add", calls[1].Args)
	}
}

func TestCreateWorktreeBranchExistsIsIgnored(t *testing.T) {
	mock := pexec.NewMockExecutor(nil)
	mock.AddExactMatch("git", []string{"branch", "feature-x"}, pexec.MockResponse{
		Stderr: []byte("fatal: a branch named 'feature-x' already exists"),
		Err:    fmt.Errorf("exit status 128"),
	})
	s := NewGitServiceWithExecutor(mock)

	// A retry with an existing branch must still reach worktree add.
	info, err := s.CreateWorktree(ctx, "/repo", "feature-x")
	if err != nil {
		t.Fatalf("CreateWorktree should tolerate existing branch: %v", err)
	}
	if info == nil || info.Branch != "feature-x" {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestCreateWorktreeAddFailure(t *testing.T) {
	mock := pexec.NewMockExecutor(nil)
	mock.AddPrefixMatch("git", []string{"worktree", "add"}, pexec.MockResponse{
		Stderr: []byte("fatal: '.worktrees/feature-x' already exists"),
		Err:    fmt.Errorf("exit status 128"),
	})
	s := NewGitServiceWithExecutor(mock)

	_, err := s.CreateWorktree(ctx, "/repo", "feature-x")
	if err == nil {
		t.Fatal("expected error when worktree add fails")
	}

	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("error should be a ToolError, got %T", err)
	}
	if toolErr.Op != "worktree add" {
		t.Errorf("op = %q, want worktree add", toolErr.Op)
	}
	if toolErr.Output == "" {
		t.Error("ToolError should carry the captured git output")
	}
}

func TestRemoveWorktree(t *testing.T) {
	mock := pexec.NewMockExecutor(nil)
	s := NewGitServiceWithExecutor(mock)

	if err := s.RemoveWorktree(ctx, "/repo", "feature-x", false); err != nil {
		t.Fatalf("RemoveWorktree failed: %v", err)
	}

	calls := mock.GetCalls()
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	if calls[0].Args[0] != "worktree" || calls[0].Args[1] != "remove" {
		t.Errorf("call = %v, want worktree remove", calls[0].Args)
	}
}

func TestRemoveWorktreeDeleteBranchBestEffort(t *testing.T) {
	mock := pexec.NewMockExecutor(nil)
	mock.AddExactMatch("git", []string{"branch", "-D", "feature-x"}, pexec.MockResponse{
		Stderr: []byte("error: branch 'feature-x' not found"),
		Err:    fmt.Errorf("exit status 1"),
	})
	s := NewGitServiceWithExecutor(mock)

	// Branch deletion failure must not fail the removal.
	if err := s.RemoveWorktree(ctx, "/repo", "feature-x", true); err != nil {
		t.Fatalf("RemoveWorktree should ignore branch delete failure: %v", err)
	}

	calls := mock.GetCalls()
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2 (remove + branch -D)", len(calls))
	}
}

func TestRemoveWorktreeFailure(t *testing.T) {
	mock := pexec.NewMockExecutor(nil)
	mock.AddPrefixMatch("git", []string{"worktree", "remove"}, pexec.MockResponse{
		Stderr: []byte("fatal: '.worktrees/gone' is not a working tree"),
		Err:    fmt.Errorf("exit status 128"),
	})
	s := NewGitServiceWithExecutor(mock)

	err := s.RemoveWorktree(ctx, "/repo", "gone", false)
	if err == nil {
		t.Fatal("expected error")
	}
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Errorf("error should be a ToolError, got %T", err)
	}

	// Branch deletion must not be attempted when removal fails.
	for _, call := range mock.GetCalls() {
		if call.Args[0] == "branch" {
			t.Error("branch delete attempted after failed removal")
		}
	}
}
