package git

import (
	"fmt"
	"reflect"
	"testing"

	pexec "github.com/zhubert/parallel-core/exec"
)

func TestGetCurrentBranch(t *testing.T) {
	mock := pexec.NewMockExecutor(nil)
	mock.AddExactMatch("git", []string{"rev-parse", "--abbrev-ref", "HEAD"}, pexec.MockResponse{
		Stdout: []byte("feature-x\n"),
	})
	s := NewGitServiceWithExecutor(mock)

	branch, err := s.GetCurrentBranch(ctx, "/repo")
	if err != nil {
		t.Fatalf("GetCurrentBranch failed: %v", err)
	}
	if branch != "feature-x" {
		t.Errorf("branch = %q, want feature-x", branch)
	}
}

func TestGetCurrentBranchDetachedHead(t *testing.T) {
	mock := pexec.NewMockExecutor(nil)
	mock.AddExactMatch("git", []string{"rev-parse", "--abbrev-ref", "HEAD"}, pexec.MockResponse{
		Stdout: []byte("HEAD\n"),
	})
	s := NewGitServiceWithExecutor(mock)

	if _, err := s.GetCurrentBranch(ctx, "/repo"); err == nil {
		t.Error("expected error for detached HEAD")
	}
}

func TestGetMainBranchFromOriginHead(t *testing.T) {
	mock := pexec.NewMockExecutor(nil)
	mock.AddExactMatch("git", []string{"symbolic-ref", "refs/remotes/origin/HEAD"}, pexec.MockResponse{
		Stdout: []byte("refs/remotes/origin/trunk\n"),
	})
	s := NewGitServiceWithExecutor(mock)

	if got := s.GetMainBranch(ctx, "/repo"); got != "trunk" {
		t.Errorf("main branch = %q, want trunk", got)
	}
}

func TestGetMainBranchFallbackToMain(t *testing.T) {
	mock := pexec.NewMockExecutor(nil)
	mock.AddExactMatch("git", []string{"symbolic-ref", "refs/remotes/origin/HEAD"}, pexec.MockResponse{
		Err: fmt.Errorf("fatal: ref refs/remotes/origin/HEAD is not a symbolic ref"),
	})
	// rev-parse --verify main succeeds (empty mock response is success)
	s := NewGitServiceWithExecutor(mock)

	if got := s.GetMainBranch(ctx, "/repo"); got != "main" {
		t.Errorf("main branch = %q, want main", got)
	}
}

func TestGetMainBranchFallbackToMaster(t *testing.T) {
	mock := pexec.NewMockExecutor(nil)
	mock.AddExactMatch("git", []string{"symbolic-ref", "refs/remotes/origin/HEAD"}, pexec.MockResponse{
		Err: fmt.Errorf("fatal: ref refs/remotes/origin/HEAD is not a symbolic ref"),
	})
	mock.AddExactMatch("git", []string{"rev-parse", "--verify", "main"}, pexec.MockResponse{
		Err: fmt.Errorf("exit status 128"),
	})
	s := NewGitServiceWithExecutor(mock)

	if got := s.GetMainBranch(ctx, "/repo"); got != "master" {
		t.Errorf("main branch = %q, want master", got)
	}
}

func TestGetBranchLog(t *testing.T) {
	mock := pexec.NewMockExecutor(nil)
	mock.AddExactMatch("git", []string{"log", "--oneline", "main..HEAD"}, pexec.MockResponse{
		Stdout: []byte("abc1234 second commit\ndef5678 first commit\n"),
	})
	s := NewGitServiceWithExecutor(mock)

	log, err := s.GetBranchLog(ctx, "/wt", "main")
	if err != nil {
		t.Fatalf("GetBranchLog failed: %v", err)
	}
	want := []string{"abc1234 second commit", "def5678 first commit"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("log = %v, want %v", log, want)
	}
}

func TestGetBranchLogEmpty(t *testing.T) {
	mock := pexec.NewMockExecutor(nil)
	mock.AddExactMatch("git", []string{"log", "--oneline", "main..HEAD"}, pexec.MockResponse{
		Stdout: []byte("\n"),
	})
	s := NewGitServiceWithExecutor(mock)

	log, err := s.GetBranchLog(ctx, "/wt", "main")
	if err != nil {
		t.Fatalf("GetBranchLog failed: %v", err)
	}
	if log != nil {
		t.Errorf("log = %v, want nil for no commits", log)
	}
}

func TestCheckMergeStatusClean(t *testing.T) {
	mock := pexec.NewMockExecutor(nil)
	mock.AddPrefixMatch("git", []string{"merge-base"}, pexec.MockResponse{
		Stdout: []byte("abc1234\n"),
	})
	mock.AddPrefixMatch("git", []string{"merge-tree"}, pexec.MockResponse{
		Stdout: []byte("merged content without markers\n"),
	})
	s := NewGitServiceWithExecutor(mock)

	clean, err := s.CheckMergeStatus(ctx, "/repo", "feature-x", "main")
	if err != nil {
		t.Fatalf("CheckMergeStatus failed: %v", err)
	}
	if !clean {
		t.Error("expected clean merge")
	}
}

func TestCheckMergeStatusConflict(t *testing.T) {
	mock := pexec.NewMockExecutor(nil)
	mock.AddPrefixMatch("git", []string{"merge-base"}, pexec.MockResponse{
		Stdout: []byte("abc1234\n"),
	})
	mock.AddPrefixMatch("git", []string{"merge-tree"}, pexec.MockResponse{
		Stdout: []byte("<<<<<<< .our\nconflict\n=======\nother\n>>>>>>> .their\n"),
	})
	s := NewGitServiceWithExecutor(mock)

	clean, err := s.CheckMergeStatus(ctx, "/repo", "feature-x", "main")
	if err != nil {
		t.Fatalf("CheckMergeStatus failed: %v", err)
	}
	if clean {
		t.Error("expected conflict to be detected")
	}
}

func TestRebaseBranchAbortsOnFailure(t *testing.T) {
	mock := pexec.NewMockExecutor(nil)
	mock.AddExactMatch("git", []string{"rebase", "main"}, pexec.MockResponse{
		Stderr: []byte("CONFLICT (content): merge conflict in a.txt"),
		Err:    fmt.Errorf("exit status 1"),
	})
	s := NewGitServiceWithExecutor(mock)

	if err := s.RebaseBranch(ctx, "/wt", "main"); err == nil {
		t.Fatal("expected error")
	}

	var sawAbort bool
	for _, call := range mock.GetCalls() {
		if len(call.Args) == 2 && call.Args[0] == "rebase" && call.Args[1] == "--abort" {
			sawAbort = true
		}
	}
	if !sawAbort {
		t.Error("failed rebase should be aborted")
	}
}
